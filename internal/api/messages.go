package api

import (
	"errors"
	"net/http"
	"strings"

	"deepcut-desktop/internal/domain"
)

// Operator-facing sentences for the categorized failures.
const (
	MessageNetwork      = "Sunucuya bağlanılamadı. Ağ bağlantınızı kontrol edin."
	MessageTimeout      = "Sunucu zamanında yanıt vermedi. Lütfen daha sonra tekrar deneyin."
	MessageNotFound     = "İstenen kaynak sunucuda bulunamadı (404)."
	MessageServerError  = "Sunucu hatası oluştu. Lütfen sistem yöneticisine başvurun."
	MessageForbidden    = "Bu işlem için yetkiniz bulunmuyor (403)."
	MessageUnauthorized = "Oturum doğrulanamadı. Lütfen yetkilerinizi kontrol edin (401)."
	MessageBadResponse  = "API'den hatalı yanıt geldi."
)

var statusMessages = map[int]string{
	http.StatusNotFound:            MessageNotFound,
	http.StatusInternalServerError: MessageServerError,
	http.StatusForbidden:           MessageForbidden,
	http.StatusUnauthorized:        MessageUnauthorized,
}

// Describe maps an error onto the sentence shown to the operator.
// Unmatched failures pass the server message or the raw error text through.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Timeout() {
			return MessageTimeout
		}
		return MessageNetwork
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := statusMessages[httpErr.StatusCode]; ok {
			return msg
		}
		if strings.TrimSpace(httpErr.Message) != "" {
			return httpErr.Message
		}
		return MessageBadResponse
	}

	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		if strings.TrimSpace(appErr.Message) != "" {
			return appErr.Message
		}
		return MessageBadResponse
	}

	return err.Error()
}
