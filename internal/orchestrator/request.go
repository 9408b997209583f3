package orchestrator

import (
	"strings"
	"time"

	"deepcut-desktop/internal/domain"
)

const dateLayout = "2006-01-02"

// Input is the raw state of the main window's form.
type Input struct {
	BookIDsText string                `json:"bookIdsText"`
	OrgIDsText  string                `json:"orgIdsText"`
	Mode        domain.ProcessingMode `json:"mode"`
	CountText   string                `json:"countText"`
	StartDate   string                `json:"startDate"`
	EndDate     string                `json:"endDate"`
}

// BuildRequest validates the form and picks the request variant. It never
// touches the network.
func BuildRequest(in Input) (domain.ProcessingRequest, error) {
	bookText := strings.TrimSpace(in.BookIDsText)
	orgText := strings.TrimSpace(in.OrgIDsText)

	switch {
	case bookText != "" && orgText != "":
		return domain.ProcessingRequest{}, &domain.ValidationError{
			Kind:    domain.ValidationBothProvided,
			Message: "Hata: Lütfen sadece Kitap ID'leri veya sadece Üst Kurum ID'leri girin. İkisi aynı anda kullanılamaz.",
		}
	case bookText == "" && orgText == "":
		return domain.ProcessingRequest{}, &domain.ValidationError{
			Kind:    domain.ValidationNoneProvided,
			Message: "Hata: Lütfen işlem yapmak için Kitap ID'leri veya Üst Kurum ID'leri girin.",
		}
	case orgText != "":
		orgIDs := ParseIDs(orgText)
		if len(orgIDs) == 0 {
			return domain.ProcessingRequest{}, &domain.ValidationError{
				Kind:    domain.ValidationEmptyAfterParse,
				Field:   "orgIds",
				Message: "Hata: Geçerli Üst Kurum ID'leri girin.",
			}
		}
		start, end, err := validateDates(in.StartDate, in.EndDate)
		if err != nil {
			return domain.ProcessingRequest{}, err
		}
		return domain.ProcessingRequest{ByOrganizations: &domain.ByOrganizations{
			ParentOrgIDs: orgIDs,
			StartDate:    start,
			EndDate:      end,
		}}, nil
	default:
		bookIDs := ParseIDs(bookText)
		if len(bookIDs) == 0 {
			return domain.ProcessingRequest{}, &domain.ValidationError{
				Kind:    domain.ValidationEmptyAfterParse,
				Field:   "bookIds",
				Message: "Hata: Geçerli Kitap ID'leri girin.",
			}
		}
		byBooks := &domain.ByBooks{BookIDs: bookIDs, Mode: domain.ProcessingModeExhaustive}
		if in.Mode == domain.ProcessingModeRandom {
			byBooks.Mode = domain.ProcessingModeRandom
			// A non-numeric count goes out as null; the service decides what that means.
			if count, ok := parseLeadingInt(in.CountText); ok {
				byBooks.CountPerBook = &count
			}
		}
		return domain.ProcessingRequest{ByBooks: byBooks}, nil
	}
}

// BuildSelectionFilter validates the inputs of the book selector launcher.
func BuildSelectionFilter(orgIDsText, startDate, endDate string) (domain.SelectionFilter, error) {
	orgText := strings.TrimSpace(orgIDsText)
	if orgText == "" {
		return domain.SelectionFilter{}, &domain.ValidationError{
			Kind:    domain.ValidationNoneProvided,
			Field:   "orgIds",
			Message: "Lütfen önce Üst Kurum ID'si girin.",
		}
	}

	orgIDs := ParseIDs(orgText)
	if len(orgIDs) == 0 {
		return domain.SelectionFilter{}, &domain.ValidationError{
			Kind:    domain.ValidationEmptyAfterParse,
			Field:   "orgIds",
			Message: "Hata: Geçerli Üst Kurum ID'leri girin.",
		}
	}

	start, end, err := validateDates(startDate, endDate)
	if err != nil {
		return domain.SelectionFilter{}, err
	}
	return domain.SelectionFilter{ParentOrgIDs: orgIDs, StartDate: start, EndDate: end}, nil
}

// ParsePreviewIDs validates the book-ID text before opening a review window.
func ParsePreviewIDs(bookIDsText string) ([]domain.BookID, error) {
	text := strings.TrimSpace(bookIDsText)
	if text == "" {
		return nil, &domain.ValidationError{
			Kind:    domain.ValidationNoneProvided,
			Field:   "bookIds",
			Message: "Önizleme yapmak için lütfen Kitap ID'leri alanını doldurun.",
		}
	}

	ids := ParseIDs(text)
	if len(ids) == 0 {
		return nil, &domain.ValidationError{
			Kind:    domain.ValidationEmptyAfterParse,
			Field:   "bookIds",
			Message: "Hata: Girdiğiniz Kitap ID'leri geçerli bir formatta değil.",
		}
	}
	return ids, nil
}

func validateDates(start, end string) (string, string, error) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	for _, date := range []struct{ field, value string }{{"startDate", start}, {"endDate", end}} {
		if date.value == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, date.value); err != nil {
			return "", "", &domain.ValidationError{
				Kind:    domain.ValidationInvalidDate,
				Field:   date.field,
				Message: "Hata: Tarihler YYYY-AA-GG biçiminde olmalıdır.",
			}
		}
	}
	return start, end, nil
}
