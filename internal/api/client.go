package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"deepcut-desktop/internal/domain"
)

const statusOK = "ok"

// Client talks to the remote deep cut processing service.
// It sets no request timeout; callers bound calls through their context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{})
}

// NewClientWithHTTP creates a client that sends requests through httpClient.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     slog.Default().With("component", "api"),
	}
}

// BaseURL returns the service root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type deepCutBody struct {
	KitapIDs []int `json:"kitapIds"`
}

type randomBody struct {
	KitapIDs      []int `json:"kitapIds"`
	CountPerKitap *int  `json:"countPerKitap"`
}

type byKurumsBody struct {
	UstKurumIDs []int   `json:"ustKurumIds"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
}

// Process dispatches one processing request to the endpoint matching its variant.
func (c *Client) Process(ctx context.Context, req domain.ProcessingRequest) (domain.ProcessingResult, error) {
	var (
		path string
		body any
	)

	switch {
	case req.ByOrganizations != nil && req.ByBooks != nil:
		return domain.ProcessingResult{}, fmt.Errorf("processing request has both variants set")
	case req.ByOrganizations != nil:
		path = "/deepCutByKurums"
		body = byKurumsBody{
			UstKurumIDs: req.ByOrganizations.ParentOrgIDs,
			StartDate:   optionalString(req.ByOrganizations.StartDate),
			EndDate:     optionalString(req.ByOrganizations.EndDate),
		}
	case req.ByBooks != nil && req.ByBooks.Mode == domain.ProcessingModeRandom:
		path = "/deep_cut/random"
		body = randomBody{KitapIDs: req.ByBooks.BookIDs, CountPerKitap: req.ByBooks.CountPerBook}
	case req.ByBooks != nil:
		path = "/deep_cut"
		body = deepCutBody{KitapIDs: req.ByBooks.BookIDs}
	default:
		return domain.ProcessingResult{}, fmt.Errorf("processing request has no variant set")
	}

	var result domain.ProcessingResult
	if err := c.do(ctx, http.MethodPost, path, nil, body, &result); err != nil {
		return domain.ProcessingResult{}, err
	}
	return result, nil
}

// PreviewResponse is the raw payload of the preview endpoint.
type PreviewResponse struct {
	Status           string          `json:"status"`
	BeforeImage      string          `json:"before_image"`
	AfterImage       string          `json:"after_image"`
	CurrentIndex     int             `json:"current_index"`
	TotalCount       int             `json:"total_count"`
	Metadata         PreviewMetadata `json:"metadata"`
	HasPrevious      bool            `json:"has_previous"`
	HasNext          bool            `json:"has_next"`
	IsMarkedAsFaulty bool            `json:"is_marked_as_faulty"`
}

// PreviewMetadata carries server-side file paths for one question.
type PreviewMetadata struct {
	OriginalPath  string `json:"original_path1"`
	ProcessedPath string `json:"processed_path1"`
	KitapID       int    `json:"kitap_id"`
}

// Pair converts the payload into the client-side question pair.
func (p PreviewResponse) Pair() domain.QuestionPair {
	return domain.QuestionPair{
		BeforeImage:    p.BeforeImage,
		AfterImage:     p.AfterImage,
		BeforeSrc:      ImageSource(p.BeforeImage),
		AfterSrc:       ImageSource(p.AfterImage),
		BeforePath:     p.Metadata.OriginalPath,
		AfterPath:      p.Metadata.ProcessedPath,
		IsMarkedFaulty: p.IsMarkedAsFaulty,
		HasPrevious:    p.HasPrevious,
		HasNext:        p.HasNext,
	}
}

// ImageSource turns a raw base64 PNG payload into a data URL an <img> can show.
// Empty payloads stay empty and existing data URLs pass through.
func ImageSource(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return raw
	}
	return "data:image/png;base64," + raw
}

// Preview fetches one question's image pair for a book.
func (c *Client) Preview(ctx context.Context, bookID domain.BookID, index int) (PreviewResponse, error) {
	query := url.Values{}
	query.Set("kitapIds", strconv.Itoa(bookID))
	query.Set("index", strconv.Itoa(index))

	var resp PreviewResponse
	if err := c.do(ctx, http.MethodGet, "/deep_cut/preview", query, nil, &resp); err != nil {
		return PreviewResponse{}, err
	}
	return resp, nil
}

// ReportFault submits a fault report for one before/after pair.
func (c *Client) ReportFault(ctx context.Context, report domain.FaultReport) error {
	var resp envelope
	return c.do(ctx, http.MethodPost, "/deep_cut/hatali_soru", nil, report, &resp)
}

type booksByKurumResponse struct {
	KitapIDs []int `json:"kitap_idleri"`
}

// BooksByOrganization looks up candidate book IDs for the given filter.
// The endpoint answers without a status field, so only the HTTP status is checked.
func (c *Client) BooksByOrganization(ctx context.Context, filter domain.SelectionFilter) ([]domain.BookID, error) {
	query := url.Values{}
	query.Set("ustKurumIds", strings.Join(lo.Map(filter.ParentOrgIDs, func(id int, _ int) string {
		return strconv.Itoa(id)
	}), ","))
	if filter.StartDate != "" {
		query.Set("startDate", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("endDate", filter.EndDate)
	}

	var resp booksByKurumResponse
	if err := c.send(ctx, http.MethodGet, "/api/kitaplarByKurum", query, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.KitapIDs, nil
}

// envelope holds the common status/message fields.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// do sends a request whose response must carry status "ok".
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.send(ctx, method, path, query, body, out, true)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, requireOK bool) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "request_id", requestID, "err", err)
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("unexpected status", "method", method, "path", path, "request_id", requestID, "status", resp.StatusCode)
		return &HTTPError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if requireOK && env.Status != statusOK {
		return &ApplicationError{Status: env.Status, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	c.logger.Debug("request completed", "method", method, "path", path, "request_id", requestID, "status", resp.StatusCode)
	return nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		return false
	}
	return transportErr.Timeout()
}
