package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"deepcut-desktop/internal/domain"
)

// newTestServer serves a single handler and returns a client pointed at it.
func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.URL, srv.Client())
}

// TestProcessRoutesVariants checks endpoint and body per request variant.
func TestProcessRoutesVariants(t *testing.T) {
	count := 5
	cases := []struct {
		name     string
		req      domain.ProcessingRequest
		wantPath string
		wantBody string
	}{
		{
			name:     "exhaustive",
			req:      domain.ProcessingRequest{ByBooks: &domain.ByBooks{BookIDs: []int{12, 7, 7}, Mode: domain.ProcessingModeExhaustive}},
			wantPath: "/deep_cut",
			wantBody: `{"kitapIds":[12,7,7]}`,
		},
		{
			name:     "random",
			req:      domain.ProcessingRequest{ByBooks: &domain.ByBooks{BookIDs: []int{3}, Mode: domain.ProcessingModeRandom, CountPerBook: &count}},
			wantPath: "/deep_cut/random",
			wantBody: `{"kitapIds":[3],"countPerKitap":5}`,
		},
		{
			name:     "random without numeric count",
			req:      domain.ProcessingRequest{ByBooks: &domain.ByBooks{BookIDs: []int{3}, Mode: domain.ProcessingModeRandom}},
			wantPath: "/deep_cut/random",
			wantBody: `{"kitapIds":[3],"countPerKitap":null}`,
		},
		{
			name:     "organizations",
			req:      domain.ProcessingRequest{ByOrganizations: &domain.ByOrganizations{ParentOrgIDs: []int{9}, StartDate: "2024-01-01"}},
			wantPath: "/deepCutByKurums",
			wantBody: `{"ustKurumIds":[9],"startDate":"2024-01-01","endDate":null}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotPath, gotBody string
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				data, _ := io.ReadAll(r.Body)
				gotBody = string(data)
				if r.Header.Get("X-Request-Id") == "" {
					t.Error("missing X-Request-Id header")
				}
				_, _ = w.Write([]byte(`{"status":"ok","logs":[{"timestamp":"2024-01-01T10:00:00Z","level":"INFO","message":"done"}],"summary":{"n":1}}`))
			})

			result, err := client.Process(context.Background(), tc.req)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if gotPath != tc.wantPath {
				t.Fatalf("path = %q, want %q", gotPath, tc.wantPath)
			}
			if gotBody != tc.wantBody {
				t.Fatalf("body = %s, want %s", gotBody, tc.wantBody)
			}
			if len(result.Logs) != 1 || result.Logs[0].Message != "done" {
				t.Fatalf("unexpected logs: %+v", result.Logs)
			}
		})
	}
}

// TestProcessRejectsAmbiguousRequest checks the union guard.
func TestProcessRejectsAmbiguousRequest(t *testing.T) {
	client := NewClient("http://127.0.0.1:0")
	_, err := client.Process(context.Background(), domain.ProcessingRequest{
		ByBooks:         &domain.ByBooks{BookIDs: []int{1}},
		ByOrganizations: &domain.ByOrganizations{ParentOrgIDs: []int{2}},
	})
	if err == nil {
		t.Fatal("expected error for request with both variants")
	}
}

// TestProcessHTTPErrorWithoutMessage checks the fixed server-error sentence.
func TestProcessHTTPErrorWithoutMessage(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Process(context.Background(), domain.ProcessingRequest{ByBooks: &domain.ByBooks{BookIDs: []int{1}}})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error = %v, want HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", httpErr.StatusCode)
	}
	if got := Describe(err); got != MessageServerError {
		t.Fatalf("Describe() = %q, want %q", got, MessageServerError)
	}
}

// TestProcessApplicationError checks 2xx responses with a non-ok status.
func TestProcessApplicationError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"kitap bulunamadı"}`))
	})

	_, err := client.Process(context.Background(), domain.ProcessingRequest{ByBooks: &domain.ByBooks{BookIDs: []int{1}}})
	var appErr *ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want ApplicationError", err)
	}
	if got := Describe(err); got != "kitap bulunamadı" {
		t.Fatalf("Describe() = %q", got)
	}
}

// TestPreviewQueryAndPayload checks the preview request shape and pair mapping.
func TestPreviewQueryAndPayload(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deep_cut/preview" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("kitapIds") != "42" || r.URL.Query().Get("index") != "3" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "ok",
			"before_image":  "QkVGT1JF",
			"after_image":   "QUZURVI=",
			"current_index": 3,
			"total_count":   10,
			"metadata": map[string]any{
				"original_path1":  "a/b/before.png",
				"processed_path1": "a/c/after.png",
				"kitap_id":        42,
			},
			"has_previous":        true,
			"has_next":            false,
			"is_marked_as_faulty": true,
		})
	})

	resp, err := client.Preview(context.Background(), 42, 3)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	pair := resp.Pair()
	if pair.BeforePath != "a/b/before.png" || pair.AfterPath != "a/c/after.png" {
		t.Fatalf("paths = %q %q", pair.BeforePath, pair.AfterPath)
	}
	if !pair.HasPrevious || pair.HasNext || !pair.IsMarkedFaulty {
		t.Fatalf("flags = %+v", pair)
	}
	if resp.CurrentIndex != 3 || resp.TotalCount != 10 || resp.Metadata.KitapID != 42 {
		t.Fatalf("cursor fields = %+v", resp)
	}
	if pair.BeforeSrc != "data:image/png;base64,QkVGT1JF" || pair.AfterSrc != "data:image/png;base64,QUZURVI=" {
		t.Fatalf("image sources = %q %q", pair.BeforeSrc, pair.AfterSrc)
	}
}

func TestImageSource(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "raw base64", raw: "QkVGT1JF", want: "data:image/png;base64,QkVGT1JF"},
		{name: "empty", raw: "", want: ""},
		{name: "whitespace", raw: "  ", want: ""},
		{name: "already a data url", raw: "data:image/jpeg;base64,/9j/", want: "data:image/jpeg;base64,/9j/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImageSource(tt.raw); got != tt.want {
				t.Fatalf("ImageSource(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestReportFaultBody checks the fault report wire format.
func TestReportFaultBody(t *testing.T) {
	var body string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/deep_cut/hatali_soru" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if err := client.ReportFault(context.Background(), domain.FaultReport{BeforePath: "b.png", AfterPath: "a.png"}); err != nil {
		t.Fatalf("ReportFault() error = %v", err)
	}
	if body != `{"before_path":"b.png","after_path":"a.png"}` {
		t.Fatalf("body = %s", body)
	}
}

// TestBooksByOrganizationQuery checks csv org ids and optional dates.
func TestBooksByOrganizationQuery(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("ustKurumIds") != "5,6" {
			t.Errorf("ustKurumIds = %q", q.Get("ustKurumIds"))
		}
		if q.Get("endDate") != "2024-02-01" {
			t.Errorf("endDate = %q", q.Get("endDate"))
		}
		if _, ok := q["startDate"]; ok {
			t.Error("startDate should be omitted when empty")
		}
		_, _ = w.Write([]byte(`{"kitap_idleri":[101,102]}`))
	})

	ids, err := client.BooksByOrganization(context.Background(), domain.SelectionFilter{
		ParentOrgIDs: []int{5, 6},
		EndDate:      "2024-02-01",
	})
	if err != nil {
		t.Fatalf("BooksByOrganization() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != 101 || ids[1] != 102 {
		t.Fatalf("ids = %v", ids)
	}
}

// TestTransportErrorCategorized checks unreachable hosts map to the network sentence.
func TestTransportErrorCategorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	client := NewClient(baseURL)
	_, err := client.BooksByOrganization(context.Background(), domain.SelectionFilter{ParentOrgIDs: []int{1}})
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if got := Describe(err); got != MessageNetwork {
		t.Fatalf("Describe() = %q", got)
	}
}

// TestDescribeTable checks the categorization table and passthrough.
func TestDescribeTable(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&HTTPError{StatusCode: 404}, MessageNotFound},
		{&HTTPError{StatusCode: 403, Message: "yasak"}, MessageForbidden},
		{&HTTPError{StatusCode: 401}, MessageUnauthorized},
		{&HTTPError{StatusCode: 502, Message: "gateway down"}, "gateway down"},
		{&HTTPError{StatusCode: 502}, MessageBadResponse},
		{&TransportError{Op: "GET /x", Err: context.DeadlineExceeded}, MessageTimeout},
		{errors.New("raw failure"), "raw failure"},
		{&domain.ValidationError{Kind: domain.ValidationNoneProvided, Message: "boş"}, "boş"},
	}

	for _, tc := range cases {
		if got := Describe(tc.err); got != tc.want {
			t.Errorf("Describe(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if !strings.Contains((&HTTPError{StatusCode: 500}).Error(), "500") {
		t.Error("HTTPError text should include the status code")
	}
}
