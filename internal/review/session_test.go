package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"deepcut-desktop/internal/api"
	"deepcut-desktop/internal/domain"
	"deepcut-desktop/internal/ipc"
)

// previewCall is one recorded Preview invocation.
type previewCall struct {
	bookID domain.BookID
	index  int
}

// fakeFetcher serves preview pages from a per-book count and records calls.
// A gate, when set for a call key, holds that response until released.
type fakeFetcher struct {
	mu        sync.Mutex
	totals    map[domain.BookID]int
	faulty    map[string]bool
	calls     []previewCall
	reports   []domain.FaultReport
	previewFn func(bookID domain.BookID, index int) (api.PreviewResponse, error)
	reportErr error
	gates     map[previewCall]chan struct{}
}

func newFakeFetcher(totals map[domain.BookID]int) *fakeFetcher {
	return &fakeFetcher{totals: totals, faulty: map[string]bool{}, gates: map[previewCall]chan struct{}{}}
}

// Preview returns a synthetic page or the injected override.
func (f *fakeFetcher) Preview(ctx context.Context, bookID domain.BookID, index int) (api.PreviewResponse, error) {
	key := previewCall{bookID, index}
	f.mu.Lock()
	f.calls = append(f.calls, key)
	gate := f.gates[key]
	fn := f.previewFn
	total := f.totals[bookID]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fn != nil {
		return fn(bookID, index)
	}

	after := pathFor(bookID, index, "after")
	return api.PreviewResponse{
		Status:       "ok",
		BeforeImage:  "QkVGT1JF",
		AfterImage:   "QUZURVI=",
		CurrentIndex: index,
		TotalCount:   total,
		Metadata: api.PreviewMetadata{
			OriginalPath:  pathFor(bookID, index, "before"),
			ProcessedPath: after,
			KitapID:       bookID,
		},
		HasPrevious:      index > 0,
		HasNext:          index < total-1,
		IsMarkedAsFaulty: f.isFaulty(after),
	}, nil
}

// ReportFault records the report or returns the injected error.
func (f *fakeFetcher) ReportFault(ctx context.Context, report domain.FaultReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	if f.reportErr != nil {
		return f.reportErr
	}
	f.faulty[report.AfterPath] = true
	return nil
}

func (f *fakeFetcher) isFaulty(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.faulty[path]
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) gate(bookID domain.BookID, index int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[previewCall{bookID, index}] = ch
	return ch
}

func pathFor(bookID domain.BookID, index int, kind string) string {
	return "sorular/" + kind + "/" + string(rune('a'+bookID%26)) + "/" + string(rune('0'+index%10)) + ".png"
}

// fakeOpener records opened directories.
type fakeOpener struct {
	opened []string
}

// OpenDirectory records path.
func (o *fakeOpener) OpenDirectory(path string) error {
	o.opened = append(o.opened, path)
	return nil
}

func newTestSession(f *fakeFetcher) *Session {
	return New("preview-1", f, &fakeOpener{}, Options{ShareRoot: `\\srv\share`, Separator: `\`})
}

// TestInitSelectsFirstBook checks auto-selection and the first fetch.
func TestInitSelectsFirstBook(t *testing.T) {
	f := newFakeFetcher(map[int]int{12: 3, 7: 2})
	s := newTestSession(f)

	if err := s.Init(context.Background(), []int{12, 7, 7}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	view := s.View()
	if view.Status != StatusLoaded || view.ActiveBookID != 12 {
		t.Fatalf("view = %+v", view)
	}
	if len(view.BookIDs) != 3 {
		t.Fatalf("book ids = %v, duplicates must be kept", view.BookIDs)
	}
	if f.callCount() != 1 || f.calls[0] != (previewCall{12, 0}) {
		t.Fatalf("calls = %+v", f.calls)
	}
	if view.PrevEnabled || !view.NextEnabled {
		t.Fatalf("buttons prev=%v next=%v", view.PrevEnabled, view.NextEnabled)
	}
	if view.Info != "Soru: 1 / 3 (Kitap ID: 12)" {
		t.Fatalf("info = %q", view.Info)
	}
	if view.Pair == nil || view.Pair.BeforeSrc != "data:image/png;base64,QkVGT1JF" {
		t.Fatalf("pair = %+v, want a renderable before image", view.Pair)
	}
}

// TestInitEmptyStaysIdle checks the empty-list prompt.
func TestInitEmptyStaysIdle(t *testing.T) {
	f := newFakeFetcher(nil)
	s := newTestSession(f)

	if err := s.Init(context.Background(), nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	view := s.View()
	if view.Status != StatusIdle || view.Info != chooseBookMessage || f.callCount() != 0 {
		t.Fatalf("view = %+v, calls = %d", view, f.callCount())
	}
	if accepted, _ := s.Navigate(context.Background(), DirectionNext); accepted {
		t.Fatal("idle session must not navigate")
	}
	if err := s.Init(context.Background(), []int{1}); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Init error = %v", err)
	}
}

// TestNavigateBoundsAreNoOps checks previous at 0 and next at the last index.
func TestNavigateBoundsAreNoOps(t *testing.T) {
	f := newFakeFetcher(map[int]int{5: 2})
	s := newTestSession(f)
	if err := s.Init(context.Background(), []int{5}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	before := s.View()
	accepted, err := s.Navigate(context.Background(), DirectionPrevious)
	if err != nil || accepted {
		t.Fatalf("previous at 0: accepted=%v err=%v", accepted, err)
	}
	if f.callCount() != 1 || s.View().Cursor != before.Cursor {
		t.Fatal("previous at 0 must not fetch or change state")
	}

	if accepted, err := s.Navigate(context.Background(), DirectionNext); err != nil || !accepted {
		t.Fatalf("next: accepted=%v err=%v", accepted, err)
	}
	if s.View().Cursor.QuestionIndex != 1 {
		t.Fatalf("cursor = %+v", s.View().Cursor)
	}

	atEnd := s.View()
	accepted, err = s.Navigate(context.Background(), DirectionNext)
	if err != nil || accepted {
		t.Fatalf("next at end: accepted=%v err=%v", accepted, err)
	}
	if f.callCount() != 2 || s.View().Cursor != atEnd.Cursor {
		t.Fatal("next at last index must not fetch or change state")
	}
}

// TestServerFlagsDriveButtons checks has_previous/has_next win over local bounds.
func TestServerFlagsDriveButtons(t *testing.T) {
	f := newFakeFetcher(nil)
	f.previewFn = func(bookID domain.BookID, index int) (api.PreviewResponse, error) {
		return api.PreviewResponse{
			Status:       "ok",
			CurrentIndex: 4,
			TotalCount:   10,
			Metadata:     api.PreviewMetadata{OriginalPath: "b/x.png", ProcessedPath: "a/x.png", KitapID: bookID},
			HasPrevious:  false,
			HasNext:      true,
		}, nil
	}
	s := newTestSession(f)
	if err := s.Init(context.Background(), []int{9}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	view := s.View()
	if view.PrevEnabled || !view.NextEnabled {
		t.Fatalf("prev=%v next=%v, want false/true", view.PrevEnabled, view.NextEnabled)
	}
	if accepted, _ := s.Navigate(context.Background(), DirectionPrevious); accepted {
		t.Fatal("previous must follow the server flag")
	}
}

// TestSelectBookResetsIndex checks one index-0 fetch per book switch.
func TestSelectBookResetsIndex(t *testing.T) {
	f := newFakeFetcher(map[int]int{1: 5, 2: 5})
	s := newTestSession(f)
	if err := s.Init(context.Background(), []int{1, 2}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := s.Navigate(context.Background(), DirectionNext); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	if err := s.SelectBook(context.Background(), 2); err != nil {
		t.Fatalf("SelectBook: %v", err)
	}
	if f.callCount() != 3 || f.calls[2] != (previewCall{2, 0}) {
		t.Fatalf("calls = %+v", f.calls)
	}
	if cursor := s.View().Cursor; cursor.BookID != 2 || cursor.QuestionIndex != 0 {
		t.Fatalf("cursor = %+v", cursor)
	}
	if err := s.SelectBook(context.Background(), 3); !errors.Is(err, ErrUnknownBook) {
		t.Fatalf("unknown book error = %v", err)
	}
}

// TestStaleResponseIsDiscarded checks last-request-wins rendering.
func TestStaleResponseIsDiscarded(t *testing.T) {
	f := newFakeFetcher(map[int]int{1: 5, 2: 5})
	s := newTestSession(f)
	s.mu.Lock()
	s.view.BookIDs = []int{1, 2}
	s.initialized = true
	s.mu.Unlock()

	release := f.gate(1, 0)
	done := make(chan error, 1)
	go func() { done <- s.SelectBook(context.Background(), 1) }()

	deadline := time.Now().Add(2 * time.Second)
	for f.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.SelectBook(context.Background(), 2); err != nil {
		t.Fatalf("SelectBook(2): %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stale SelectBook: %v", err)
	}

	view := s.View()
	if view.ActiveBookID != 2 || view.Cursor.BookID != 2 {
		t.Fatalf("stale response overwrote state: %+v", view.Cursor)
	}
	if view.Pair == nil || view.Pair.AfterPath != pathFor(2, 0, "after") {
		t.Fatalf("pair = %+v", view.Pair)
	}
}

// TestLoadFailureDisablesNavigation checks the load_failed transition.
func TestLoadFailureDisablesNavigation(t *testing.T) {
	f := newFakeFetcher(nil)
	f.previewFn = func(domain.BookID, int) (api.PreviewResponse, error) {
		return api.PreviewResponse{}, &api.HTTPError{StatusCode: 500}
	}
	s := newTestSession(f)

	if err := s.Init(context.Background(), []int{1}); err == nil {
		t.Fatal("expected fetch error")
	}
	view := s.View()
	if view.Status != StatusLoadFailed || view.PrevEnabled || view.NextEnabled {
		t.Fatalf("view = %+v", view)
	}
	if view.Info != "Hata: "+api.MessageServerError {
		t.Fatalf("info = %q", view.Info)
	}
	if accepted, _ := s.Navigate(context.Background(), DirectionNext); accepted {
		t.Fatal("failed session must not navigate")
	}
}

// TestFaultReportFlow checks confirmation, optimistic marking, and idempotence.
func TestFaultReportFlow(t *testing.T) {
	f := newFakeFetcher(map[int]int{3: 2})
	s := newTestSession(f)
	if err := s.Init(context.Background(), []int{3}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := s.ConfirmFaultReport(context.Background()); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("unconfirmed submit error = %v", err)
	}
	if err := s.RequestFaultReport(); err != nil {
		t.Fatalf("RequestFaultReport: %v", err)
	}
	if !s.View().ConfirmOpen {
		t.Fatal("expected confirmation step")
	}
	if err := s.ConfirmFaultReport(context.Background()); err != nil {
		t.Fatalf("ConfirmFaultReport: %v", err)
	}

	view := s.View()
	if !view.Pair.IsMarkedFaulty || view.ReportEnabled || view.ReportLabel != reportedLabel {
		t.Fatalf("view = %+v", view)
	}
	if len(f.reports) != 1 || f.reports[0].AfterPath != pathFor(3, 0, "after") {
		t.Fatalf("reports = %+v", f.reports)
	}

	if err := s.RequestFaultReport(); err != nil {
		t.Fatalf("second RequestFaultReport: %v", err)
	}
	if s.View().ConfirmOpen {
		t.Fatal("already reported pair must not open confirmation")
	}
	if len(f.reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(f.reports))
	}
}

// TestFaultReportFailureKeepsButton checks retry remains possible.
func TestFaultReportFailureKeepsButton(t *testing.T) {
	f := newFakeFetcher(map[int]int{3: 2})
	f.reportErr = &api.HTTPError{StatusCode: 403}
	s := newTestSession(f)
	if err := s.Init(context.Background(), []int{3}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := s.RequestFaultReport(); err != nil {
		t.Fatalf("RequestFaultReport: %v", err)
	}
	if err := s.ConfirmFaultReport(context.Background()); err == nil {
		t.Fatal("expected report error")
	}
	view := s.View()
	if !view.ReportEnabled || view.Pair.IsMarkedFaulty {
		t.Fatalf("view = %+v", view)
	}
	if view.Notification != "Hata bildirimi sırasında bir sorun oluştu: "+api.MessageForbidden {
		t.Fatalf("notification = %q", view.Notification)
	}
}

// TestFaultReportWithoutPair checks the missing-paths guard.
func TestFaultReportWithoutPair(t *testing.T) {
	s := newTestSession(newFakeFetcher(nil))
	if err := s.RequestFaultReport(); !errors.Is(err, ErrNoActivePair) {
		t.Fatalf("error = %v, want %v", err, ErrNoActivePair)
	}
	if s.View().Notification != missingPathsMessage {
		t.Fatalf("notification = %q", s.View().Notification)
	}
}

// TestAlreadyFaultyPairFromServer checks the "already reported" state on load.
func TestAlreadyFaultyPairFromServer(t *testing.T) {
	f := newFakeFetcher(map[int]int{4: 1})
	f.faulty[pathFor(4, 0, "after")] = true
	s := newTestSession(f)
	if err := s.Init(context.Background(), []int{4}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	view := s.View()
	if view.ReportEnabled || view.ReportLabel != alreadyReported {
		t.Fatalf("view = %+v", view)
	}
}

// TestOpenProcessedDir checks display-path derivation and shell delegation.
func TestOpenProcessedDir(t *testing.T) {
	f := newFakeFetcher(map[int]int{1: 1})
	opener := &fakeOpener{}
	s := New("preview-1", f, opener, Options{ShareRoot: `\\srv\share`, Separator: `\`})

	if err := s.OpenProcessedDir(); !errors.Is(err, ErrNoDisplayDir) {
		t.Fatalf("error = %v, want %v", err, ErrNoDisplayDir)
	}
	if err := s.Init(context.Background(), []int{1}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.OpenProcessedDir(); err != nil {
		t.Fatalf("OpenProcessedDir: %v", err)
	}
	if len(opener.opened) != 1 || opener.opened[0] != `\\srv\share\sorular\after\b` {
		t.Fatalf("opened = %v", opener.opened)
	}
}

// TestDisplayDir checks separator substitution, prefixing, and truncation.
func TestDisplayDir(t *testing.T) {
	cases := []struct {
		path, root, sep, want string
	}{
		{"a/b/c.png", `\\srv\share`, `\`, `\\srv\share\a\b`},
		{"/a/b/c.png", `\\srv\share\`, `\`, `\\srv\share\a\b`},
		{"a/b/c.png", "/mnt/nas", "/", "/mnt/nas/a/b"},
		{"a/b/c.png", "", "/", "a/b"},
		{"c.png", "/mnt", "/", "/mnt/"},
		{"", "/mnt", "/", ""},
	}
	for _, tc := range cases {
		if got := DisplayDir(tc.path, tc.root, tc.sep); got != tc.want {
			t.Errorf("DisplayDir(%q, %q, %q) = %q, want %q", tc.path, tc.root, tc.sep, got, tc.want)
		}
	}
}

// TestHandleMessageInitData checks init-data starts the session.
func TestHandleMessageInitData(t *testing.T) {
	f := newFakeFetcher(map[int]int{8: 1})
	s := newTestSession(f)
	s.HandleMessage(ipc.InitData("preview-1", []int{8}))

	deadline := time.Now().Add(2 * time.Second)
	for s.View().Status != StatusLoaded {
		if time.Now().After(deadline) {
			t.Fatalf("status = %s, want loaded", s.View().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
