package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"deepcut-desktop/internal/api"
	"deepcut-desktop/internal/domain"
	"deepcut-desktop/internal/ipc"
)

// Direction selects the neighbouring question.
type Direction string

const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
)

const (
	chooseBookMessage   = "Lütfen bir kitap seçin"
	loadingMessage      = "Yükleniyor..."
	reportLabel         = "⚠️ Hata Bildir"
	reportedLabel       = "✓ Bildirildi"
	alreadyReported     = "✓ Zaten Bildirilmiş"
	missingPathsMessage = "Hata: Resim bilgileri bulunamadı."
	reportSentMessage   = "Hata bildirimi başarıyla gönderildi."
)

var (
	// ErrAlreadyInitialized is returned when init-data arrives a second time.
	ErrAlreadyInitialized = errors.New("review session already initialized")
	// ErrUnknownBook is returned when selecting a book outside the session's list.
	ErrUnknownBook = errors.New("book is not part of this session")
	// ErrNoActivePair is returned when a fault report has no captured paths.
	ErrNoActivePair = errors.New("no active question pair")
	// ErrNotConfirmed is returned when a report is submitted without the confirmation step.
	ErrNotConfirmed = errors.New("fault report not confirmed")
	// ErrNoDisplayDir is returned when no processed directory is known.
	ErrNoDisplayDir = errors.New("no processed directory to open")
)

// Fetcher is the slice of the remote API the review window uses.
type Fetcher interface {
	Preview(ctx context.Context, bookID domain.BookID, index int) (api.PreviewResponse, error)
	ReportFault(ctx context.Context, report domain.FaultReport) error
}

// DirectoryOpener asks the desktop shell to show a directory.
type DirectoryOpener interface {
	OpenDirectory(path string) error
}

// View is the review window's view model.
type View struct {
	Status        Status               `json:"status"`
	BookIDs       []domain.BookID      `json:"bookIds"`
	ActiveBookID  domain.BookID        `json:"activeBookId"`
	HasActiveBook bool                 `json:"hasActiveBook"`
	Cursor        domain.ReviewCursor  `json:"cursor"`
	Pair          *domain.QuestionPair `json:"pair,omitempty"`
	Info          string               `json:"info"`
	PrevEnabled   bool                 `json:"prevEnabled"`
	NextEnabled   bool                 `json:"nextEnabled"`
	ReportEnabled bool                 `json:"reportEnabled"`
	ReportLabel   string               `json:"reportLabel"`
	ConfirmOpen   bool                 `json:"confirmOpen"`
	DisplayDir    string               `json:"displayDir,omitempty"`
	Notification  string               `json:"notification,omitempty"`
}

// target identifies the one fetch whose response may still be rendered.
type target struct {
	tag    uint64
	bookID domain.BookID
	index  int
}

// Session is the review window controller. It owns the cursor and the
// displayed pair; every fetch replaces both, and only the latest request's
// response is rendered.
type Session struct {
	id        ipc.WindowID
	fetcher   Fetcher
	opener    DirectoryOpener
	shareRoot string
	separator string
	logger    *slog.Logger

	mu          sync.Mutex
	view        View
	initialized bool
	nextTag     uint64
	pending     target
	reporting   bool
	onChange    func(View)
}

// Options configures display-path derivation.
type Options struct {
	ShareRoot string
	Separator string
}

// New creates an idle session for window id.
func New(id ipc.WindowID, fetcher Fetcher, opener DirectoryOpener, opts Options) *Session {
	return &Session{
		id:        id,
		fetcher:   fetcher,
		opener:    opener,
		shareRoot: opts.ShareRoot,
		separator: opts.Separator,
		logger:    slog.Default().With("component", "review", "window", string(id)),
		view: View{
			Status:      StatusIdle,
			BookIDs:     []domain.BookID{},
			Info:        chooseBookMessage,
			ReportLabel: reportLabel,
		},
	}
}

// ID returns the window this session drives.
func (s *Session) ID() ipc.WindowID {
	return s.id
}

// SetOnChange registers the view listener. It runs outside the session lock.
func (s *Session) SetOnChange(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// View returns a snapshot of the view model.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// HandleMessage is the window's channel listener. The first fetch runs on its
// own goroutine so the shell is not blocked by the network call.
func (s *Session) HandleMessage(msg ipc.Message) {
	if msg.Kind != ipc.KindInitData {
		return
	}
	go func() {
		if err := s.Init(context.Background(), msg.BookIDs); err != nil && !errors.Is(err, ErrAlreadyInitialized) {
			s.logger.Warn("initial fetch failed", "err", err)
		}
	}()
}

// Init shows ids and loads the first question of the first book.
// An empty list leaves the session idle.
func (s *Session) Init(ctx context.Context, ids []domain.BookID) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initialized = true
	s.view.BookIDs = append([]domain.BookID{}, ids...)
	s.mu.Unlock()
	s.publish()

	if len(ids) == 0 {
		return nil
	}
	return s.SelectBook(ctx, ids[0])
}

// SelectBook makes id the active book and fetches its first question. It may
// be called while another fetch is in flight; that fetch's response is discarded.
func (s *Session) SelectBook(ctx context.Context, id domain.BookID) error {
	s.mu.Lock()
	if !slices.Contains(s.view.BookIDs, id) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownBook, id)
	}
	s.view.ActiveBookID = id
	s.view.HasActiveBook = true
	s.view.Cursor = domain.ReviewCursor{BookID: id}
	t, err := s.beginFetchLocked(id, 0)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish()

	return s.fetch(ctx, t)
}

// Navigate moves to the neighbouring question. It reports false without
// fetching when the move is out of bounds or the controls are inactive.
func (s *Session) Navigate(ctx context.Context, dir Direction) (bool, error) {
	s.mu.Lock()
	if !s.view.HasActiveBook || !canNavigate(s.view.Status) {
		s.mu.Unlock()
		return false, nil
	}

	cursor := s.view.Cursor
	next := cursor.QuestionIndex
	switch dir {
	case DirectionPrevious:
		if cursor.QuestionIndex <= 0 || (s.view.Status == StatusLoaded && !s.view.PrevEnabled) {
			s.mu.Unlock()
			return false, nil
		}
		next--
	case DirectionNext:
		if cursor.QuestionIndex >= cursor.TotalQuestions-1 || (s.view.Status == StatusLoaded && !s.view.NextEnabled) {
			s.mu.Unlock()
			return false, nil
		}
		next++
	default:
		s.mu.Unlock()
		return false, fmt.Errorf("unknown direction %q", dir)
	}

	t, err := s.beginFetchLocked(s.view.ActiveBookID, next)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	s.publish()

	return true, s.fetch(ctx, t)
}

// RequestFaultReport opens the confirmation step for the displayed pair.
func (s *Session) RequestFaultReport() error {
	s.mu.Lock()
	pair := s.view.Pair
	switch {
	case pair == nil || pair.BeforePath == "" || pair.AfterPath == "":
		s.view.Notification = missingPathsMessage
		s.mu.Unlock()
		s.publish()
		return ErrNoActivePair
	case pair.IsMarkedFaulty || s.reporting:
		s.mu.Unlock()
		return nil
	}
	s.view.ConfirmOpen = true
	s.mu.Unlock()
	s.publish()
	return nil
}

// CancelFaultReport closes the confirmation step without reporting.
func (s *Session) CancelFaultReport() {
	s.mu.Lock()
	s.view.ConfirmOpen = false
	s.mu.Unlock()
	s.publish()
}

// ConfirmFaultReport submits the paths captured with the displayed pair.
// A pair already marked faulty is not reported again.
func (s *Session) ConfirmFaultReport(ctx context.Context) error {
	s.mu.Lock()
	if !s.view.ConfirmOpen {
		s.mu.Unlock()
		return ErrNotConfirmed
	}
	s.view.ConfirmOpen = false
	pair := s.view.Pair
	if pair == nil || pair.BeforePath == "" || pair.AfterPath == "" {
		s.view.Notification = missingPathsMessage
		s.mu.Unlock()
		s.publish()
		return ErrNoActivePair
	}
	if pair.IsMarkedFaulty || s.reporting {
		s.mu.Unlock()
		s.publish()
		return nil
	}
	report := domain.FaultReport{BeforePath: pair.BeforePath, AfterPath: pair.AfterPath}
	s.reporting = true
	s.mu.Unlock()
	s.publish()

	err := s.fetcher.ReportFault(ctx, report)

	s.mu.Lock()
	s.reporting = false
	if err != nil {
		s.view.Notification = "Hata bildirimi sırasında bir sorun oluştu: " + api.Describe(err)
		s.mu.Unlock()
		s.publish()
		return fmt.Errorf("report fault: %w", err)
	}
	// Advisory client cache: the server's is_marked_as_faulty wins on the next fetch.
	if current := s.view.Pair; current != nil && current.BeforePath == report.BeforePath && current.AfterPath == report.AfterPath {
		current.IsMarkedFaulty = true
		s.view.ReportEnabled = false
		s.view.ReportLabel = reportedLabel
	}
	s.view.Notification = reportSentMessage
	s.mu.Unlock()
	s.publish()
	return nil
}

// OpenProcessedDir asks the shell to open the displayed pair's processed directory.
func (s *Session) OpenProcessedDir() error {
	s.mu.Lock()
	dir := s.view.DisplayDir
	s.mu.Unlock()
	if dir == "" {
		return ErrNoDisplayDir
	}
	if s.opener == nil {
		return fmt.Errorf("directory opener is not configured")
	}
	return s.opener.OpenDirectory(dir)
}

// beginFetchLocked moves to loading, clears the displayed pair, and issues a new tag.
func (s *Session) beginFetchLocked(bookID domain.BookID, index int) (target, error) {
	status, err := transition(s.view.Status, StatusLoading)
	if err != nil {
		return target{}, err
	}
	s.nextTag++
	s.pending = target{tag: s.nextTag, bookID: bookID, index: index}

	s.view.Status = status
	s.view.Pair = nil
	s.view.DisplayDir = ""
	s.view.Info = loadingMessage
	s.view.PrevEnabled = false
	s.view.NextEnabled = false
	s.view.ReportEnabled = false
	s.view.ConfirmOpen = false
	s.view.Notification = ""
	return s.pending, nil
}

// fetch loads t and renders the response unless a newer request superseded it.
func (s *Session) fetch(ctx context.Context, t target) error {
	resp, err := s.fetcher.Preview(ctx, t.bookID, t.index)

	s.mu.Lock()
	if s.pending != t {
		s.mu.Unlock()
		s.logger.Debug("discarding stale preview", "book_id", t.bookID, "index", t.index, "tag", t.tag)
		return nil
	}

	if err != nil {
		s.view.Status, _ = transition(s.view.Status, StatusLoadFailed)
		s.view.Info = "Hata: " + api.Describe(err)
		s.view.Notification = s.view.Info
		s.mu.Unlock()
		s.publish()
		return fmt.Errorf("preview book %d index %d: %w", t.bookID, t.index, err)
	}

	pair := resp.Pair()
	s.view.Status, _ = transition(s.view.Status, StatusLoaded)
	s.view.Cursor = domain.ReviewCursor{
		BookID:         t.bookID,
		QuestionIndex:  resp.CurrentIndex,
		TotalQuestions: resp.TotalCount,
	}
	s.view.Pair = &pair
	s.view.Info = fmt.Sprintf("Soru: %d / %d (Kitap ID: %d)", resp.CurrentIndex+1, resp.TotalCount, resp.Metadata.KitapID)
	s.view.PrevEnabled = pair.HasPrevious
	s.view.NextEnabled = pair.HasNext
	s.view.ReportEnabled = !pair.IsMarkedFaulty
	s.view.ReportLabel = reportLabel
	if pair.IsMarkedFaulty {
		s.view.ReportLabel = alreadyReported
	}
	s.view.DisplayDir = DisplayDir(pair.AfterPath, s.shareRoot, s.separator)
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Session) publish() {
	s.mu.Lock()
	view, onChange := s.snapshot(), s.onChange
	s.mu.Unlock()
	if onChange != nil {
		onChange(view)
	}
}

func (s *Session) snapshot() View {
	view := s.view
	view.BookIDs = append([]domain.BookID{}, s.view.BookIDs...)
	if s.view.Pair != nil {
		pair := *s.view.Pair
		view.Pair = &pair
	}
	return view
}
