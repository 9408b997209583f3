package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"deepcut-desktop/internal/api"
	"deepcut-desktop/internal/domain"
	"deepcut-desktop/internal/ipc"
)

// ErrSubmissionInProgress is returned when a processing call is already running.
var ErrSubmissionInProgress = errors.New("processing request already in progress")

const lockedMessage = "İşlem başlatıldı. Bu işlem kitap/kurum sayısına göre uzun sürebilir. Lütfen bekleyin ve uygulamayı kapatmayın..."

// Processor dispatches a validated processing request.
type Processor interface {
	Process(ctx context.Context, req domain.ProcessingRequest) (domain.ProcessingResult, error)
}

// View is the main window's view model.
type View struct {
	BookIDsText      string          `json:"bookIdsText"`
	OrgIDsText       string          `json:"orgIdsText"`
	Locked           bool            `json:"locked"`
	ResultsText      string          `json:"resultsText"`
	Notification     string          `json:"notification,omitempty"`
	LastLogPath      string          `json:"lastLogPath,omitempty"`
	ProcessedBookIDs []domain.BookID `json:"processedBookIds"`
}

// Orchestrator is the main window controller: it validates the form,
// dispatches processing runs, and launches the preview and selector windows.
type Orchestrator struct {
	id        ipc.WindowID
	processor Processor
	sender    ipc.Sender
	now       func() time.Time
	location  *time.Location
	logger    *slog.Logger

	mu          sync.Mutex
	view        View
	lastLogSize int
	onChange    func(View)
}

// New creates the controller for window id.
func New(id ipc.WindowID, processor Processor, sender ipc.Sender) *Orchestrator {
	return &Orchestrator{
		id:        id,
		processor: processor,
		sender:    sender,
		now:       time.Now,
		location:  time.Local,
		logger:    slog.Default().With("component", "orchestrator", "window", string(id)),
	}
}

// ID returns the window this controller drives.
func (o *Orchestrator) ID() ipc.WindowID {
	return o.id
}

// SetOnChange registers the view listener. It runs outside the controller lock.
func (o *Orchestrator) SetOnChange(fn func(View)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

// View returns a snapshot of the view model.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

// SubmitProcessing validates in, runs the matching processing request, and
// renders the result. Inputs stay locked until the call returns.
func (o *Orchestrator) SubmitProcessing(ctx context.Context, in Input) (domain.ProcessingResult, error) {
	req, err := BuildRequest(in)
	if err != nil {
		o.update(func(v *View) {
			v.BookIDsText, v.OrgIDsText = in.BookIDsText, in.OrgIDsText
			v.ResultsText = api.Describe(err)
			v.Notification = v.ResultsText
		})
		return domain.ProcessingResult{}, err
	}

	processor, err := o.lock(in)
	if err != nil {
		return domain.ProcessingResult{}, err
	}
	defer o.update(func(v *View) { v.Locked = false })

	result, err := processor.Process(ctx, req)
	if err != nil {
		message := api.Describe(err)
		o.logger.Warn("processing failed", "err", err)
		o.update(func(v *View) {
			v.ResultsText = "Bir hata oluştu: " + message
			v.Notification = message
		})
		return domain.ProcessingResult{}, fmt.Errorf("process: %w", err)
	}

	organizationRun := req.ByOrganizations != nil
	content := RenderLog(result, organizationRun, o.location)
	o.update(func(v *View) {
		v.ResultsText = content
		v.Notification = ""
		if organizationRun {
			v.ProcessedBookIDs = nil
		} else {
			v.ProcessedBookIDs = append([]domain.BookID(nil), req.ByBooks.BookIDs...)
		}
	})

	o.mu.Lock()
	o.lastLogSize = len(content)
	o.mu.Unlock()
	if _, err := o.sender.Send(ipc.SaveLogFile(o.id, LogFilename(o.now()), content)); err != nil {
		o.logger.Error("request log save", "err", err)
	}
	return result, nil
}

// RequestPreviewWindow asks the shell to open a review window over the
// parsed book IDs.
func (o *Orchestrator) RequestPreviewWindow(bookIDsText string) ([]domain.BookID, error) {
	ids, err := ParsePreviewIDs(bookIDsText)
	if err != nil {
		o.showError(err)
		return nil, err
	}
	if _, err := o.sender.Send(ipc.OpenPreviewWindow(o.id, ids)); err != nil {
		return nil, fmt.Errorf("open preview window: %w", err)
	}
	return ids, nil
}

// RequestSelectorWindow asks the shell to open the book selector for the
// given organization filter.
func (o *Orchestrator) RequestSelectorWindow(orgIDsText, startDate, endDate string) (domain.SelectionFilter, error) {
	filter, err := BuildSelectionFilter(orgIDsText, startDate, endDate)
	if err != nil {
		o.showError(err)
		return domain.SelectionFilter{}, err
	}
	if _, err := o.sender.Send(ipc.OpenSelectorWindow(o.id, filter)); err != nil {
		return domain.SelectionFilter{}, fmt.Errorf("open selector window: %w", err)
	}
	return filter, nil
}

// HandleMessage is the window's channel listener.
func (o *Orchestrator) HandleMessage(msg ipc.Message) {
	switch msg.Kind {
	case ipc.KindUpdateBookIDs:
		o.OnSelectionComplete(msg.BookIDs)
	case ipc.KindLogFileSaved:
		o.OnLogFileSaved(msg.Path)
	default:
		o.logger.Debug("ignoring message", "kind", msg.Kind)
	}
}

// OnSelectionComplete replaces the book-ID field with the confirmed selection
// and clears the organization field.
func (o *Orchestrator) OnSelectionComplete(ids []domain.BookID) {
	o.update(func(v *View) {
		v.BookIDsText = FormatIDs(ids)
		v.OrgIDsText = ""
		v.ResultsText = fmt.Sprintf("%d adet kitap ID'si seçildi ve alana yazıldı.", len(ids))
	})
}

// OnLogFileSaved appends the saved artifact path to the on-screen log.
func (o *Orchestrator) OnLogFileSaved(path string) {
	o.update(func(v *View) {
		v.LastLogPath = path
		v.ResultsText += fmt.Sprintf("\n\n--- Loglar başarıyla kaydedildi ---\nDosya Yolu: %s (%s)", path, humanize.Bytes(uint64(o.lastLogSize)))
	})
}

// lock marks the form busy, or fails when a run is already in flight.
func (o *Orchestrator) lock(in Input) (Processor, error) {
	o.mu.Lock()
	if o.view.Locked {
		o.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	o.view.Locked = true
	o.view.BookIDsText, o.view.OrgIDsText = in.BookIDsText, in.OrgIDsText
	o.view.ResultsText = lockedMessage
	o.view.Notification = ""
	processor := o.processor
	view, onChange := o.snapshot(), o.onChange
	o.mu.Unlock()

	if onChange != nil {
		onChange(view)
	}
	return processor, nil
}

func (o *Orchestrator) showError(err error) {
	o.update(func(v *View) {
		v.ResultsText = api.Describe(err)
		v.Notification = v.ResultsText
	})
}

// update applies fn under the lock and publishes the new view outside it.
func (o *Orchestrator) update(fn func(v *View)) {
	o.mu.Lock()
	fn(&o.view)
	view, onChange := o.snapshot(), o.onChange
	o.mu.Unlock()

	if onChange != nil {
		onChange(view)
	}
}

func (o *Orchestrator) snapshot() View {
	view := o.view
	view.ProcessedBookIDs = append([]domain.BookID(nil), o.view.ProcessedBookIDs...)
	return view
}
