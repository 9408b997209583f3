package shell

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"deepcut-desktop/internal/ipc"
)

// ErrUnknownWindow is returned for lifecycle calls on windows the shell did not open.
var ErrUnknownWindow = errors.New("unknown window")

// WindowKind names what a window shows.
type WindowKind string

const (
	WindowKindMain     WindowKind = "main"
	WindowKindPreview  WindowKind = "preview"
	WindowKindSelector WindowKind = "selector"
)

// WindowConfig describes a window for the host to create.
type WindowConfig struct {
	ID     ipc.WindowID `json:"id"`
	Kind   WindowKind   `json:"kind"`
	Title  string       `json:"title"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Parent ipc.WindowID `json:"parent,omitempty"`
	Modal  bool         `json:"modal"`
}

// Host performs the actual window creation on the desktop runtime.
type Host interface {
	CreateWindow(cfg WindowConfig) error
	CloseWindow(id ipc.WindowID) error
}

// LogSaver persists processing logs and returns the resolved path.
type LogSaver interface {
	Save(filename, content string) (string, error)
}

// Factories build the controller behind a new window and return its listener.
type Factories struct {
	Preview  func(id ipc.WindowID) ipc.Listener
	Selector func(id ipc.WindowID) ipc.Listener
}

// window tracks one open window and the payload it receives once ready.
type window struct {
	cfg     WindowConfig
	ready   bool
	pending *ipc.Message
}

// Shell is the desktop process side of the inter-window channel: it opens
// and closes windows, hands them their initial payload once they are ready,
// forwards selections, and persists logs.
type Shell struct {
	bus       *ipc.Bus
	host      Host
	logs      LogSaver
	factories Factories
	newID     func(kind WindowKind) ipc.WindowID
	logger    *slog.Logger

	mu      sync.Mutex
	windows map[ipc.WindowID]*window
}

// New creates the shell and registers it on bus under ipc.ShellWindow.
func New(bus *ipc.Bus, host Host, logs LogSaver, factories Factories) *Shell {
	s := &Shell{
		bus:       bus,
		host:      host,
		logs:      logs,
		factories: factories,
		newID: func(kind WindowKind) ipc.WindowID {
			return ipc.WindowID(string(kind) + "-" + uuid.NewString())
		},
		logger:  slog.Default().With("component", "shell"),
		windows: make(map[ipc.WindowID]*window),
	}
	bus.Register(ipc.ShellWindow, s.HandleMessage)
	return s
}

// SetLogSaver swaps the log persistence backend, e.g. after settings change.
func (s *Shell) SetLogSaver(logs LogSaver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = logs
}

// RegisterWindow adopts a window the host created on its own, such as the main window.
func (s *Shell) RegisterWindow(cfg WindowConfig, listener ipc.Listener) {
	s.mu.Lock()
	s.windows[cfg.ID] = &window{cfg: cfg, ready: true}
	s.mu.Unlock()
	s.bus.Register(cfg.ID, listener)
}

// Windows lists open windows ordered by ID.
func (s *Shell) Windows() []WindowConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WindowConfig, 0, len(s.windows))
	for _, w := range s.windows {
		out = append(out, w.cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Window returns the configuration of one open window.
func (s *Shell) Window(id ipc.WindowID) (WindowConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok {
		return WindowConfig{}, false
	}
	return w.cfg, true
}

// HandleMessage is the shell's channel listener.
func (s *Shell) HandleMessage(msg ipc.Message) {
	var err error
	switch msg.Kind {
	case ipc.KindOpenPreviewWindow:
		_, err = s.openPreview(msg)
	case ipc.KindOpenSelectorWindow:
		_, err = s.openSelector(msg)
	case ipc.KindSelectionComplete:
		err = s.completeSelection(msg)
	case ipc.KindSaveLogFile:
		err = s.saveLog(msg)
	default:
		s.logger.Debug("ignoring message", "kind", msg.Kind, "from", msg.From)
		return
	}
	if err != nil {
		s.logger.Error("handle message", "kind", msg.Kind, "from", msg.From, "err", err)
	}
}

// WindowReady marks a window's content as loaded and delivers its pending
// payload. Later calls deliver nothing.
func (s *Shell) WindowReady(id ipc.WindowID) error {
	s.mu.Lock()
	w, ok := s.windows[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownWindow, id)
	}
	if w.ready {
		s.mu.Unlock()
		return nil
	}
	w.ready = true
	pending := w.pending
	w.pending = nil
	s.mu.Unlock()

	if pending == nil {
		return nil
	}
	if _, err := s.bus.Send(*pending); err != nil {
		return fmt.Errorf("deliver %s: %w", pending.Kind, err)
	}
	return nil
}

// WindowClosed forgets a window closed by the user or the host.
func (s *Shell) WindowClosed(id ipc.WindowID) {
	s.mu.Lock()
	delete(s.windows, id)
	s.mu.Unlock()
	s.bus.Unregister(id)
	s.logger.Info("window closed", "window", id)
}

func (s *Shell) openPreview(msg ipc.Message) (ipc.WindowID, error) {
	id := s.newID(WindowKindPreview)
	init := ipc.InitData(id, msg.BookIDs)
	cfg := WindowConfig{
		ID:     id,
		Kind:   WindowKindPreview,
		Title:  "Önizleme - Kitap ve Soru Görüntüleme",
		Width:  1200,
		Height: 800,
	}
	return id, s.open(cfg, s.factories.Preview, &init)
}

func (s *Shell) openSelector(msg ipc.Message) (ipc.WindowID, error) {
	if msg.Filter == nil {
		return "", fmt.Errorf("selector request from %s carries no filter", msg.From)
	}
	id := s.newID(WindowKindSelector)
	filters := ipc.FiltersData(id, *msg.Filter)
	cfg := WindowConfig{
		ID:     id,
		Kind:   WindowKindSelector,
		Title:  "Kitap Seç",
		Width:  400,
		Height: 500,
		Parent: msg.From,
		Modal:  true,
	}
	return id, s.open(cfg, s.factories.Selector, &filters)
}

func (s *Shell) open(cfg WindowConfig, factory func(ipc.WindowID) ipc.Listener, pending *ipc.Message) error {
	var listener ipc.Listener
	if factory != nil {
		listener = factory(cfg.ID)
	}

	s.mu.Lock()
	s.windows[cfg.ID] = &window{cfg: cfg, pending: pending}
	s.mu.Unlock()
	s.bus.Register(cfg.ID, listener)

	if err := s.host.CreateWindow(cfg); err != nil {
		s.WindowClosed(cfg.ID)
		return fmt.Errorf("create %s window: %w", cfg.Kind, err)
	}
	s.logger.Info("window opened", "window", cfg.ID, "kind", cfg.Kind, "parent", cfg.Parent)
	return nil
}

func (s *Shell) completeSelection(msg ipc.Message) error {
	s.mu.Lock()
	w, ok := s.windows[msg.From]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, msg.From)
	}

	parent := w.cfg.Parent
	if parent == "" {
		return fmt.Errorf("selector %s has no parent window", msg.From)
	}
	if _, err := s.bus.Send(ipc.UpdateBookIDs(parent, msg.BookIDs)); err != nil {
		return fmt.Errorf("forward selection: %w", err)
	}

	if err := s.host.CloseWindow(msg.From); err != nil {
		s.logger.Warn("close selector window", "window", msg.From, "err", err)
	}
	s.WindowClosed(msg.From)
	return nil
}

func (s *Shell) saveLog(msg ipc.Message) error {
	s.mu.Lock()
	logs := s.logs
	s.mu.Unlock()

	path, err := logs.Save(msg.Filename, msg.Content)
	if err != nil {
		return fmt.Errorf("save log file: %w", err)
	}
	s.logger.Info("log file saved", "path", path, "from", msg.From)

	if _, err := s.bus.Send(ipc.LogFileSaved(msg.From, path)); err != nil {
		return fmt.Errorf("reply log-file-saved: %w", err)
	}
	return nil
}
