package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"deepcut-desktop/internal/api"
	"deepcut-desktop/internal/artifact"
	"deepcut-desktop/internal/config"
	"deepcut-desktop/internal/diagnostics"
	"deepcut-desktop/internal/domain"
	"deepcut-desktop/internal/ipc"
	"deepcut-desktop/internal/orchestrator"
	"deepcut-desktop/internal/review"
	"deepcut-desktop/internal/selector"
	"deepcut-desktop/internal/shell"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// MainWindow is the ID of the window Wails opens at startup.
const MainWindow ipc.WindowID = "main"

// Event names pushed to the frontend.
const (
	EventWindowOpen  = "window:open"
	EventWindowClose = "window:close"
	EventView        = "window:view"
)

var (
	// ErrUnknownReviewWindow is returned for review calls on a window that is not open.
	ErrUnknownReviewWindow = errors.New("unknown review window")
	// ErrUnknownSelectorWindow is returned for selector calls on a window that is not open.
	ErrUnknownSelectorWindow = errors.New("unknown selector window")
)

// ViewEvent carries one window's refreshed view model.
type ViewEvent struct {
	Window ipc.WindowID `json:"window"`
	View   any          `json:"view"`
}

// App wires configuration, the inter-window channel, window controllers,
// and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Diagnostics domain.DiagnosticReport
	Main        *orchestrator.Orchestrator
	Bus         *ipc.Bus
	Shell       *shell.Shell

	assets    fs.FS
	checker   *diagnostics.Checker
	remote    *remote
	newClient func(baseURL string) remoteAPI
	openPath  func(path string) error
	logger    *slog.Logger

	mu         sync.Mutex
	reviews    map[ipc.WindowID]*review.Session
	selectors  map[ipc.WindowID]*selector.Coordinator
	runtimeCtx context.Context
	emitter    func(name string, payload any)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	config.LoadDotEnv()
	store := config.NewJSONStore(config.DefaultSettingsPath(homeDir))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(config.ApplyEnv(settings))

	a := newApp(store, settings, diagnostics.NewChecker(), func(baseURL string) remoteAPI {
		return api.NewClient(baseURL)
	})
	a.assets = assets
	a.Diagnostics = a.checker.Run(settings)
	return a, nil
}

// newApp assembles the bus, shell, and main window controller.
func newApp(store config.Store, settings domain.Settings, checker *diagnostics.Checker, newClient func(string) remoteAPI) *App {
	a := &App{
		Settings:  settings,
		Store:     store,
		Bus:       ipc.NewBus(200),
		checker:   checker,
		newClient: newClient,
		remote:    newRemote(newClient(settings.APIBaseURL)),
		openPath:  openInFileManager,
		logger:    slog.Default().With("component", "app"),
		reviews:   make(map[ipc.WindowID]*review.Session),
		selectors: make(map[ipc.WindowID]*selector.Coordinator),
	}

	a.Shell = shell.New(a.Bus, &wailsHost{app: a}, artifact.NewWriter(settings.LogDir), shell.Factories{
		Preview:  a.newReviewWindow,
		Selector: a.newSelectorWindow,
	})

	a.Main = orchestrator.New(MainWindow, a.remote, a.Bus)
	a.Main.SetOnChange(func(v orchestrator.View) { a.emitView(MainWindow, v) })
	a.Shell.RegisterWindow(shell.WindowConfig{
		ID:     MainWindow,
		Kind:   shell.WindowKindMain,
		Title:  "DeepCut Masaüstü",
		Width:  1180,
		Height: 780,
	}, a.Main.HandleMessage)
	return a
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "DeepCut Masaüstü",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.loadSettings()
	if err != nil {
		return domain.Settings{}, err
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes the client,
// log writer, and diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.applySettings(normalized)
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns startup checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.loadSettings()
	if err != nil {
		return domain.DiagnosticReport{}, err
	}
	return a.applySettings(settings), nil
}

// MainView returns the main window's view model.
func (a *App) MainView() orchestrator.View {
	return a.Main.View()
}

// SubmitProcessing validates the form and runs one batch against the service.
func (a *App) SubmitProcessing(in orchestrator.Input) (orchestrator.View, error) {
	_, err := a.Main.SubmitProcessing(context.Background(), in)
	return a.Main.View(), err
}

// OpenPreviewWindow opens a review window over the book IDs typed in the main window.
func (a *App) OpenPreviewWindow(bookIDsText string) error {
	_, err := a.Main.RequestPreviewWindow(bookIDsText)
	return err
}

// OpenSelectorWindow opens the modal book selector for an organization filter.
func (a *App) OpenSelectorWindow(orgIDsText, startDate, endDate string) error {
	_, err := a.Main.RequestSelectorWindow(orgIDsText, startDate, endDate)
	return err
}

// WindowReady is called by a window once its content has loaded.
func (a *App) WindowReady(id string) error {
	return a.Shell.WindowReady(ipc.WindowID(id))
}

// WindowClosed is called when the user closes a child window.
func (a *App) WindowClosed(id string) {
	windowID := ipc.WindowID(id)
	a.forgetWindow(windowID)
	a.Shell.WindowClosed(windowID)
}

// Windows lists the open windows.
func (a *App) Windows() []shell.WindowConfig {
	return a.Shell.Windows()
}

// WindowMessages returns a window's channel messages with sequence greater than sinceSeq.
func (a *App) WindowMessages(id string, sinceSeq int64) []ipc.Message {
	return a.Bus.Since(ipc.WindowID(id), sinceSeq)
}

// ReviewView returns one review window's view model.
func (a *App) ReviewView(id string) (review.View, error) {
	s, err := a.reviewSession(id)
	if err != nil {
		return review.View{}, err
	}
	return s.View(), nil
}

// ReviewSelectBook makes bookID active and loads its first question.
func (a *App) ReviewSelectBook(id string, bookID domain.BookID) (review.View, error) {
	s, err := a.reviewSession(id)
	if err != nil {
		return review.View{}, err
	}
	err = s.SelectBook(context.Background(), bookID)
	return s.View(), err
}

// ReviewNavigate moves to the previous or next question.
func (a *App) ReviewNavigate(id string, direction string) (review.View, error) {
	s, err := a.reviewSession(id)
	if err != nil {
		return review.View{}, err
	}
	_, err = s.Navigate(context.Background(), review.Direction(direction))
	return s.View(), err
}

// ReviewRequestFaultReport opens the confirmation step for the displayed pair.
func (a *App) ReviewRequestFaultReport(id string) (review.View, error) {
	s, err := a.reviewSession(id)
	if err != nil {
		return review.View{}, err
	}
	err = s.RequestFaultReport()
	return s.View(), err
}

// ReviewCancelFaultReport dismisses the confirmation step.
func (a *App) ReviewCancelFaultReport(id string) (review.View, error) {
	s, err := a.reviewSession(id)
	if err != nil {
		return review.View{}, err
	}
	s.CancelFaultReport()
	return s.View(), nil
}

// ReviewConfirmFaultReport submits the confirmed fault report.
func (a *App) ReviewConfirmFaultReport(id string) (review.View, error) {
	s, err := a.reviewSession(id)
	if err != nil {
		return review.View{}, err
	}
	err = s.ConfirmFaultReport(context.Background())
	return s.View(), err
}

// ReviewOpenProcessedDir opens the processed image's directory in the file manager.
func (a *App) ReviewOpenProcessedDir(id string) error {
	s, err := a.reviewSession(id)
	if err != nil {
		return err
	}
	return s.OpenProcessedDir()
}

// SelectorView returns one selector window's view model.
func (a *App) SelectorView(id string) (selector.View, error) {
	c, err := a.selectorWindow(id)
	if err != nil {
		return selector.View{}, err
	}
	return c.View(), nil
}

// SelectorToggleAll checks or unchecks every listed book.
func (a *App) SelectorToggleAll(id string, checked bool) (selector.View, error) {
	c, err := a.selectorWindow(id)
	if err != nil {
		return selector.View{}, err
	}
	err = c.ToggleAll(checked)
	return c.View(), err
}

// SelectorSetChecked changes one row's checkbox.
func (a *App) SelectorSetChecked(id string, index int, checked bool) (selector.View, error) {
	c, err := a.selectorWindow(id)
	if err != nil {
		return selector.View{}, err
	}
	err = c.SetChecked(index, checked)
	return c.View(), err
}

// SelectorConfirm sends the checked books back to the main window.
func (a *App) SelectorConfirm(id string) ([]domain.BookID, error) {
	c, err := a.selectorWindow(id)
	if err != nil {
		return nil, err
	}
	return c.Confirm()
}

// PickLogDirectory opens a native directory picker for processing logs.
func (a *App) PickLogDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Log klasörü seçin",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenLogFolder opens the given path (or configured log dir) in file manager.
func (a *App) OpenLogFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.LogDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("log path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve log path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return a.openPath(openPath)
}

// OpenDirectory shows a directory in the platform file manager.
func (a *App) OpenDirectory(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("directory path is empty")
	}
	return a.openPath(path)
}

// newReviewWindow builds the controller behind a new review window.
func (a *App) newReviewWindow(id ipc.WindowID) ipc.Listener {
	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()

	s := review.New(id, a.remote, a, review.Options{
		ShareRoot: settings.ShareRoot,
		Separator: settings.PathSeparator,
	})
	s.SetOnChange(func(v review.View) { a.emitView(id, v) })

	a.mu.Lock()
	a.reviews[id] = s
	a.mu.Unlock()
	return s.HandleMessage
}

// newSelectorWindow builds the controller behind a new selector window.
func (a *App) newSelectorWindow(id ipc.WindowID) ipc.Listener {
	c := selector.New(id, a.remote, a.Bus)
	c.SetOnChange(func(v selector.View) { a.emitView(id, v) })

	a.mu.Lock()
	a.selectors[id] = c
	a.mu.Unlock()
	return c.HandleMessage
}

func (a *App) reviewSession(id string) (*review.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.reviews[ipc.WindowID(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReviewWindow, id)
	}
	return s, nil
}

func (a *App) selectorWindow(id string) (*selector.Coordinator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.selectors[ipc.WindowID(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSelectorWindow, id)
	}
	return c, nil
}

func (a *App) forgetWindow(id ipc.WindowID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.reviews, id)
	delete(a.selectors, id)
}

// loadSettings reads persisted settings with environment overrides applied.
func (a *App) loadSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return config.Normalize(config.ApplyEnv(settings)), nil
}

// applySettings swaps in settings-derived collaborators and reruns diagnostics.
func (a *App) applySettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	previous := a.Settings
	a.Settings = settings
	a.mu.Unlock()

	if previous.APIBaseURL != settings.APIBaseURL {
		a.remote.set(a.newClient(settings.APIBaseURL))
		a.logger.Info("api client rebuilt", "base_url", settings.APIBaseURL)
	}
	if previous.LogDir != settings.LogDir {
		a.Shell.SetLogSaver(artifact.NewWriter(settings.LogDir))
	}

	var report domain.DiagnosticReport
	if a.checker != nil {
		report = a.checker.Run(settings)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Diagnostics = report
	return report
}

// emitView pushes a window's view model to the frontend.
func (a *App) emitView(id ipc.WindowID, view any) {
	a.emit(EventView, ViewEvent{Window: id, View: view})
}

// emit sends a runtime push notification when the UI is running.
func (a *App) emit(name string, payload any) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	emitter := a.emitter
	a.mu.Unlock()

	if emitter != nil {
		emitter(name, payload)
		return
	}
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, name, payload)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// wailsHost renders child windows as frontend panels announced over runtime events.
type wailsHost struct {
	app *App
}

// CreateWindow announces a new window panel.
func (h *wailsHost) CreateWindow(cfg shell.WindowConfig) error {
	h.app.emit(EventWindowOpen, cfg)
	return nil
}

// CloseWindow tells the frontend to remove a window panel.
func (h *wailsHost) CloseWindow(id ipc.WindowID) error {
	h.app.forgetWindow(id)
	h.app.emit(EventWindowClose, id)
	return nil
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
