package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"deepcut-desktop/internal/api"
	"deepcut-desktop/internal/domain"
	"deepcut-desktop/internal/ipc"
)

// Status is the selector window's lifecycle state.
type Status string

const (
	StatusAwaitingFilters Status = "awaiting_filters"
	StatusFetching        Status = "fetching"
	StatusRendered        Status = "rendered"
	StatusFetchFailed     Status = "fetch_failed"
)

const noBooksMessage = "Bu kriterlere uygun kitap bulunamadı."

// ErrAlreadyInitialized is returned when filters arrive a second time.
var ErrAlreadyInitialized = errors.New("selector already initialized")

// ErrNotRendered is returned for list operations before the list exists.
var ErrNotRendered = errors.New("book list not rendered")

// BookLookup resolves candidate books for a filter.
type BookLookup interface {
	BooksByOrganization(ctx context.Context, filter domain.SelectionFilter) ([]domain.BookID, error)
}

// Item is one checkbox row.
type Item struct {
	BookID  domain.BookID `json:"bookId"`
	Checked bool          `json:"checked"`
}

// View is the selector window's view model.
type View struct {
	Status    Status                  `json:"status"`
	Filter    *domain.SelectionFilter `json:"filter,omitempty"`
	Items     []Item                  `json:"items"`
	Message   string                  `json:"message,omitempty"`
	Confirmed bool                    `json:"confirmed"`
}

// Coordinator drives one selector window from filters to a confirmed subset.
type Coordinator struct {
	id     ipc.WindowID
	lookup BookLookup
	sender ipc.Sender
	logger *slog.Logger

	mu       sync.Mutex
	view     View
	onChange func(View)
}

// New creates a coordinator for window id awaiting its filters.
func New(id ipc.WindowID, lookup BookLookup, sender ipc.Sender) *Coordinator {
	return &Coordinator{
		id:     id,
		lookup: lookup,
		sender: sender,
		logger: slog.Default().With("component", "selector", "window", string(id)),
		view:   View{Status: StatusAwaitingFilters, Items: []Item{}},
	}
}

// ID returns the window this coordinator drives.
func (c *Coordinator) ID() ipc.WindowID {
	return c.id
}

// SetOnChange registers the view listener. It runs outside the coordinator lock.
func (c *Coordinator) SetOnChange(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// View returns a snapshot of the view model.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// HandleMessage is the window's channel listener. Filters start the lookup
// on their own goroutine so the sender is not blocked by the network call.
func (c *Coordinator) HandleMessage(msg ipc.Message) {
	if msg.Kind != ipc.KindFiltersData || msg.Filter == nil {
		return
	}
	go func() {
		if err := c.Init(context.Background(), *msg.Filter); err != nil && !errors.Is(err, ErrAlreadyInitialized) {
			c.logger.Warn("book lookup failed", "err", err)
		}
	}()
}

// Init fetches the candidate books for filter. Only the first call has any effect.
func (c *Coordinator) Init(ctx context.Context, filter domain.SelectionFilter) error {
	c.mu.Lock()
	if c.view.Status != StatusAwaitingFilters {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.view.Status = StatusFetching
	c.view.Filter = &filter
	c.view.Message = ""
	c.mu.Unlock()
	c.publish()

	ids, err := c.lookup.BooksByOrganization(ctx, filter)
	if err != nil {
		c.update(func(v *View) {
			v.Status = StatusFetchFailed
			v.Items = []Item{}
			v.Message = "Hata: " + api.Describe(err)
		})
		return fmt.Errorf("lookup books: %w", err)
	}

	c.update(func(v *View) {
		v.Status = StatusRendered
		v.Items = make([]Item, 0, len(ids))
		for _, id := range ids {
			v.Items = append(v.Items, Item{BookID: id})
		}
		if len(ids) == 0 {
			v.Message = noBooksMessage
		}
	})
	return nil
}

// ToggleAll sets every checkbox to checked in one step.
func (c *Coordinator) ToggleAll(checked bool) error {
	return c.mutateRendered(func(v *View) error {
		for i := range v.Items {
			v.Items[i].Checked = checked
		}
		return nil
	})
}

// SetChecked sets one checkbox by list position.
func (c *Coordinator) SetChecked(index int, checked bool) error {
	return c.mutateRendered(func(v *View) error {
		if index < 0 || index >= len(v.Items) {
			return fmt.Errorf("item index %d out of range", index)
		}
		v.Items[index].Checked = checked
		return nil
	})
}

// Confirm sends the checked IDs in list order to the shell. Only the first
// confirmation is sent; the shell closes the window on receipt.
func (c *Coordinator) Confirm() ([]domain.BookID, error) {
	c.mu.Lock()
	if c.view.Status != StatusRendered {
		c.mu.Unlock()
		return nil, ErrNotRendered
	}
	if c.view.Confirmed {
		c.mu.Unlock()
		return nil, nil
	}
	selected := make([]domain.BookID, 0, len(c.view.Items))
	for _, item := range c.view.Items {
		if item.Checked {
			selected = append(selected, item.BookID)
		}
	}
	c.view.Confirmed = true
	c.mu.Unlock()
	c.publish()

	if _, err := c.sender.Send(ipc.SelectionComplete(c.id, selected)); err != nil {
		return nil, fmt.Errorf("send selection: %w", err)
	}
	return selected, nil
}

func (c *Coordinator) mutateRendered(fn func(v *View) error) error {
	c.mu.Lock()
	if c.view.Status != StatusRendered {
		c.mu.Unlock()
		return ErrNotRendered
	}
	if err := fn(&c.view); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	c.publish()
	return nil
}

func (c *Coordinator) update(fn func(v *View)) {
	c.mu.Lock()
	fn(&c.view)
	c.mu.Unlock()
	c.publish()
}

func (c *Coordinator) publish() {
	c.mu.Lock()
	view, onChange := c.snapshot(), c.onChange
	c.mu.Unlock()
	if onChange != nil {
		onChange(view)
	}
}

func (c *Coordinator) snapshot() View {
	view := c.view
	view.Items = append([]Item(nil), c.view.Items...)
	if view.Items == nil {
		view.Items = []Item{}
	}
	return view
}
