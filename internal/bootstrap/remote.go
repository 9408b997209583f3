package bootstrap

import (
	"context"
	"sync"

	"deepcut-desktop/internal/api"
	"deepcut-desktop/internal/domain"
)

// remoteAPI is the slice of the service client the windows call.
type remoteAPI interface {
	Process(ctx context.Context, req domain.ProcessingRequest) (domain.ProcessingResult, error)
	Preview(ctx context.Context, bookID domain.BookID, index int) (api.PreviewResponse, error)
	ReportFault(ctx context.Context, report domain.FaultReport) error
	BooksByOrganization(ctx context.Context, filter domain.SelectionFilter) ([]domain.BookID, error)
}

// remote forwards to the current client so settings changes reach open windows.
type remote struct {
	mu     sync.RWMutex
	client remoteAPI
}

func newRemote(client remoteAPI) *remote {
	return &remote{client: client}
}

func (r *remote) set(client remoteAPI) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.client = client
}

func (r *remote) current() remoteAPI {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

func (r *remote) Process(ctx context.Context, req domain.ProcessingRequest) (domain.ProcessingResult, error) {
	return r.current().Process(ctx, req)
}

func (r *remote) Preview(ctx context.Context, bookID domain.BookID, index int) (api.PreviewResponse, error) {
	return r.current().Preview(ctx, bookID, index)
}

func (r *remote) ReportFault(ctx context.Context, report domain.FaultReport) error {
	return r.current().ReportFault(ctx, report)
}

func (r *remote) BooksByOrganization(ctx context.Context, filter domain.SelectionFilter) ([]domain.BookID, error) {
	return r.current().BooksByOrganization(ctx, filter)
}
