package generation

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studio-server/internal/domain"
	"studio-server/internal/infra"
)

func testLogger() infra.Logger {
	return zerolog.New(io.Discard)
}

type fakeGenerationRepo struct {
	mu         sync.Mutex
	byExternal map[string]*domain.Generation
	failWith   error
}

func newFakeGenerationRepo() *fakeGenerationRepo {
	return &fakeGenerationRepo{byExternal: make(map[string]*domain.Generation)}
}

func (f *fakeGenerationRepo) add(g domain.Generation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := g
	f.byExternal[g.ExternalRequestID] = &cp
}

func (f *fakeGenerationRepo) get(externalID string) domain.Generation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byExternal[externalID]
}

func (f *fakeGenerationRepo) Create(ctx context.Context, g *domain.Generation) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.add(*g)
	return nil
}

func (f *fakeGenerationRepo) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.byExternal {
		if g.ID == id {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeGenerationRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Generation, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.byExternal[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGenerationRepo) UpdateProgress(ctx context.Context, externalID string, status domain.GenerationStatus, receivedAt time.Time) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.byExternal[externalID]
	if !ok || g.Status.IsTerminal() {
		return false, nil
	}
	g.Status = status
	if g.CallbackReceivedAt == nil {
		t := receivedAt
		g.CallbackReceivedAt = &t
	}
	return true, nil
}

func (f *fakeGenerationRepo) ClaimTerminal(ctx context.Context, externalID string, t domain.TerminalTransition) (*domain.Generation, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.byExternal[externalID]
	if !ok || g.Status.IsTerminal() {
		return nil, domain.ErrNotFound
	}
	g.Status = t.Status
	g.FailureReason = t.FailureReason
	if g.CallbackReceivedAt == nil {
		at := t.ReceivedAt
		g.CallbackReceivedAt = &at
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGenerationRepo) SetResultAsset(ctx context.Context, generationID, assetID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.byExternal {
		if g.ID == generationID {
			g.ResultMediaAssetID = assetID
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeGenerationRepo) ListStale(ctx context.Context, provider domain.APIProvider, cutoff time.Time, limit int) ([]domain.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Generation
	for _, g := range f.byExternal {
		if g.APIProvider == provider && !g.Status.IsTerminal() && g.UpdatedAt.Before(cutoff) {
			out = append(out, *g)
		}
	}
	return out, nil
}

var _ domain.GenerationRepository = (*fakeGenerationRepo)(nil)

type fakeAssetRepo struct {
	mu       sync.Mutex
	assets   []domain.MediaAsset
	failWith error
}

func (f *fakeAssetRepo) Create(ctx context.Context, a *domain.MediaAsset) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets = append(f.assets, *a)
	return nil
}

func (f *fakeAssetRepo) GetByID(ctx context.Context, id string) (*domain.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.assets {
		if f.assets[i].ID == id {
			cp := f.assets[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAssetRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assets)
}

var _ domain.MediaAssetRepository = (*fakeAssetRepo)(nil)

type fakeShotRepo struct {
	mu       sync.Mutex
	results  map[string]string
	failures map[string]string
}

func newFakeShotRepo() *fakeShotRepo {
	return &fakeShotRepo{results: make(map[string]string), failures: make(map[string]string)}
}

func (f *fakeShotRepo) SetImageResult(ctx context.Context, shotID, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[shotID] = imageURL
	delete(f.failures, shotID)
	return nil
}

func (f *fakeShotRepo) SetImageFailure(ctx context.Context, shotID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[shotID] = reason
	return nil
}

var _ domain.ShotRepository = (*fakeShotRepo)(nil)
