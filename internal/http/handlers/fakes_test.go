package handlers

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio-server/internal/domain"
	"studio-server/internal/generation"
	"studio-server/internal/infra"
	"studio-server/internal/providers/dream"
	"studio-server/internal/providers/textgen"
)

func testLogger() infra.Logger {
	return zerolog.New(io.Discard)
}

type memGenerationRepo struct {
	mu         sync.Mutex
	byExternal map[string]*domain.Generation
	failWith   error
}

func newMemGenerationRepo() *memGenerationRepo {
	return &memGenerationRepo{byExternal: make(map[string]*domain.Generation)}
}

func (m *memGenerationRepo) add(g domain.Generation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := g
	m.byExternal[g.ExternalRequestID] = &cp
}

func (m *memGenerationRepo) get(externalID string) domain.Generation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byExternal[externalID]
}

func (m *memGenerationRepo) Create(ctx context.Context, g *domain.Generation) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.add(*g)
	return nil
}

func (m *memGenerationRepo) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.byExternal {
		if g.ID == id {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memGenerationRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Generation, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.byExternal[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGenerationRepo) UpdateProgress(ctx context.Context, externalID string, status domain.GenerationStatus, receivedAt time.Time) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.byExternal[externalID]
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

func (m *memGenerationRepo) ClaimTerminal(ctx context.Context, externalID string, t domain.TerminalTransition) (*domain.Generation, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.byExternal[externalID]
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

func (m *memGenerationRepo) SetResultAsset(ctx context.Context, generationID, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.byExternal {
		if g.ID == generationID {
			g.ResultMediaAssetID = assetID
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memGenerationRepo) ListStale(ctx context.Context, provider domain.APIProvider, cutoff time.Time, limit int) ([]domain.Generation, error) {
	return nil, nil
}

var _ domain.GenerationRepository = (*memGenerationRepo)(nil)

type memAssetRepo struct {
	mu     sync.Mutex
	assets []domain.MediaAsset
}

func (m *memAssetRepo) Create(ctx context.Context, a *domain.MediaAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = append(m.assets, *a)
	return nil
}

func (m *memAssetRepo) GetByID(ctx context.Context, id string) (*domain.MediaAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.assets {
		if m.assets[i].ID == id {
			cp := m.assets[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

var _ domain.MediaAssetRepository = (*memAssetRepo)(nil)

type memShotRepo struct {
	mu       sync.Mutex
	results  map[string]string
	failures map[string]string
}

func newMemShotRepo() *memShotRepo {
	return &memShotRepo{results: make(map[string]string), failures: make(map[string]string)}
}

func (m *memShotRepo) SetImageResult(ctx context.Context, shotID, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[shotID] = imageURL
	return nil
}

func (m *memShotRepo) SetImageFailure(ctx context.Context, shotID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[shotID] = reason
	return nil
}

var _ domain.ShotRepository = (*memShotRepo)(nil)

type stubDreamClient struct {
	sub *dream.Submission
	err error
}

func (s *stubDreamClient) SubmitImage(ctx context.Context, req dream.ImageRequest) (*dream.Submission, error) {
	return s.sub, s.err
}

func (s *stubDreamClient) SubmitVideo(ctx context.Context, req dream.VideoRequest) (*dream.Submission, error) {
	return s.sub, s.err
}

type stubTextClient struct {
	sub      *textgen.Submission
	err      error
	statuses []textgen.StatusResponse
	calls    int
}

func (s *stubTextClient) Submit(ctx context.Context, req textgen.SubmitRequest) (*textgen.Submission, error) {
	return s.sub, s.err
}

func (s *stubTextClient) CheckStatus(ctx context.Context, requestID string) (*textgen.StatusResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.statuses) {
		resp := s.statuses[i]
		return &resp, nil
	}
	return &textgen.StatusResponse{Status: "RUNNING"}, nil
}

type testApp struct {
	app   *App
	gens  *memGenerationRepo
	shots *memShotRepo
	dream *stubDreamClient
	text  *stubTextClient
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gens := newMemGenerationRepo()
	shots := newMemShotRepo()
	dreamClient := &stubDreamClient{}
	textClient := &stubTextClient{}
	logger := testLogger()
	submitter := generation.NewSubmitter(gens, dreamClient, textClient, logger)
	processor := generation.NewProcessor(gens, &memAssetRepo{}, shots, logger)
	poller := generation.NewPoller(textClient, time.Millisecond, 3, logger)
	return &testApp{
		app:   NewApp(logger, gens, submitter, processor, poller),
		gens:  gens,
		shots: shots,
		dream: dreamClient,
		text:  textClient,
	}
}
