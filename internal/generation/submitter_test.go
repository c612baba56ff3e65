package generation

import (
	"context"
	"errors"
	"testing"

	"studio-server/internal/domain"
	"studio-server/internal/providers/dream"
	"studio-server/internal/providers/textgen"
)

type stubDreamClient struct {
	imageSub *dream.Submission
	videoSub *dream.Submission
	err      error
	lastReq  any
}

func (s *stubDreamClient) SubmitImage(ctx context.Context, req dream.ImageRequest) (*dream.Submission, error) {
	s.lastReq = req
	return s.imageSub, s.err
}

func (s *stubDreamClient) SubmitVideo(ctx context.Context, req dream.VideoRequest) (*dream.Submission, error) {
	s.lastReq = req
	return s.videoSub, s.err
}

type stubTextClient struct {
	sub *textgen.Submission
	err error
}

func (s *stubTextClient) Submit(ctx context.Context, req textgen.SubmitRequest) (*textgen.Submission, error) {
	return s.sub, s.err
}

func TestSubmitImage(t *testing.T) {
	gens := newFakeGenerationRepo()
	client := &stubDreamClient{imageSub: &dream.Submission{ID: "job-1", Payload: []byte(`{"prompt":"a cat"}`)}}
	s := NewSubmitter(gens, client, &stubTextClient{}, testLogger())

	g, err := s.Submit(context.Background(), SubmitParams{
		Provider:    domain.ProviderImage,
		Prompt:      "a cat",
		AspectRatio: "16:9",
		UserID:      "user-1",
		ProjectID:   "project-1",
		ShotID:      "shot-1",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if g.Status != domain.GenerationStatusSubmitted {
		t.Fatalf("expected submitted, got %s", g.Status)
	}
	if g.ExternalRequestID != "job-1" {
		t.Fatalf("external id not captured verbatim: %q", g.ExternalRequestID)
	}
	if g.ID == "" {
		t.Fatalf("generation id not assigned")
	}
	stored := gens.get("job-1")
	if stored.ShotID != "shot-1" || stored.APIProvider != domain.ProviderImage {
		t.Fatalf("generation not persisted correctly: %+v", stored)
	}
	if string(stored.RequestPayload) != `{"prompt":"a cat"}` {
		t.Fatalf("request payload snapshot mismatch: %s", stored.RequestPayload)
	}
	req, ok := client.lastReq.(dream.ImageRequest)
	if !ok || req.AspectRatio != "16:9" {
		t.Fatalf("unexpected provider request: %+v", client.lastReq)
	}
}

func TestSubmitText(t *testing.T) {
	gens := newFakeGenerationRepo()
	text := &stubTextClient{sub: &textgen.Submission{RequestID: "req-9", Payload: []byte(`{"prompt":"outline"}`)}}
	s := NewSubmitter(gens, &stubDreamClient{}, text, testLogger())

	g, err := s.Submit(context.Background(), SubmitParams{
		Provider:  domain.ProviderText,
		Prompt:    "outline",
		UserID:    "user-1",
		ProjectID: "project-1",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if g.ExternalRequestID != "req-9" {
		t.Fatalf("external id mismatch: %q", g.ExternalRequestID)
	}
}

func TestSubmitProviderErrorLeavesNoRow(t *testing.T) {
	gens := newFakeGenerationRepo()
	client := &stubDreamClient{err: domain.ErrProviderUnavailable}
	s := NewSubmitter(gens, client, &stubTextClient{}, testLogger())

	_, err := s.Submit(context.Background(), SubmitParams{
		Provider:  domain.ProviderImage,
		Prompt:    "a cat",
		UserID:    "user-1",
		ProjectID: "project-1",
	})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if len(gens.byExternal) != 0 {
		t.Fatalf("failed submission left a generation row")
	}
}

func TestSubmitMissingCredentialLeavesNoRow(t *testing.T) {
	gens := newFakeGenerationRepo()
	client := &stubDreamClient{err: domain.ErrMissingCredential}
	s := NewSubmitter(gens, client, &stubTextClient{}, testLogger())

	_, err := s.Submit(context.Background(), SubmitParams{
		Provider:  domain.ProviderVideo,
		UserID:    "user-1",
		ProjectID: "project-1",
	})
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if len(gens.byExternal) != 0 {
		t.Fatalf("failed submission left a generation row")
	}
}

func TestSubmitUnsupportedProvider(t *testing.T) {
	s := NewSubmitter(newFakeGenerationRepo(), &stubDreamClient{}, &stubTextClient{}, testLogger())
	if _, err := s.Submit(context.Background(), SubmitParams{Provider: "audio"}); err == nil {
		t.Fatalf("expected error for unsupported provider")
	}
}
