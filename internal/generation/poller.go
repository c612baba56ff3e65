package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studio-server/internal/domain"
	"studio-server/internal/infra"
	"studio-server/internal/providers/textgen"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 30
)

// StatusChecker performs one status query against the intermediary.
type StatusChecker interface {
	CheckStatus(ctx context.Context, requestID string) (*textgen.StatusResponse, error)
}

// Poller drives the synchronous fallback for providers without a webhook
// channel: query the status endpoint at a fixed interval until a terminal
// status or the attempt budget runs out. It blocks its caller for up to
// interval*attempts, so it must run off any latency-sensitive path;
// cancelling the context stops further polling without cancelling the
// underlying provider job.
type Poller struct {
	checker  StatusChecker
	interval time.Duration
	attempts int
	logger   infra.Logger
}

// NewPoller constructs a poller. Zero interval or attempts select the
// defaults of 2s and 30 attempts, a 60 second ceiling.
func NewPoller(checker StatusChecker, interval time.Duration, attempts int, logger infra.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if attempts <= 0 {
		attempts = defaultPollAttempts
	}
	return &Poller{checker: checker, interval: interval, attempts: attempts, logger: logger}
}

// Poll returns the result payload on COMPLETED, domain.ErrGenerationFailed
// on FAILED, and domain.ErrPollTimeout once the budget is exhausted. A
// status query that itself errors aborts the loop immediately; transport
// errors are not retried.
func (p *Poller) Poll(ctx context.Context, requestID string) (json.RawMessage, error) {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		st, err := p.checker.CheckStatus(ctx, requestID)
		if err != nil {
			return nil, err
		}
		switch st.Status {
		case textgen.StatusCompleted:
			return st.Result, nil
		case textgen.StatusFailed:
			reason := strings.TrimSpace(st.Error)
			if reason == "" {
				reason = "provider reported failure"
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrGenerationFailed, reason)
		}
		p.logger.Debug().
			Str("request_id", requestID).
			Str("status", st.Status).
			Int("attempt", attempt).
			Msg("poll: not terminal yet")

		if attempt == p.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.interval):
		}
	}
	return nil, domain.ErrPollTimeout
}
