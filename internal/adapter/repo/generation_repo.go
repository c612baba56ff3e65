package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"studio-server/internal/domain"
)

// GenerationRepositoryPG implements domain.GenerationRepository.
type GenerationRepositoryPG struct {
	db DB
}

// NewGenerationRepository creates a generation repository backed by PostgreSQL.
func NewGenerationRepository(db DB) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{db: db}
}

const generationColumns = `id, user_id, project_id, shot_id, api_provider, external_request_id,
request_payload, status, failure_reason, result_media_asset_id, callback_received_at, created_at, updated_at`

// Create inserts a new generation record.
func (r *GenerationRepositoryPG) Create(ctx context.Context, g *domain.Generation) error {
	query := `
INSERT INTO generations (id, user_id, project_id, shot_id, api_provider, external_request_id, request_payload, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.db.Exec(ctx, query,
		g.ID,
		g.UserID,
		g.ProjectID,
		nullableText(g.ShotID),
		g.APIProvider,
		g.ExternalRequestID,
		g.RequestPayload,
		g.Status,
	)
	return err
}

// GetByID fetches a generation by its owned identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+generationColumns+`
FROM generations
WHERE id = $1;
`, id)
	return scanGeneration(row)
}

// GetByExternalID fetches a generation by its reconciliation key.
func (r *GenerationRepositoryPG) GetByExternalID(ctx context.Context, externalID string) (*domain.Generation, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+generationColumns+`
FROM generations
WHERE external_request_id = $1;
`, externalID)
	return scanGeneration(row)
}

// UpdateProgress moves a non-terminal generation to another non-terminal
// status. Terminal rows are left untouched by the WHERE clause, which is what
// makes late out-of-order progress notifications harmless.
func (r *GenerationRepositoryPG) UpdateProgress(ctx context.Context, externalID string, status domain.GenerationStatus, receivedAt time.Time) (bool, error) {
	query := `
UPDATE generations
SET status = $2,
    callback_received_at = COALESCE(callback_received_at, $3),
    updated_at = NOW()
WHERE external_request_id = $1
  AND status NOT IN ('completed', 'failed');
`
	tag, err := r.db.Exec(ctx, query, externalID, status, receivedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimTerminal atomically transitions a non-terminal generation to a
// terminal state. The conditional update is the single point deciding which
// concurrent delivery wins; every loser observes ErrNotFound.
func (r *GenerationRepositoryPG) ClaimTerminal(ctx context.Context, externalID string, t domain.TerminalTransition) (*domain.Generation, error) {
	query := `
UPDATE generations
SET status = $2,
    failure_reason = $3,
    callback_received_at = COALESCE(callback_received_at, $4),
    updated_at = NOW()
WHERE external_request_id = $1
  AND status NOT IN ('completed', 'failed')
RETURNING ` + generationColumns + `;
`
	row := r.db.QueryRow(ctx, query, externalID, t.Status, nullableText(t.FailureReason), t.ReceivedAt)
	return scanGeneration(row)
}

// SetResultAsset links the media asset produced by a completed generation.
func (r *GenerationRepositoryPG) SetResultAsset(ctx context.Context, generationID, assetID string) error {
	query := `
UPDATE generations
SET result_media_asset_id = $2,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.db.Exec(ctx, query, generationID, assetID)
	return err
}

// ListStale returns non-terminal generations for the provider that have not
// been touched since the cutoff.
func (r *GenerationRepositoryPG) ListStale(ctx context.Context, provider domain.APIProvider, cutoff time.Time, limit int) ([]domain.Generation, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+generationColumns+`
FROM generations
WHERE api_provider = $1
  AND status NOT IN ('completed', 'failed')
  AND updated_at < $2
ORDER BY updated_at ASC
LIMIT $3;
`, provider, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanGeneration(row pgx.Row) (*domain.Generation, error) {
	var g domain.Generation
	var shotID, failureReason, resultAssetID *string
	var callbackAt *time.Time
	if err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.ProjectID,
		&shotID,
		&g.APIProvider,
		&g.ExternalRequestID,
		&g.RequestPayload,
		&g.Status,
		&failureReason,
		&resultAssetID,
		&callbackAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if shotID != nil {
		g.ShotID = *shotID
	}
	if failureReason != nil {
		g.FailureReason = *failureReason
	}
	if resultAssetID != nil {
		g.ResultMediaAssetID = *resultAssetID
	}
	g.CallbackReceivedAt = callbackAt
	return &g, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
