package repo

import (
	"context"

	"studio-server/internal/domain"
)

// ShotRepositoryPG updates the image result surface of shots. Shot lifecycle
// (creation, ordering, deletion) is owned by the UI layer; this repository
// deliberately exposes no way to create or remove rows. No lock is taken on
// the shot, so unrelated concurrent UI writes follow last-writer-wins.
type ShotRepositoryPG struct {
	db DB
}

// NewShotRepository constructs a new shot repository instance.
func NewShotRepository(db DB) *ShotRepositoryPG {
	return &ShotRepositoryPG{db: db}
}

// SetImageResult records a successful image generation on the shot and
// clears any previous failure reason.
func (r *ShotRepositoryPG) SetImageResult(ctx context.Context, shotID, imageURL string) error {
	query := `
UPDATE shots
SET image_url = $2,
    image_status = $3,
    failure_reason = NULL,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.db.Exec(ctx, query, shotID, imageURL, domain.ShotImageCompleted)
	return err
}

// SetImageFailure marks the shot failed with the generation's reason.
func (r *ShotRepositoryPG) SetImageFailure(ctx context.Context, shotID, reason string) error {
	query := `
UPDATE shots
SET image_status = $2,
    failure_reason = $3,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.db.Exec(ctx, query, shotID, domain.ShotImageFailed, reason)
	return err
}

var _ domain.ShotRepository = (*ShotRepositoryPG)(nil)
