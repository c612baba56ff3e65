package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"studio-server/internal/domain"
)

// MediaAssetRepositoryPG implements domain.MediaAssetRepository using PostgreSQL.
type MediaAssetRepositoryPG struct {
	db DB
}

// NewMediaAssetRepository constructs a new media asset repository instance.
func NewMediaAssetRepository(db DB) *MediaAssetRepositoryPG {
	return &MediaAssetRepositoryPG{db: db}
}

// Create persists a media asset. Assets are append-only.
func (r *MediaAssetRepositoryPG) Create(ctx context.Context, a *domain.MediaAsset) error {
	query := `
INSERT INTO media_assets (id, user_id, project_id, cdn_url, file_name, mime_type, asset_type, purpose)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.ProjectID,
		a.CDNURL,
		a.FileName,
		a.MimeType,
		a.AssetType,
		a.Purpose,
	)
	return err
}

// GetByID fetches a media asset by its identifier.
func (r *MediaAssetRepositoryPG) GetByID(ctx context.Context, id string) (*domain.MediaAsset, error) {
	row := r.db.QueryRow(ctx, `
SELECT id, user_id, project_id, cdn_url, file_name, mime_type, asset_type, purpose, created_at
FROM media_assets
WHERE id = $1;
`, id)
	var a domain.MediaAsset
	if err := row.Scan(&a.ID, &a.UserID, &a.ProjectID, &a.CDNURL, &a.FileName, &a.MimeType, &a.AssetType, &a.Purpose, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ domain.MediaAssetRepository = (*MediaAssetRepositoryPG)(nil)
