package domain

import "time"

// AssetType enumerates media asset types.
type AssetType string

const (
	AssetTypeImage AssetType = "image"
	AssetTypeVideo AssetType = "video"
	AssetTypeAudio AssetType = "audio"
)

// AssetPurpose records why an asset exists in a project.
type AssetPurpose string

const (
	AssetPurposeUpload           AssetPurpose = "upload"
	AssetPurposeGenerationResult AssetPurpose = "generation_result"
	AssetPurposeCharacterRef     AssetPurpose = "character_ref"
	AssetPurposeStyleRef         AssetPurpose = "style_ref"
)

// MediaAsset is a durable artifact produced by a generation or uploaded by a
// user. Assets are append-only; they are never mutated after creation.
type MediaAsset struct {
	ID        string
	UserID    string
	ProjectID string
	CDNURL    string
	FileName  string
	MimeType  string
	AssetType AssetType
	Purpose   AssetPurpose
	CreatedAt time.Time
}
