package domain

import "time"

// ShotImageStatus mirrors the generation lifecycle onto the owning shot so
// the UI can render per-shot progress.
type ShotImageStatus string

const (
	ShotImagePending    ShotImageStatus = "pending"
	ShotImageGenerating ShotImageStatus = "generating"
	ShotImageCompleted  ShotImageStatus = "completed"
	ShotImageFailed     ShotImageStatus = "failed"
)

// Shot is the owner entity that requested a generation. Only the image
// result surface is modelled here; shot lifecycle (creation, ordering,
// deletion) belongs to the UI layer.
type Shot struct {
	ID            string
	ProjectID     string
	ImageURL      string
	ImageStatus   ShotImageStatus
	FailureReason string
	UpdatedAt     time.Time
}
