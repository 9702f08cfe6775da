package domain

import "time"

// Location is where a submitted file currently lives.
type Location string

const (
	LocationPending Location = "pending"
	LocationPublic  Location = "public"
)

// Submission is a manifest file in one of a user's namespaces. It is a
// filesystem projection, not a stored record.
type Submission struct {
	Owner      string    `json:"owner"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Location   Location  `json:"location"`
}
