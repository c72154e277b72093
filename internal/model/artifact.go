package model

import "time"

// Artifact is a converted presentation stored for later download.
// Name is derived from the uploaded document's file name and doubles as the download key.
type Artifact struct {
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	SlideCount  int       `json:"slide_count,omitempty"`
	ContentType string    `json:"content_type"`
	ModifiedAt  time.Time `json:"modified_at"`
}
