package model

import "time"

// StoredFile represents a file held by the storage backend.
// This is a pure domain model with no backend-specific dependencies or tags.
// There is no separate index: a StoredFile exists exactly while its blob does.
type StoredFile struct {
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name,omitempty"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	ModTime      time.Time `json:"mod_time"`
}
