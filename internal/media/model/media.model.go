package model

import "time"

// Media is a library entry posts can reference as their featured image.
type Media struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	AltText   *string   `json:"alt_text,omitempty"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}
