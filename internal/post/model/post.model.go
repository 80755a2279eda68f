package model

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is the full posts row, including the embedded edit-lock fields.
// LockedBy/LockedAt may be stale: a lock older than the edit TTL counts as
// absent, and nothing clears the columns until the next lock interaction.
type Post struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content"`
	Status          string     `json:"status"`
	FeaturedMediaID *int64     `json:"featured_media_id,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	MetaTitle       *string    `json:"meta_title,omitempty"`
	MetaDescription *string    `json:"meta_description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	LockedBy        *int64     `json:"locked_by,omitempty"`
	LockedAt        *time.Time `json:"locked_at,omitempty"`
}

// PostSummary is the admin list row.
type PostSummary struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	LockedBy    *int64     `json:"locked_by,omitempty"`
}

// PostContent carries the editable fields submitted on create and save.
type PostContent struct {
	Title           string     `json:"title" validate:"required,min=3"`
	Content         string     `json:"content" validate:"required,min=10"`
	Status          string     `json:"status" validate:"required,oneof=draft published"`
	FeaturedMediaID *int64     `json:"featured_media_id"`
	PublishedAt     *time.Time `json:"published_at"`
	MetaTitle       *string    `json:"meta_title"`
	MetaDescription *string    `json:"meta_description"`
}

// Revision is an immutable snapshot of a post's content taken just before a
// save overwrote it.
type Revision struct {
	ID              int64     `json:"id"`
	PostID          int64     `json:"post_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	MetaTitle       *string   `json:"meta_title,omitempty"`
	MetaDescription *string   `json:"meta_description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// RevisionSummary is what the edit page lists; full content is fetched by id.
type RevisionSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// LockInfo is the raw lock state as stored, joined with the holder's name.
// Expiry is not applied here; callers derive it from LockedAt.
type LockInfo struct {
	UserID   int64     `json:"user_id"`
	UserName string    `json:"user_name"`
	LockedAt time.Time `json:"locked_at"`
}

// EditGrant is returned when an edit lock has been granted.
type EditGrant struct {
	Post      *Post             `json:"post"`
	Revisions []RevisionSummary `json:"revisions"`
}
