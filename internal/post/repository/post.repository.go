package repository

import (
	"database/sql"
	"time"

	"pressroom/internal/post/model"
	"pressroom/pkg/logger"
)

type PostRepository struct {
	DB *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{DB: db}
}

const postColumns = `id, title, slug, content, status, featured_media_id, published_at,
	meta_title, meta_description, created_at, deleted_at, locked_by, locked_at`

func scanPost(row *sql.Row) (*model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Status, &p.FeaturedMediaID,
		&p.PublishedAt, &p.MetaTitle, &p.MetaDescription, &p.CreatedAt, &p.DeletedAt,
		&p.LockedBy, &p.LockedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAll lists every post, trashed ones included, for the admin overview.
func (r *PostRepository) GetAll() ([]model.PostSummary, error) {
	rows, err := r.DB.Query(`SELECT id, title, slug, status, deleted_at, published_at, locked_by
		FROM posts ORDER BY id DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list posts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var posts []model.PostSummary
	for rows.Next() {
		var p model.PostSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Status, &p.DeletedAt, &p.PublishedAt, &p.LockedBy); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Find returns a live post by id, or nil when absent or trashed.
func (r *PostRepository) Find(id int64) (*model.Post, error) {
	row := r.DB.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = $1 AND deleted_at IS NULL`, id)
	p, err := scanPost(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to find post %d: %v", id, err)
	}
	return p, err
}

func (r *PostRepository) FindBySlug(slug string) (*model.Post, error) {
	row := r.DB.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = $1 AND deleted_at IS NULL`, slug)
	p, err := scanPost(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to find post by slug %q: %v", slug, err)
	}
	return p, err
}

// SlugExists reports whether a live post already uses the slug.
func (r *PostRepository) SlugExists(slug string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1 AND deleted_at IS NULL)`, slug).Scan(&exists)
	if err != nil {
		logger.Sugar.Errorf("Failed to check slug %q: %v", slug, err)
	}
	return exists, err
}

func (r *PostRepository) Create(title, slug string, c model.PostContent, publishedAt *time.Time, createdAt time.Time) (int64, error) {
	var id int64
	err := r.DB.QueryRow(`INSERT INTO posts
		(title, slug, content, status, featured_media_id, published_at, meta_title, meta_description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		title, slug, c.Content, c.Status, c.FeaturedMediaID, publishedAt, c.MetaTitle, c.MetaDescription, createdAt,
	).Scan(&id)
	if err != nil {
		logger.Sugar.Errorf("Failed to create post: %v", err)
	}
	return id, err
}

// Update overwrites the editable fields of a live post. The slug is passed
// through from the caller so it survives title edits.
func (r *PostRepository) Update(id int64, slug string, c model.PostContent, publishedAt *time.Time) error {
	_, err := r.DB.Exec(`UPDATE posts
		SET title = $2, slug = $3, content = $4, status = $5, featured_media_id = $6,
		    published_at = $7, meta_title = $8, meta_description = $9
		WHERE id = $1 AND deleted_at IS NULL`,
		id, c.Title, slug, c.Content, c.Status, c.FeaturedMediaID, publishedAt, c.MetaTitle, c.MetaDescription)
	if err != nil {
		logger.Sugar.Errorf("Failed to update post %d: %v", id, err)
	}
	return err
}

// SoftDelete stamps the tombstone. Returns the number of rows touched so the
// caller can distinguish a missing post.
func (r *PostRepository) SoftDelete(id int64, deletedAt time.Time) (int64, error) {
	res, err := r.DB.Exec(`UPDATE posts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, deletedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete post %d: %v", id, err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostRepository) Undelete(id int64) (int64, error) {
	res, err := r.DB.Exec(`UPDATE posts SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to restore post %d: %v", id, err)
		return 0, err
	}
	return res.RowsAffected()
}

// PublishedLatest lists the newest published posts for the public site.
func (r *PostRepository) PublishedLatest(limit int, now time.Time) ([]model.Post, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	rows, err := r.DB.Query(`SELECT `+postColumns+` FROM posts
		WHERE status = 'published' AND deleted_at IS NULL
		AND (published_at IS NULL OR published_at <= $1)
		ORDER BY published_at DESC
		LIMIT $2`, now, limit)
	if err != nil {
		logger.Sugar.Errorf("Failed to list published posts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Status, &p.FeaturedMediaID,
			&p.PublishedAt, &p.MetaTitle, &p.MetaDescription, &p.CreatedAt, &p.DeletedAt,
			&p.LockedBy, &p.LockedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) FindPublishedBySlug(slug string, now time.Time) (*model.Post, error) {
	row := r.DB.QueryRow(`SELECT `+postColumns+` FROM posts
		WHERE slug = $1 AND status = 'published' AND deleted_at IS NULL
		AND (published_at IS NULL OR published_at <= $2)`, slug, now)
	p, err := scanPost(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to find published post %q: %v", slug, err)
	}
	return p, err
}
