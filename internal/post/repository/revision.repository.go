package repository

import (
	"database/sql"
	"time"

	"pressroom/internal/post/model"
	"pressroom/pkg/logger"
)

// SaveRevision inserts a snapshot of the pre-save content and trims the
// post's history down to keep entries, in one transaction so a concurrent
// reader never sees the bound exceeded.
func (r *PostRepository) SaveRevision(postID int64, title, content string, metaTitle, metaDescription *string, createdAt time.Time, keep int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO revisions (post_id, title, content, meta_title, meta_description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		postID, title, content, metaTitle, metaDescription, createdAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to save revision for post %d: %v", postID, err)
		return err
	}

	// Oldest first out; ties on created_at go to the lower id.
	_, err = tx.Exec(`DELETE FROM revisions
		WHERE post_id = $1 AND id NOT IN (
			SELECT id FROM revisions WHERE post_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)`, postID, keep)
	if err != nil {
		logger.Sugar.Errorf("Failed to trim revisions for post %d: %v", postID, err)
		return err
	}

	return tx.Commit()
}

// ListRevisions returns the post's revisions, newest first.
func (r *PostRepository) ListRevisions(postID int64) ([]model.RevisionSummary, error) {
	rows, err := r.DB.Query(`SELECT id, title, created_at FROM revisions
		WHERE post_id = $1 ORDER BY created_at DESC, id DESC`, postID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list revisions for post %d: %v", postID, err)
		return nil, err
	}
	defer rows.Close()

	var revisions []model.RevisionSummary
	for rows.Next() {
		var rev model.RevisionSummary
		if err := rows.Scan(&rev.ID, &rev.Title, &rev.CreatedAt); err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

// FindRevision looks a revision up by its globally unique id; nil when absent.
func (r *PostRepository) FindRevision(revisionID int64) (*model.Revision, error) {
	var rev model.Revision
	err := r.DB.QueryRow(`SELECT id, post_id, title, content, meta_title, meta_description, created_at
		FROM revisions WHERE id = $1`, revisionID).Scan(
		&rev.ID, &rev.PostID, &rev.Title, &rev.Content, &rev.MetaTitle, &rev.MetaDescription, &rev.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to find revision %d: %v", revisionID, err)
		return nil, err
	}
	return &rev, nil
}
