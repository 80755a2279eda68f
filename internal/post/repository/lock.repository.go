package repository

import (
	"database/sql"
	"time"

	"pressroom/internal/post/model"
	"pressroom/pkg/logger"
)

// AcquireLock claims the edit lock in a single conditional update: it only
// wins when the row is unlocked or the existing lock predates cutoff. Two
// racing requests can both read "unlocked" but only one UPDATE will match,
// which is what rules out the lost-acquire race.
func (r *PostRepository) AcquireLock(postID, userID int64, now, cutoff time.Time) (bool, error) {
	res, err := r.DB.Exec(`UPDATE posts SET locked_by = $2, locked_at = $3
		WHERE id = $1 AND deleted_at IS NULL
		AND (locked_by IS NULL OR locked_at IS NULL OR locked_at < $4)`,
		postID, userID, now, cutoff)
	if err != nil {
		logger.Sugar.Errorf("Failed to acquire lock on post %d: %v", postID, err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Unlock clears both lock columns. Idempotent.
func (r *PostRepository) Unlock(postID int64) error {
	_, err := r.DB.Exec(`UPDATE posts SET locked_by = NULL, locked_at = NULL WHERE id = $1`, postID)
	if err != nil {
		logger.Sugar.Errorf("Failed to unlock post %d: %v", postID, err)
	}
	return err
}

// GetLock returns the stored lock fields with the holder's display name, or
// nil when no lock fields are set. No TTL is applied here; expired is a
// derived predicate the service computes from LockedAt.
func (r *PostRepository) GetLock(postID int64) (*model.LockInfo, error) {
	var info model.LockInfo
	err := r.DB.QueryRow(`SELECT p.locked_by, p.locked_at, COALESCE(u.name, '')
		FROM posts p
		LEFT JOIN users u ON u.id = p.locked_by
		WHERE p.id = $1 AND p.locked_by IS NOT NULL AND p.locked_at IS NOT NULL`,
		postID).Scan(&info.UserID, &info.LockedAt, &info.UserName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to read lock on post %d: %v", postID, err)
		return nil, err
	}
	return &info, nil
}
