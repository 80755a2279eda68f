package repository

import (
	"database/sql"

	"pressroom/internal/media/model"
	"pressroom/pkg/logger"
)

type MediaRepository struct {
	DB *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{DB: db}
}

// GetAllImages lists the image entries for the featured-image picker.
func (r *MediaRepository) GetAllImages() ([]model.Media, error) {
	rows, err := r.DB.Query(`SELECT id, path, alt_text, mime_type, created_at
		FROM media WHERE mime_type LIKE 'image/%' ORDER BY created_at DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list media: %v", err)
		return nil, err
	}
	defer rows.Close()

	var items []model.Media
	for rows.Next() {
		var m model.Media
		if err := rows.Scan(&m.ID, &m.Path, &m.AltText, &m.MimeType, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
