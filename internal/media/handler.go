package handler

import (
	"encoding/json"
	"net/http"

	"pressroom/internal/media/model"
	"pressroom/internal/media/repository"
	"pressroom/pkg/logger"
)

type MediaHandler struct {
	Repo *repository.MediaRepository
}

func NewMediaHandler(repo *repository.MediaRepository) *MediaHandler {
	return &MediaHandler{Repo: repo}
}

func (h *MediaHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.GetAllImages()
	if err != nil {
		logger.Sugar.Errorf("Error fetching media: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []model.Media{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}
