package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pressroom/internal/post/model"
	"pressroom/internal/post/service"
	"pressroom/middleware"
	"pressroom/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type PostHandler struct {
	Service *service.PostService
}

func NewPostHandler(service *service.PostService) *PostHandler {
	return &PostHandler{Service: service}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func pathID(r *http.Request, name string) (int64, bool) {
	params := httprouter.ParamsFromContext(r.Context())
	id, err := strconv.ParseInt(params.ByName(name), 10, 64)
	return id, err == nil && id > 0
}

// writeServiceError maps the coordinator's outcomes onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var verrs service.ValidationErrors
	var lockErr *service.LockError
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"outcome": "validation_failed",
			"errors":  verrs,
		})
	case errors.As(err, &lockErr):
		outcome := "locked"
		if lockErr.Lost {
			outcome = "lock_lost"
		}
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"outcome":   outcome,
			"locked_by": lockErr.HolderName,
			"message":   lockErr.Error(),
		})
	case errors.Is(err, service.ErrAlreadyEditing):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"outcome": "self_lock_released",
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrSlugTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrRevisionNotFound),
		errors.Is(err, service.ErrRevisionMismatch):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Sugar.Errorf("Unexpected service error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Service.ListPosts()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if posts == nil {
		posts = []model.PostSummary{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var content model.PostContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.Service.CreatePost(content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *PostHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	grant, err := h.Service.BeginEdit(postID, middleware.UserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome":   "granted",
		"post":      grant.Post,
		"revisions": grant.Revisions,
	})
}

func (h *PostHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := h.Service.CancelEdit(postID, middleware.UserID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	var content model.PostContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.SaveEdit(postID, middleware.UserID(r), content); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": "saved"})
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := h.Service.DeletePost(postID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) Restore(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := h.Service.RestorePost(postID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	revisions, err := h.Service.ListRevisions(postID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if revisions == nil {
		revisions = []model.RevisionSummary{}
	}
	writeJSON(w, http.StatusOK, revisions)
}

func (h *PostHandler) GetRevision(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	revID, ok := pathID(r, "revId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid revision id")
		return
	}

	rev, err := h.Service.GetRevision(postID, revID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *PostHandler) RestoreRevision(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	revID, ok := pathID(r, "revId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid revision id")
		return
	}

	if err := h.Service.RestoreRevision(postID, revID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": "restored"})
}
