package handler

import (
	"net/http"
	"strconv"

	"pressroom/internal/post/model"

	"github.com/julienschmidt/httprouter"
)

// publicPost strips the admin-only fields from a post before it leaves the
// public endpoints.
type publicPost struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	Content         string  `json:"content"`
	FeaturedMediaID *int64  `json:"featured_media_id,omitempty"`
	PublishedAt     string  `json:"published_at,omitempty"`
	MetaTitle       *string `json:"meta_title,omitempty"`
	MetaDescription *string `json:"meta_description,omitempty"`
}

func toPublic(p model.Post) publicPost {
	out := publicPost{
		ID: p.ID, Title: p.Title, Slug: p.Slug, Content: p.Content,
		FeaturedMediaID: p.FeaturedMediaID, MetaTitle: p.MetaTitle, MetaDescription: p.MetaDescription,
	}
	if p.PublishedAt != nil {
		out.PublishedAt = p.PublishedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

// PublicList serves the front page: the newest published posts.
func (h *PostHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	posts, err := h.Service.PublishedPosts(limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]publicPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPublic(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// PublicShow serves a single published post by slug.
func (h *PostHandler) PublicShow(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	slug := params.ByName("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "missing slug")
		return
	}

	post, err := h.Service.PublishedBySlug(slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublic(*post))
}
