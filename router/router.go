package router

import (
	"database/sql"
	"net/http"
	"os"

	authHandler "pressroom/internal/auth"
	authRepository "pressroom/internal/auth/repository"
	authService "pressroom/internal/auth/service"
	mediaHandler "pressroom/internal/media"
	mediaRepository "pressroom/internal/media/repository"
	postHandler "pressroom/internal/post"
	postRepository "pressroom/internal/post/repository"
	postService "pressroom/internal/post/service"
	"pressroom/middleware"
	"pressroom/socket"

	"github.com/julienschmidt/httprouter"
)

// Setup wires repositories, services and handlers onto the route table.
func Setup(db *sql.DB, hub *socket.Hub) http.Handler {
	r := httprouter.New()

	posts := postHandler.NewPostHandler(postService.NewPostService(postRepository.NewPostRepository(db), hub))
	auth := authHandler.NewAuthHandler(authService.NewAuthService(
		authRepository.NewUserRepository(db), []byte(os.Getenv("JWT_SECRET"))))
	media := mediaHandler.NewMediaHandler(mediaRepository.NewMediaRepository(db))

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(h)
	}
	// Post mutation is role-gated; viewing the admin list only needs a login.
	editor := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(middleware.RequireRole("editor", "admin")(h))
	}

	r.Handler(http.MethodPost, "/api/auth/login", http.HandlerFunc(auth.Login))

	r.Handler(http.MethodGet, "/api/posts", authed(posts.List))
	r.Handler(http.MethodPost, "/api/posts", editor(posts.Create))
	r.Handler(http.MethodGet, "/api/posts/:id/edit", editor(posts.BeginEdit))
	r.Handler(http.MethodPost, "/api/posts/:id/cancel-edit", editor(posts.CancelEdit))
	r.Handler(http.MethodPut, "/api/posts/:id", editor(posts.Save))
	r.Handler(http.MethodDelete, "/api/posts/:id", editor(posts.Delete))
	r.Handler(http.MethodPost, "/api/posts/:id/restore", editor(posts.Restore))
	r.Handler(http.MethodGet, "/api/posts/:id/revisions", authed(posts.ListRevisions))
	r.Handler(http.MethodGet, "/api/posts/:id/revisions/:revId", authed(posts.GetRevision))
	r.Handler(http.MethodPost, "/api/posts/:id/revisions/:revId/restore", editor(posts.RestoreRevision))

	r.Handler(http.MethodGet, "/api/media", authed(media.ListImages))

	// Lock-activity feed for open admin pages.
	r.Handler(http.MethodGet, "/ws", authed(func(w http.ResponseWriter, req *http.Request) {
		socket.ServeWs(hub, w, req, middleware.UserID(req))
	}))

	// Public front controller.
	r.Handler(http.MethodGet, "/public/posts", http.HandlerFunc(posts.PublicList))
	r.Handler(http.MethodGet, "/public/posts/:slug", http.HandlerFunc(posts.PublicShow))

	return middleware.CORS(middleware.RequestID(r))
}
