// internal/feed/routes.go
// Route registration for the feed

package feed

import (
	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
)

// RegisterRoutes registers feed routes on the router
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/posts").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.CreatePost).Methods("POST")
	api.HandleFunc("", handler.ListPosts).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.GetPost).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}/like", handler.ToggleLike).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}/replies", handler.CreateReply).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}/replies", handler.GetReplyTree).Methods("GET")
}
