// internal/follow/routes.go
// Route registration for the follow graph

package follow

import (
	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
)

// RegisterRoutes registers follow routes on the router
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/follow").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/following", handler.Following).Methods("GET")
	api.HandleFunc("/followers", handler.Followers).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.Follow).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}", handler.Unfollow).Methods("DELETE")
}
