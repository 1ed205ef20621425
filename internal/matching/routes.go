// internal/matching/routes.go
// Route registration for matching

package matching

import (
	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
)

// RegisterRoutes registers matching routes on the router
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/recommendations", handler.Recommend).Methods("GET")
	api.HandleFunc("/matches", handler.Matches).Methods("GET")
}
