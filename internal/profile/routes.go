// internal/profile/routes.go

package profile

import (
	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
)

// RegisterRoutes wires profile endpoints onto the router
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/profiles").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.ListProfiles).Methods("GET")
	api.HandleFunc("", handler.CreateProfile).Methods("POST")
	api.HandleFunc("/me", handler.GetMyProfile).Methods("GET")
	api.HandleFunc("/me", handler.UpdateMyProfile).Methods("PUT")
	api.HandleFunc("/me", handler.DeactivateMyProfile).Methods("DELETE")
	api.HandleFunc("/me/reactivate", handler.ReactivateMyProfile).Methods("POST")
	api.HandleFunc("/username-check", handler.CheckUsername).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", handler.GetProfile).Methods("GET")
}
