// internal/chat/routes.go
// Route registration for chat

package chat

import (
	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
)

// RegisterRoutes registers chat routes on the router
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/chats").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.ListSessions).Methods("GET")
	api.HandleFunc("/with/{id:[0-9]+}", handler.OpenSession).Methods("POST")
	api.HandleFunc("/{id}/messages", handler.SendMessage).Methods("POST")
	api.HandleFunc("/{id}/messages", handler.ListMessages).Methods("GET")

	wsRouter := router.PathPrefix("/ws/chats").Subrouter()
	wsRouter.Use(authMiddleware.Authenticate)
	wsRouter.HandleFunc("/{id}", handler.Subscribe).Methods("GET")
}
