// internal/notification/routes.go
// Route registration for notifications

package notification

import (
	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
)

// RegisterRoutes registers notification routes on the router
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/notifications").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.List).Methods("GET")
	api.HandleFunc("/unread-count", handler.UnreadCount).Methods("GET")
	api.HandleFunc("/read-all", handler.MarkAllRead).Methods("PUT")
	api.HandleFunc("/{id:[0-9]+}/read", handler.MarkRead).Methods("PUT")

	wsRouter := router.PathPrefix("/ws/notifications").Subrouter()
	wsRouter.Use(authMiddleware.Authenticate)
	wsRouter.HandleFunc("", handler.Subscribe).Methods("GET")
}
