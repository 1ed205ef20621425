// internal/notification/handlers.go
// HTTP and websocket handlers for notifications

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/auth"
	"github.com/peerfit/peerfit-backend/internal/common/utils"
	"github.com/peerfit/peerfit-backend/internal/ws"
)

// Handler handles HTTP requests for notifications
type Handler struct {
	service Service
	log     *zap.SugaredLogger
}

// NewHandler creates a new notification handler
func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.Sugar().Named("notification"),
	}
}

// List handles GET /api/v1/notifications?unread=true
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.service.List(r.Context(), userID, unreadOnly)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []*Notification{}
	}

	utils.SuccessResponse(w, http.StatusOK, notifications)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	count, err := h.service.CountUnread(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}

	utils.SuccessResponse(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead handles PUT /api/v1/notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			utils.ErrorResponse(w, http.StatusNotFound, "Notification not found")
			return
		}
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}

	utils.MessageResponse(w, http.StatusOK, "Notification marked read")
}

// MarkAllRead handles PUT /api/v1/notifications/read-all. Partial
// success reports how many flipped and leaves the rest unread.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	marked, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.log.Warnw("mark all read incomplete", "user_id", userID, "marked", marked, "error", err)
		utils.SuccessResponse(w, http.StatusAccepted, map[string]int{"marked": marked})
		return
	}

	utils.SuccessResponse(w, http.StatusOK, map[string]int{"marked": marked})
}

// Subscribe handles GET /ws/notifications. It streams new
// notifications over a websocket as they are emitted.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	notifications, err := h.service.Subscribe(ctx, userID)
	if err != nil {
		cancel()
		utils.ErrorResponse(w, http.StatusServiceUnavailable, "Notification stream unavailable")
		return
	}

	conn, err := ws.Upgrade(w, r)
	if err != nil {
		cancel()
		h.log.Warnw("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	payloads := make(chan []byte)
	go func() {
		defer close(payloads)
		for n := range notifications {
			data, err := json.Marshal(n)
			if err != nil {
				h.log.Errorw("encoding notification", "user_id", userID, "error", err)
				continue
			}
			select {
			case payloads <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	ws.Serve(ctx, cancel, conn, payloads, "notification", h.log)
}
