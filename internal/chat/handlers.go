// internal/chat/handlers.go
// HTTP and websocket handlers for chat

package chat

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
	"github.com/peerfit/peerfit-backend/internal/profile"
	"github.com/peerfit/peerfit-backend/internal/ws"
)

// Handler handles HTTP requests for chat
type Handler struct {
	service Service
	log     *zap.SugaredLogger
}

// NewHandler creates a new chat handler
func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.Sugar().Named("chat"),
	}
}

// OpenSession handles POST /api/v1/chats/with/{id}
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	otherID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	session, err := h.service.GetOrCreate(r.Context(), userID, otherID)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, session)
}

// ListSessions handles GET /api/v1/chats
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}
	if sessions == nil {
		sessions = []*Session{}
	}

	utils.SuccessResponse(w, http.StatusOK, sessions)
}

// SendMessage handles POST /api/v1/chats/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.SendMessage(r.Context(), mux.Vars(r)["id"], userID, req.Content)
	if err != nil {
		h.writeChatError(w, err)
		return
	}
	if msg == nil {
		// Whitespace-only content is silently ignored.
		utils.MessageResponse(w, http.StatusOK, "Nothing to send")
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, msg)
}

// ListMessages handles GET /api/v1/chats/{id}/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	messages, err := h.service.ListMessages(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		h.writeChatError(w, err)
		return
	}
	if messages == nil {
		messages = []*Message{}
	}

	utils.SuccessResponse(w, http.StatusOK, messages)
}

// Subscribe handles GET /ws/chats/{id}. It streams the session
// history followed by live messages over a websocket.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	sessionID := mux.Vars(r)["id"]

	// The subscription outlives the HTTP request context.
	ctx, cancel := context.WithCancel(context.Background())

	messages, err := h.service.Subscribe(ctx, sessionID, userID)
	if err != nil {
		cancel()
		h.writeChatError(w, err)
		return
	}

	conn, err := ws.Upgrade(w, r)
	if err != nil {
		cancel()
		h.log.Warnw("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}

	payloads := make(chan []byte)
	go func() {
		defer close(payloads)
		for msg := range messages {
			data, err := json.Marshal(msg)
			if err != nil {
				h.log.Errorw("encoding message", "session_id", sessionID, "error", err)
				continue
			}
			select {
			case payloads <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	ws.Serve(ctx, cancel, conn, payloads, "chat", h.log)
}

func (h *Handler) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSelfChat):
		utils.ErrorResponse(w, http.StatusBadRequest, "Cannot open a chat with yourself")
	case errors.Is(err, ErrSessionNotFound):
		utils.ErrorResponse(w, http.StatusNotFound, "Chat not found")
	case errors.Is(err, ErrMessageTooLong):
		utils.ErrorResponse(w, http.StatusBadRequest, "Message is too long")
	case errors.Is(err, ErrNotParticipant):
		utils.ErrorResponse(w, http.StatusForbidden, "Not a participant of this chat")
	case errors.Is(err, profile.ErrProfileNotFound):
		utils.ErrorResponse(w, http.StatusNotFound, "User not found")
	default:
		utils.ErrorResponse(w, http.StatusInternalServerError, "Chat operation failed")
	}
}
