// internal/follow/handlers.go
// HTTP handlers for the follow graph

package follow

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
	"github.com/peerfit/peerfit-backend/internal/common/utils"
)

// Handler handles HTTP requests for follow operations
type Handler struct {
	service Service
}

// NewHandler creates a new follow handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Follow handles POST /api/v1/follow/{id}
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	targetID, err := pathID(r)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.service.Follow(r.Context(), userID, targetID); err != nil {
		h.writeFollowError(w, err)
		return
	}

	utils.MessageResponse(w, http.StatusOK, "Now following user")
}

// Unfollow handles DELETE /api/v1/follow/{id}
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	targetID, err := pathID(r)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.service.Unfollow(r.Context(), userID, targetID); err != nil {
		h.writeFollowError(w, err)
		return
	}

	utils.MessageResponse(w, http.StatusOK, "Unfollowed user")
}

// Following handles GET /api/v1/follow/following
func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	h.edgeList(w, r, h.service.Following)
}

// Followers handles GET /api/v1/follow/followers
func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	h.edgeList(w, r, h.service.Followers)
}

func (h *Handler) edgeList(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int64) ([]int64, error)) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ids, err := fetch(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	utils.SuccessResponse(w, http.StatusOK, ids)
}

func (h *Handler) writeFollowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSelfFollow):
		utils.ErrorResponse(w, http.StatusBadRequest, "Cannot follow yourself")
	case errors.Is(err, ErrUserNotFound):
		utils.ErrorResponse(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrPartialGraphUpdate):
		utils.ErrorResponse(w, http.StatusInternalServerError, "Follow update incomplete, please retry")
	default:
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to update follow state")
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
