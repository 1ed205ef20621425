// internal/feed/handlers.go
// HTTP handlers for the feed

package feed

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
	"github.com/peerfit/peerfit-backend/internal/common/utils"
	"github.com/peerfit/peerfit-backend/internal/profile"
)

// Handler handles HTTP requests for the feed
type Handler struct {
	service Service
}

// NewHandler creates a new feed handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreatePost handles POST /api/v1/posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.service.CreatePost(r.Context(), userID, req.Content)
	if err != nil {
		h.writeFeedError(w, err)
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, post)
}

// ListPosts handles GET /api/v1/posts
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	posts, err := h.service.ListPosts(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	if posts == nil {
		posts = []*Post{}
	}

	utils.SuccessResponse(w, http.StatusOK, posts)
}

// GetPost handles GET /api/v1/posts/{id}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := pathID(r)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := h.service.GetPost(r.Context(), postID, userID)
	if err != nil {
		h.writeFeedError(w, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, post)
}

// ToggleLike handles POST /api/v1/posts/{id}/like
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := pathID(r)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	result, err := h.service.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		h.writeFeedError(w, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, result)
}

// CreateReply handles POST /api/v1/posts/{id}/replies
func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := pathID(r)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var req CreateReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.service.CreateReply(r.Context(), postID, userID, req.ParentID, req.Content)
	if err != nil {
		h.writeFeedError(w, err)
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, reply)
}

// GetReplyTree handles GET /api/v1/posts/{id}/replies
func (h *Handler) GetReplyTree(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	tree, err := h.service.GetReplyTree(r.Context(), postID)
	if err != nil {
		h.writeFeedError(w, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, tree)
}

func (h *Handler) writeFeedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyContent):
		utils.ErrorResponse(w, http.StatusBadRequest, "Content cannot be empty")
	case errors.Is(err, ErrContentTooLong):
		utils.ErrorResponse(w, http.StatusBadRequest, "Content is too long")
	case errors.Is(err, ErrParentMismatch):
		utils.ErrorResponse(w, http.StatusBadRequest, "Parent reply belongs to a different post")
	case errors.Is(err, ErrPostNotFound):
		utils.ErrorResponse(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, ErrReplyNotFound):
		utils.ErrorResponse(w, http.StatusNotFound, "Reply not found")
	case errors.Is(err, profile.ErrProfileNotFound):
		utils.ErrorResponse(w, http.StatusNotFound, "User not found")
	default:
		utils.ErrorResponse(w, http.StatusInternalServerError, "Feed operation failed")
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
