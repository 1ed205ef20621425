// internal/profile/handlers.go

package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/peerfit/peerfit-backend/internal/auth"
	"github.com/peerfit/peerfit-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateProfile handles POST /api/v1/profiles
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			utils.ErrorResponse(w, http.StatusConflict, "Username already taken")
			return
		}
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, p)
}

// GetProfile handles GET /api/v1/profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.ErrorResponse(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	utils.SuccessResponse(w, http.StatusOK, p)
}

// GetMyProfile handles GET /api/v1/profiles/me
func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.ErrorResponse(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	utils.SuccessResponse(w, http.StatusOK, p)
}

// ListProfiles handles GET /api/v1/profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.GetAll(r.Context())
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	utils.SuccessResponse(w, http.StatusOK, profiles)
}

// UpdateMyProfile handles PUT /api/v1/profiles/me
func (h *Handler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Update(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.ErrorResponse(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessResponse(w, http.StatusOK, p)
}

// CheckUsername handles GET /api/v1/profiles/username-check?username=
func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		utils.ErrorResponse(w, http.StatusBadRequest, "username query parameter is required")
		return
	}

	exists, err := h.service.UsernameExists(r.Context(), username)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to check username")
		return
	}

	utils.SuccessResponse(w, http.StatusOK, map[string]bool{"exists": exists})
}

// DeactivateMyProfile handles DELETE /api/v1/profiles/me
func (h *Handler) DeactivateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Deactivate(r.Context(), userID); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.ErrorResponse(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to deactivate profile")
		return
	}

	utils.MessageResponse(w, http.StatusOK, "Profile deactivated")
}

// ReactivateMyProfile handles POST /api/v1/profiles/me/reactivate
func (h *Handler) ReactivateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Reactivate(r.Context(), userID); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.ErrorResponse(w, http.StatusNotFound, "Profile not found")
			return
		}
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to reactivate profile")
		return
	}

	utils.MessageResponse(w, http.StatusOK, "Profile reactivated")
}
