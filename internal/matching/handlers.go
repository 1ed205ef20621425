// internal/matching/handlers.go
// HTTP handlers for recommendations and matches

package matching

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/peerfit/peerfit-backend/internal/auth"
	"github.com/peerfit/peerfit-backend/internal/common/utils"
	"github.com/peerfit/peerfit-backend/internal/profile"
)

// Handler handles HTTP requests for matching
type Handler struct {
	engine       *Engine
	limitDefault int
	limitMax     int
}

// NewHandler creates a new matching handler
func NewHandler(engine *Engine, limitDefault, limitMax int) *Handler {
	return &Handler{engine: engine, limitDefault: limitDefault, limitMax: limitMax}
}

// Recommend handles GET /api/v1/matching/recommendations?limit=N
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit := h.limitDefault
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.ErrorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > h.limitMax {
			n = h.limitMax
		}
		limit = n
	}

	candidates, err := h.engine.Recommend(r.Context(), userID, limit)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, candidates)
}

// Matches handles GET /api/v1/matching/matches
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	candidates, err := h.engine.Matches(r.Context(), userID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, candidates)
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, profile.ErrProfileNotFound) {
		utils.ErrorResponse(w, http.StatusNotFound, "Profile not found")
		return
	}
	utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to rank candidates")
}
