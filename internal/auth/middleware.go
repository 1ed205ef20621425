// internal/auth/middleware.go
// Bearer-token middleware resolving the acting user.
// Token issuance lives with the identity provider; this service only
// verifies tokens it is handed and extracts the user id for handlers.

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/peerfit/peerfit-backend/internal/common/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// Claims are the token claims this service understands
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Middleware provides authentication middleware
type Middleware struct {
	secret []byte
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(secret string) *Middleware {
	return &Middleware{secret: []byte(secret)}
}

// Authenticate verifies the bearer token and adds the user id to the
// request context
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			utils.ErrorResponse(w, http.StatusUnauthorized, "Missing or invalid authorization header")
			return
		}

		claims, err := m.parseToken(token)
		if err != nil {
			utils.ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// extractToken pulls the token out of a "Bearer <token>" header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// UserIDFromContext extracts the acting user id from a request context
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// WithUserID returns a context carrying the given user id. Used by the
// websocket upgrade path and by tests.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
