package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/slimtribe/slimtribe-api/internal/models"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// SessionMiddleware resolves credentials early: a valid API key header or JWT
// session cookie puts the user ID in the request context for Authorize to
// pick up. Requests without credentials pass through untouched; each
// operation decides whether it requires a user. Cookie sessions past the
// halfway point of their lifetime get a refreshed token.
func (h *AuthHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. API Key header
		apiKey := r.Header.Get("X-API-KEY")
		if apiKey != "" {
			var keyModel models.APIKey
			if err := h.db.Where("key = ?", apiKey).First(&keyModel).Error; err == nil {
				if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
					http.Error(w, "Unauthorized: API Key expired", http.StatusUnauthorized)
					return
				}

				h.db.Model(&keyModel).Update("last_used_at", time.Now())

				ctx := context.WithValue(r.Context(), UserIDKey, keyModel.UserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		// 2. JWT cookie
		cookie, err := r.Cookie("auth_token")
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := h.parseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		h.maybeRefresh(w, cookie.Value, userID)

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// maybeRefresh reissues the session cookie once the token is more than
// halfway through its duration (sliding session).
func (h *AuthHandler) maybeRefresh(w http.ResponseWriter, tokenString string, userID uint) {
	exp, err := tokenExpiry(tokenString)
	if err != nil {
		return
	}
	if time.Until(exp) >= TokenDuration/2 {
		return
	}
	newToken, err := h.GenerateToken(userID)
	if err != nil {
		return
	}
	w.Header().Set("Set-Cookie", sessionCookie(newToken))
}

// tokenExpiry reads exp from an already-verified token.
func tokenExpiry(tokenString string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, err
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.New("no expiry claim")
	}
	return exp.Time, nil
}
