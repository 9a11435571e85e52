package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/slimtribe/slimtribe-api/internal/auth"
	"github.com/slimtribe/slimtribe-api/internal/models"
	"gorm.io/gorm"
)

// Keys issued here authenticate trackers and scale integrations that
// push weight entries without a browser session.
type APIKeyHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

// keyPrefix makes SlimTribe keys recognizable in support logs.
const keyPrefix = "st_"

// defaultKeyTTL bounds keys whose creator did not pick an expiry.
const defaultKeyTTL = 90 * 24 * time.Hour

func NewAPIKeyHandler(db *gorm.DB, authHandler *auth.AuthHandler) *APIKeyHandler {
	return &APIKeyHandler{db: db, authHandler: authHandler}
}

type CreateAPIKeyRequest struct {
	auth.AuthInput
	Body struct {
		Label     string     `json:"label" doc:"What this key is for, e.g. the device name"`
		ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Defaults to 90 days from now"`
	}
}

type APIKeySummary struct {
	ID         uint       `json:"id"`
	Label      string     `json:"label"`
	Key        string     `json:"key" doc:"Full value on creation, masked afterwards"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

type CreateAPIKeyResponse struct {
	Body APIKeySummary
}

func newKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return keyPrefix + hex.EncodeToString(raw), nil
}

func maskKey(key string) string {
	if len(key) <= len(keyPrefix)+4 {
		return key
	}
	return keyPrefix + "..." + key[len(key)-4:]
}

func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyRequest) (*CreateAPIKeyResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Body.Label) == "" {
		return nil, huma.Error400BadRequest("Key label is required")
	}

	expiresAt := input.Body.ExpiresAt
	if expiresAt == nil {
		e := time.Now().Add(defaultKeyTTL)
		expiresAt = &e
	} else if expiresAt.Before(time.Now()) {
		return nil, huma.Error400BadRequest("Expiry must be in the future")
	}

	key, err := newKey()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate key")
	}

	apiKey := models.APIKey{
		UserID:    userID,
		Key:       key,
		Name:      input.Body.Label,
		ExpiresAt: expiresAt,
	}
	if err := h.db.Create(&apiKey).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create API key")
	}

	// The only response that carries the full key.
	return &CreateAPIKeyResponse{
		Body: APIKeySummary{
			ID:        apiKey.ID,
			Label:     apiKey.Name,
			Key:       apiKey.Key,
			CreatedAt: apiKey.CreatedAt,
			ExpiresAt: apiKey.ExpiresAt,
		},
	}, nil
}

type ListAPIKeysRequest struct {
	auth.AuthInput
}

type ListAPIKeysResponse struct {
	Body []APIKeySummary
}

func (h *APIKeyHandler) HandleList(ctx context.Context, input *ListAPIKeysRequest) (*ListAPIKeysResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var keys []models.APIKey
	if err := h.db.Where("user_id = ?", userID).Order("created_at desc").Find(&keys).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list API keys")
	}

	summaries := make([]APIKeySummary, 0, len(keys))
	for _, k := range keys {
		summaries = append(summaries, APIKeySummary{
			ID:         k.ID,
			Label:      k.Name,
			Key:        maskKey(k.Key),
			CreatedAt:  k.CreatedAt,
			ExpiresAt:  k.ExpiresAt,
			LastUsedAt: k.LastUsedAt,
		})
	}

	return &ListAPIKeysResponse{Body: summaries}, nil
}

type DeleteAPIKeyRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyRequest) (*struct{}, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	result := h.db.Where("id = ? AND user_id = ?", input.ID, userID).Delete(&models.APIKey{})
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to delete API key")
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("API key not found")
	}

	return nil, nil
}
