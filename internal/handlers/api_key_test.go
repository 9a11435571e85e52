package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/slimtribe/slimtribe-api/internal/models"
)

func TestHandleCreateAPIKey(t *testing.T) {
	db := setupDB(t)
	handler := NewAPIKeyHandler(db, testAuth(t, db))

	user := models.User{Email: "keys@example.com", Username: "keys"}
	db.Create(&user)

	t.Run("MissingLabel", func(t *testing.T) {
		req := &CreateAPIKeyRequest{}
		req.Body.Label = "   "
		if _, err := handler.HandleCreate(identity(user.ID), req); statusOf(t, err) != 400 {
			t.Errorf("expected 400 for blank label, got %v", err)
		}
	})

	t.Run("PastExpiry", func(t *testing.T) {
		expired := time.Now().AddDate(0, 0, -1)
		req := &CreateAPIKeyRequest{}
		req.Body.Label = "old scale"
		req.Body.ExpiresAt = &expired
		if _, err := handler.HandleCreate(identity(user.ID), req); statusOf(t, err) != 400 {
			t.Errorf("expected 400 for past expiry, got %v", err)
		}
	})

	t.Run("DefaultExpiry", func(t *testing.T) {
		req := &CreateAPIKeyRequest{}
		req.Body.Label = "bathroom scale"
		resp, err := handler.HandleCreate(identity(user.ID), req)
		if err != nil {
			t.Fatalf("HandleCreate returned error: %v", err)
		}
		if !strings.HasPrefix(resp.Body.Key, keyPrefix) {
			t.Errorf("key %q missing %q prefix", resp.Body.Key, keyPrefix)
		}
		if resp.Body.ExpiresAt == nil {
			t.Fatal("expected a default expiry to be set")
		}
		remaining := time.Until(*resp.Body.ExpiresAt)
		if remaining < defaultKeyTTL-time.Hour || remaining > defaultKeyTTL {
			t.Errorf("default expiry %v not near %v out", resp.Body.ExpiresAt, defaultKeyTTL)
		}
	})
}

func TestHandleListAPIKeysMasks(t *testing.T) {
	db := setupDB(t)
	handler := NewAPIKeyHandler(db, testAuth(t, db))

	user := models.User{Email: "keys@example.com", Username: "keys"}
	db.Create(&user)

	req := &CreateAPIKeyRequest{}
	req.Body.Label = "garmin sync"
	created, err := handler.HandleCreate(identity(user.ID), req)
	if err != nil {
		t.Fatalf("HandleCreate returned error: %v", err)
	}

	resp, err := handler.HandleList(identity(user.ID), &ListAPIKeysRequest{})
	if err != nil {
		t.Fatalf("HandleList returned error: %v", err)
	}
	if len(resp.Body) != 1 {
		t.Fatalf("expected 1 key, got %d", len(resp.Body))
	}
	listed := resp.Body[0].Key
	if listed == created.Body.Key {
		t.Error("list leaked the full key")
	}
	if !strings.HasPrefix(listed, keyPrefix+"...") {
		t.Errorf("masked key %q has unexpected shape", listed)
	}
	if !strings.HasSuffix(created.Body.Key, strings.TrimPrefix(listed, keyPrefix+"...")) {
		t.Errorf("mask tail of %q does not match key", listed)
	}
}

func TestHandleDeleteAPIKey(t *testing.T) {
	db := setupDB(t)
	handler := NewAPIKeyHandler(db, testAuth(t, db))

	owner := models.User{Email: "owner@example.com", Username: "owner"}
	db.Create(&owner)
	other := models.User{Email: "other@example.com", Username: "other"}
	db.Create(&other)

	req := &CreateAPIKeyRequest{}
	req.Body.Label = "fitbit bridge"
	created, err := handler.HandleCreate(identity(owner.ID), req)
	if err != nil {
		t.Fatalf("HandleCreate returned error: %v", err)
	}

	t.Run("NotOwner", func(t *testing.T) {
		del := &DeleteAPIKeyRequest{ID: created.Body.ID}
		if _, err := handler.HandleDelete(identity(other.ID), del); statusOf(t, err) != 404 {
			t.Errorf("expected 404 for someone else's key, got %v", err)
		}
	})

	t.Run("Owner", func(t *testing.T) {
		del := &DeleteAPIKeyRequest{ID: created.Body.ID}
		if _, err := handler.HandleDelete(identity(owner.ID), del); err != nil {
			t.Fatalf("HandleDelete returned error: %v", err)
		}
		var count int64
		db.Model(&models.APIKey{}).Where("user_id = ?", owner.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected key to be gone, found %d rows", count)
		}
	})
}
