package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"newswire/internal/models"
	pkgauth "newswire/pkg/auth"
	pkghttp "newswire/pkg/http"
)

// SubscriptionStore persists email subscriptions.
type SubscriptionStore interface {
	Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	DeactivateByToken(ctx context.Context, token string) error
}

// SubscriptionHandler handles subscribe and unsubscribe requests.
type SubscriptionHandler struct {
	store SubscriptionStore
}

func NewSubscriptionHandler(store SubscriptionStore) *SubscriptionHandler {
	return &SubscriptionHandler{store: store}
}

// SubscribeRequest represents the request body for subscribing
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Subscribe handles POST /subscriptions.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	token, err := pkgauth.GenerateSessionToken()
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to create subscription")
		return
	}

	sub := &models.Subscription{
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		UnsubscribeToken: token,
		IsActive:         true,
	}

	if _, err := h.store.Create(r.Context(), sub); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Resubscribing an existing address is not an error worth
			// surfacing to the subscriber.
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
			return
		}
		pkghttp.WriteInternalError(w, "Failed to create subscription")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// Unsubscribe handles GET /subscriptions/unsubscribe?token=. This is the
// link embedded in every notification email, so it must work from a plain
// browser click with no auth.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		pkghttp.WriteBadRequest(w, "Unsubscribe token is required")
		return
	}

	if err := h.store.DeactivateByToken(r.Context(), token); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Unknown or already used unsubscribe link")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to unsubscribe")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "You have been unsubscribed from article notifications",
	})
}
