package main

import (
	"net/http"

	"github.com/studiofisyo/ledger/internal/push"
	"github.com/studiofisyo/ledger/internal/registrar"
	"github.com/studiofisyo/ledger/pkg/authn"
	"github.com/studiofisyo/ledger/pkg/jsonutil"
	"github.com/studiofisyo/ledger/pkg/observability"
)

// SubscriptionHandler is the server side of the registrar: devices upsert and
// delete their own subscriptions under the authenticated account.
type SubscriptionHandler struct {
	store  registrar.Store
	logger *observability.Logger
}

func (h *SubscriptionHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	account, ok := authn.AccountFromContext(r.Context())
	if !ok {
		jsonutil.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Endpoint string    `json:"endpoint"`
		Keys     push.Keys `json:"keys"`
	}
	if err := jsonutil.DecodeJSON(r, &req); err != nil {
		jsonutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub := push.Subscription{AccountID: account, Endpoint: req.Endpoint, Keys: req.Keys}
	if !sub.Valid() {
		jsonutil.WriteError(w, http.StatusBadRequest, "endpoint, keys.p256dh and keys.auth are required")
		return
	}

	stored, err := h.store.UpsertSubscription(r.Context(), sub)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to save subscription", "account_id", account, "error", err)
		jsonutil.WriteError(w, http.StatusInternalServerError, "Failed to save subscription")
		return
	}

	jsonutil.WriteJSON(w, http.StatusCreated, map[string]string{"id": stored.ID})
}

func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, ok := authn.AccountFromContext(r.Context())
	if !ok {
		jsonutil.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := jsonutil.DecodeJSON(r, &req); err != nil || req.Endpoint == "" {
		jsonutil.WriteError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.store.DeleteSubscriptionByEndpoint(r.Context(), account, req.Endpoint); err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to delete subscription", "account_id", account, "error", err)
		jsonutil.WriteError(w, http.StatusInternalServerError, "Failed to delete subscription")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
