package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/SecureVault/internal/models"
)

// Vault defines the vault operations required by the HTTP handlers.
type Vault interface {
	// ListItems returns the items of the named collection in insertion
	// order.
	ListItems(ctx context.Context, kind models.CollectionKind) ([]models.SecretItem, error)
	// AddItem appends a new item to the named collection.
	AddItem(ctx context.Context, kind models.CollectionKind, title, content, description string) (*models.SecretItem, error)
	// DeleteItem removes the item with the given id, a no-op when absent.
	DeleteItem(ctx context.Context, kind models.CollectionKind, itemID string) error
}

// VaultHandler handles HTTP requests for the active account's secret
// collections.
type VaultHandler struct {
	// Vault performs the underlying collection operations.
	Vault Vault
}

// AddItemRequest represents the JSON payload for creating a secret item.
type AddItemRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// List handles GET /api/vault/{kind}/items.
func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	items, err := h.Vault.ListItems(r.Context(), kind)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	if items == nil {
		items = []models.SecretItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

// Add handles POST /api/vault/{kind}/items.
func (h *VaultHandler) Add(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	item, err := h.Vault.AddItem(r.Context(), kind, req.Title, req.Content, req.Description)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(item)
}

// Delete handles DELETE /api/vault/{kind}/items/{id}. Deleting an unknown
// id succeeds, matching the idempotent service semantics.
func (h *VaultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	if err := h.Vault.DeleteItem(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		writeVaultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// kindParam parses the {kind} route parameter, rejecting unknown kinds.
func kindParam(w http.ResponseWriter, r *http.Request) (models.CollectionKind, bool) {
	kind, err := models.ParseCollectionKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return "", false
	}
	return kind, true
}

// writeVaultError writes a vault operation error as a structured JSON body.
func writeVaultError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	_ = json.NewEncoder(w).Encode(map[string]any{"error": viewOf(err)})
}
