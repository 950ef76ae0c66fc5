package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/SecureVault/internal/models"
)

// openVaultServer returns a router whose session is already authenticated.
func openVaultServer(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newTestServer(t)
	signUpAlice(t, h)
	if w := doJSON(t, h, http.MethodPost, "/api/session/pin/skip", struct{}{}); w.Code != http.StatusOK {
		t.Fatalf("pin/skip status = %d", w.Code)
	}
	return h
}

type itemsResponse struct {
	Items []models.SecretItem `json:"items"`
}

func listItems(t *testing.T, h http.Handler, kind string) []models.SecretItem {
	t.Helper()
	w := doJSON(t, h, http.MethodGet, "/api/vault/"+kind+"/items/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", w.Code, w.Body.String())
	}
	var resp itemsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	return resp.Items
}

func TestVaultList_EmptyCollection(t *testing.T) {
	h := openVaultServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/vault/notes/items/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	// an empty collection renders as [], never null
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["items"]) != "[]" {
		t.Errorf("items = %s; want []", raw["items"])
	}
}

func TestVaultAddListDelete(t *testing.T) {
	h := openVaultServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/vault/credentials/items/", AddItemRequest{
		Title:       "Bank",
		Content:     "user:pw",
		Description: "main account",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", w.Code, w.Body.String())
	}
	var created models.SecretItem
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode created item: %v", err)
	}
	if created.ID == "" || created.Title != "Bank" {
		t.Fatalf("unexpected created item: %+v", created)
	}

	items := listItems(t, h, "credentials")
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("unexpected items: %+v", items)
	}

	// the other collections stay untouched
	if items := listItems(t, h, "documents"); len(items) != 0 {
		t.Errorf("unexpected documents: %+v", items)
	}

	w = doJSON(t, h, http.MethodDelete, "/api/vault/credentials/items/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d; want %d", w.Code, http.StatusNoContent)
	}
	if items := listItems(t, h, "credentials"); len(items) != 0 {
		t.Errorf("items after delete: %+v", items)
	}

	// deleting again is still a success
	w = doJSON(t, h, http.MethodDelete, "/api/vault/credentials/items/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("repeat delete status = %d; want %d", w.Code, http.StatusNoContent)
	}
}

func TestVaultAdd_ValidationError(t *testing.T) {
	h := openVaultServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/vault/notes/items/", AddItemRequest{Description: "only"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}

	var resp struct {
		Error *errorView `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Kind != "validation" {
		t.Fatalf("unexpected error view: %+v", resp.Error)
	}
	if len(resp.Error.Fields) != 2 {
		t.Errorf("got %d field errors; want 2: %+v", len(resp.Error.Fields), resp.Error.Fields)
	}
}

func TestVault_RequiresOpenSession(t *testing.T) {
	h, _ := newTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/vault/credentials/items/", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusUnauthorized)
	}
	var resp struct {
		Error *errorView `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Kind != "not_authenticated" {
		t.Errorf("unexpected error view: %+v", resp.Error)
	}
}

func TestVault_UnknownKind(t *testing.T) {
	h := openVaultServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/vault/passwords/items/", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want %d", w.Code, http.StatusNotFound)
	}
	w = doJSON(t, h, http.MethodPost, "/api/vault/passwords/items/", AddItemRequest{Title: "x", Content: "y"})
	if w.Code != http.StatusNotFound {
		t.Errorf("add status = %d; want %d", w.Code, http.StatusNotFound)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/vault/passwords/items/1", nil)
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete status = %d; want %d", w.Code, http.StatusNotFound)
	}
}
