package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/catalog/application"
	"storefront/internal/storage/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)

	log := slog.New(slog.DiscardHandler)
	svc := application.NewService(log, store.Catalog())

	r := chi.NewRouter()
	r.Use(auth.Middleware)
	r.Mount("/", NewHandler(log, svc).Routes())
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-Id", uuid.NewString())
	req.Header.Set("X-User-Role", role)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateProductEndpoint(t *testing.T) {
	h := newTestRouter(t)

	t.Run("admin creates a product", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/products", "admin", map[string]string{
			"name":  "Widget",
			"price": "299.99",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Widget", resp["name"])
		assert.Equal(t, "299.99", resp["price"])
	})

	t.Run("customer is forbidden", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/products", "customer", map[string]string{
			"name":  "Gadget",
			"price": "1.00",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/products", "admin", map[string]string{
			"name":  "widget",
			"price": "1.00",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("non-positive price rejected", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/products", "admin", map[string]string{
			"name":  "Freebie",
			"price": "0",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProductVisibility(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/products", "admin", map[string]string{
		"name":  "Widget",
		"price": "9.99",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["id"].(string)

	rec = doJSON(t, h, http.MethodDelete, "/products/"+id, "admin", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	t.Run("deleted product hidden from reads", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/products/"+id, "customer", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("admin resolves deleted product by id", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/products/"+id, "admin", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["deleted_at"])
	})

	t.Run("deleted product hidden from listing", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/products", "customer", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Items []json.RawMessage `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Items)
	})

	t.Run("admin listing can include deleted", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/products?include_deleted=true", "admin", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Items []json.RawMessage `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Items, 1)
	})

	t.Run("restore makes it visible again", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/products/"+id+"/restore", "admin", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/products/"+id, "customer", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMissingIdentityRejected(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
