package todo

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTodoTestRouter(store Store, owner OwnerFunc) http.Handler {
	logger := log.New(io.Discard, "", 0)
	r := chi.NewRouter()
	NewHandler(store, logger, owner).Register(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), "decode response")
}

func TestHandlerCRUD(t *testing.T) {
	router := newTodoTestRouter(NewMemoryStore(), nil)

	rec := doRequest(t, router, http.MethodPost, "/todos", `{"title":"Buy milk","description":"semi-skimmed"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Todo
	decodeResponse(t, rec, &created)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.Completed)

	rec = doRequest(t, router, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Todo
	decodeResponse(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = doRequest(t, router, http.MethodGet, "/todos/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/todos/"+created.ID, `{"completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated Todo
	decodeResponse(t, rec, &updated)
	assert.True(t, updated.Completed)
	assert.Equal(t, "semi-skimmed", updated.Description)

	rec = doRequest(t, router, http.MethodDelete, "/todos/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msg map[string]string
	decodeResponse(t, rec, &msg)
	assert.Equal(t, "todo deleted", msg["message"])

	rec = doRequest(t, router, http.MethodGet, "/todos/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var errBody map[string]string
	decodeResponse(t, rec, &errBody)
	assert.Equal(t, "todo not found", errBody["error"])
}

func TestHandlerJSONShape(t *testing.T) {
	router := newTodoTestRouter(NewMemoryStore(), func(*http.Request) string { return "owner-1" })

	rec := doRequest(t, router, http.MethodPost, "/todos", `{"title":"shape"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var raw map[string]any
	decodeResponse(t, rec, &raw)
	for _, key := range []string{"id", "title", "description", "completed", "created_at", "updated_at"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "owner_id")
	assert.NotContains(t, raw, "OwnerID")
}

func TestHandlerValidation(t *testing.T) {
	store := NewMemoryStore()
	router := newTodoTestRouter(store, nil)

	rec := doRequest(t, router, http.MethodPost, "/todos", `{"title":"seed"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var seed Todo
	decodeResponse(t, rec, &seed)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing title", http.MethodPost, "/todos", `{"description":"x"}`, http.StatusBadRequest},
		{"blank title", http.MethodPost, "/todos", `{"title":"  "}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/todos", `{"title":"x","priority":1}`, http.StatusBadRequest},
		{"two objects", http.MethodPost, "/todos", `{"title":"x"}{"title":"y"}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/todos", ``, http.StatusBadRequest},
		{"empty update", http.MethodPut, "/todos/" + seed.ID, `{}`, http.StatusBadRequest},
		{"blank title update", http.MethodPut, "/todos/" + seed.ID, `{"title":""}`, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/todos/nope", `{"completed":true}`, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/todos/nope", ``, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlerPatchAlias(t *testing.T) {
	router := newTodoTestRouter(NewMemoryStore(), nil)

	rec := doRequest(t, router, http.MethodPost, "/todos", `{"title":"patch me"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Todo
	decodeResponse(t, rec, &created)

	rec = doRequest(t, router, http.MethodPatch, "/todos/"+created.ID, `{"description":"patched"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated Todo
	decodeResponse(t, rec, &updated)
	assert.Equal(t, "patched", updated.Description)
	assert.Equal(t, "patch me", updated.Title)
}

func TestHandlerOwnerIsolation(t *testing.T) {
	store := NewMemoryStore()
	owner := func(r *http.Request) string { return r.Header.Get("X-Test-Owner") }
	router := newTodoTestRouter(store, owner)

	create := func(who, title string) Todo {
		req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"`+title+`"}`))
		req.Header.Set("X-Test-Owner", who)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		var todo Todo
		decodeResponse(t, rec, &todo)
		return todo
	}

	create("alice", "alice's")
	bobs := create("bob", "bob's")

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("X-Test-Owner", "alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Todo
	decodeResponse(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "alice's", list[0].Title)

	req = httptest.NewRequest(http.MethodGet, "/todos/"+bobs.ID, nil)
	req.Header.Set("X-Test-Owner", "alice")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
