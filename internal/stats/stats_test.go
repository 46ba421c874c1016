package stats

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_todo/internal/todo"
)

func TestListStoreSummary(t *testing.T) {
	ctx := context.Background()
	todos := todo.NewMemoryStore()

	for _, title := range []string{"one", "two", "three"} {
		_, err := todos.Create(ctx, "alice", todo.CreateInput{Title: title})
		require.NoError(t, err)
	}
	done, err := todos.Create(ctx, "alice", todo.CreateInput{Title: "done"})
	require.NoError(t, err)
	completed := true
	_, err = todos.Update(ctx, "alice", done.ID, todo.UpdateInput{Completed: &completed})
	require.NoError(t, err)
	_, err = todos.Create(ctx, "bob", todo.CreateInput{Title: "bob's"})
	require.NoError(t, err)

	store := NewListStore(todos)

	summary, err := store.Summary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 4, Completed: 1}, summary)

	summary, err = store.Summary(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 5, Completed: 1}, summary)
}

func TestStatsHandler(t *testing.T) {
	ctx := context.Background()
	todos := todo.NewMemoryStore()
	_, err := todos.Create(ctx, "", todo.CreateInput{Title: "only"})
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(NewListStore(todos), log.New(io.Discard, "", 0), nil).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, Summary{Total: 1, Completed: 0}, summary)
}
