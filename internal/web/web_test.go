package web

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexPage(t *testing.T) {
	for _, authEnabled := range []bool{false, true} {
		r := chi.NewRouter()
		NewHandler(log.New(io.Discard, "", 0), authEnabled).Register(r)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		body := rec.Body.String()
		assert.Contains(t, body, "/todos")
		if authEnabled {
			assert.Contains(t, body, "login-form")
			assert.Regexp(t, `const authEnabled =\s*true\s*;`, body)
		} else {
			assert.NotContains(t, body, "login-form\">")
			assert.Regexp(t, `const authEnabled =\s*false\s*;`, body)
		}
	}
}
