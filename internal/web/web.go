package web

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type pageData struct {
	Title       string
	AuthEnabled bool
}

type Handler struct {
	logger *log.Logger
	data   pageData
}

func NewHandler(logger *log.Logger, authEnabled bool) *Handler {
	return &Handler{
		logger: logger,
		data:   pageData{Title: "Todo List", AuthEnabled: authEnabled},
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleIndex)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	// 先渲染到缓冲区，模板出错时仍能返回 500
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, h.data); err != nil {
		h.logger.Printf("render index: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
