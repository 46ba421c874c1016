package stats

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go_todo/internal/respond"
	"go_todo/internal/todo"
)

type Handler struct {
	store  Store
	logger *log.Logger
	owner  todo.OwnerFunc
}

func NewHandler(store Store, logger *log.Logger, owner todo.OwnerFunc) *Handler {
	if owner == nil {
		owner = func(*http.Request) string { return "" }
	}
	return &Handler{
		store:  store,
		logger: logger,
		owner:  owner,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/stats", h.handleStats)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	// 统计汇总
	summary, err := h.store.Summary(r.Context(), h.owner(r))
	if err != nil {
		respond.Internal(w, h.logger, "load stats", err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, summary)
}
