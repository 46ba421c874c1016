package todo

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go_todo/internal/respond"
)

// OwnerFunc returns the identity that scopes store calls for a request.
type OwnerFunc func(r *http.Request) string

type Handler struct {
	store  Store
	logger *log.Logger
	owner  OwnerFunc
}

func NewHandler(store Store, logger *log.Logger, owner OwnerFunc) *Handler {
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
	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.handleListTodos)
		r.Post("/", h.handleCreateTodo)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetTodo)
			r.Put("/", h.handleUpdateTodo)
			r.Patch("/", h.handleUpdateTodo)
			r.Delete("/", h.handleDeleteTodo)
		})
	})
}

func (h *Handler) handleListTodos(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context(), h.owner(r))
	if err != nil {
		respond.Internal(w, h.logger, "list todos", err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, items)
}

func (h *Handler) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.store.Get(r.Context(), h.owner(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, "get todo", err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, todo)
}

func (h *Handler) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := respond.DecodeJSON(w, r, &input); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.store.Create(r.Context(), h.owner(r), input)
	if err != nil {
		h.writeStoreError(w, "create todo", err)
		return
	}
	respond.JSON(w, h.logger, http.StatusCreated, todo)
}

func (h *Handler) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	// 更新资源（支持部分字段）
	var input UpdateInput
	if err := respond.DecodeJSON(w, r, &input); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if input.empty() {
		respond.Error(w, h.logger, http.StatusBadRequest, "provide title, description or completed")
		return
	}

	todo, err := h.store.Update(r.Context(), h.owner(r), chi.URLParam(r, "id"), input)
	if err != nil {
		h.writeStoreError(w, "update todo", err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, todo)
}

func (h *Handler) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), h.owner(r), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, "delete todo", err)
		return
	}
	respond.Message(w, h.logger, http.StatusOK, "todo deleted")
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, h.logger, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTitleRequired):
		respond.Error(w, h.logger, http.StatusBadRequest, err.Error())
	default:
		respond.Internal(w, h.logger, op, err)
	}
}
