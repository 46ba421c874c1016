package user

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"go_todo/internal/metrics"
	"go_todo/internal/respond"
)

type HandlerOptions struct {
	LoginRate  float64
	LoginBurst int
}

type Handler struct {
	service  *Service
	logger   *log.Logger
	validate *validator.Validate
	limiter  *loginLimiter
}

func NewHandler(service *Service, logger *log.Logger, opts HandlerOptions) *Handler {
	return &Handler{
		service:  service,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limiter:  newLoginLimiter(opts.LoginRate, opts.LoginBurst),
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/token", h.handleToken)
	r.Post("/login", h.handleToken)

	r.With(RequireUser(h.service, h.logger)).Get("/users/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input RegisterRequest
	if err := respond.DecodeJSON(w, r, &input); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	input.Email = NormalizeEmail(input.Email)
	if err := h.validate.Struct(input); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, validationMessage(err))
		return
	}

	u, err := h.service.Register(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrPasswordTooLong) {
			respond.Error(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		respond.Internal(w, h.logger, "register user", err)
		return
	}

	metrics.AuthEvent(metrics.EventRegister)
	respond.JSON(w, h.logger, http.StatusCreated, RegisterResponse{Message: "user registered", User: u})
}

// handleToken 兼容 OAuth2 password 模式的表单（username/password），也接受 JSON（email/password）
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.allow(r) {
		metrics.AuthEvent(metrics.EventLoginLimited)
		respond.Error(w, h.logger, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	input, err := h.readLogin(w, r)
	if err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		respond.Error(w, h.logger, http.StatusBadRequest, validationMessage(err))
		return
	}

	token, err := h.service.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.AuthEvent(metrics.EventLoginFailed)
			respond.Unauthorized(w, h.logger, ErrInvalidCredentials.Error())
			return
		}
		respond.Internal(w, h.logger, "authenticate", err)
		return
	}

	metrics.AuthEvent(metrics.EventLoginOK)
	respond.JSON(w, h.logger, http.StatusOK, token)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	current, ok := UserFromContext(r.Context())
	if !ok {
		respond.Unauthorized(w, h.logger, "not authenticated")
		return
	}

	u, err := h.service.CurrentUser(r.Context(), current.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Unauthorized(w, h.logger, ErrUnauthorized.Error())
			return
		}
		respond.Internal(w, h.logger, "get current user", err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, u)
}

func (h *Handler) readLogin(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var input LoginRequest
		if err := respond.DecodeJSON(w, r, &input); err != nil {
			return LoginRequest{}, err
		}
		return input, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		return LoginRequest{}, fmt.Errorf("invalid form body: %w", err)
	}
	return LoginRequest{
		Email:    r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return "invalid " + field
	}
}
