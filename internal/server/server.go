package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go_todo/internal/config"
	"go_todo/internal/database"
	"go_todo/internal/metrics"
	"go_todo/internal/respond"
	"go_todo/internal/stats"
	"go_todo/internal/todo"
	"go_todo/internal/user"
	"go_todo/internal/web"
)

// Deps are the collaborators behind the HTTP surface. Auth is nil when the
// app runs without authentication.
type Deps struct {
	Todos       todo.Store
	Stats       stats.Store
	Auth        *user.Service
	AuthOptions user.HandlerOptions
	// TrustProxy 为 true 时才用 X-Forwarded-For/X-Real-IP 改写客户端地址
	TrustProxy bool
	Logger     *log.Logger
}

func Routes(d Deps) http.Handler {
	// 注册路由与中间件
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, d.Logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	web.NewHandler(d.Logger, d.Auth != nil).Register(r)

	var owner todo.OwnerFunc
	if d.Auth != nil {
		user.NewHandler(d.Auth, d.Logger, d.AuthOptions).Register(r)
		owner = user.OwnerFromRequest
	}

	r.Group(func(r chi.Router) {
		if d.Auth != nil {
			r.Use(user.RequireUser(d.Auth, d.Logger))
		}
		todo.NewHandler(d.Todos, d.Logger, owner).Register(r)
		stats.NewHandler(d.Stats, d.Logger, owner).Register(r)
	})

	return r
}

// FromConfig 按配置选择存储后端并组装依赖；返回的 closer 释放数据库连接等资源
func FromConfig(ctx context.Context, cfg config.Config, logger *log.Logger) (Deps, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return Deps{}, nil, err
	}

	deps := Deps{
		Logger:     logger,
		TrustProxy: cfg.TrustProxy,
		AuthOptions: user.HandlerOptions{
			LoginRate:  cfg.LoginRate,
			LoginBurst: cfg.LoginBurst,
		},
	}
	closer := func() error { return nil }

	var users user.Store
	switch cfg.Store {
	case config.StorePostgres:
		db, err := openPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return Deps{}, nil, err
		}
		closer = db.Close
		pg := todo.NewPostgresStore(db)
		deps.Todos = pg
		deps.Stats = stats.NewSQLStore(db)
		users = user.NewPostgresStore(db)
	case config.StoreFile:
		fs := todo.NewFileStore(cfg.DataFile)
		deps.Todos = fs
		deps.Stats = stats.NewListStore(fs)
		users = user.NewMemoryStore()
	default:
		mem := todo.NewMemoryStore()
		deps.Todos = mem
		deps.Stats = stats.NewListStore(mem)
		users = user.NewMemoryStore()
	}
	logger.Printf("todo store: %s", cfg.Store)

	if cfg.AuthEnabled {
		tokens, err := user.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			_ = closer()
			return Deps{}, nil, err
		}
		deps.Auth = user.NewService(users, tokens)
		logger.Printf("auth enabled, token ttl %s", cfg.TokenTTL)
	}

	return deps, closer, nil
}

func openPostgres(ctx context.Context, dsn string, logger *log.Logger) (*sql.DB, error) {
	db, err := database.Open(ctx, dsn, database.DefaultPoolOptions, logger)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare database: %w", err)
	}
	return db, nil
}
