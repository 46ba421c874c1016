package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go_todo/internal/config"
	"go_todo/internal/server"
	"go_todo/internal/user"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo-api",
		Short: "Todo list REST API with an optional JWT login",
	}
	root.AddCommand(newServeCmd(), newHashPasswordCmd())
	return root
}

type serveFlags struct {
	configFile string
	store      string
	addr       string
	auth       bool
}

func newServeCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.configFile != "" {
				if err := os.Setenv("CONFIG_FILE", flags.configFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load(":8000")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("store") {
				cfg.Store = flags.store
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = flags.addr
			}
			if cmd.Flags().Changed("auth") {
				cfg.AuthEnabled = flags.auth
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "YAML config file (env vars still take precedence)")
	cmd.Flags().StringVar(&flags.store, "store", config.StoreMemory, "todo store: memory, file or postgres")
	cmd.Flags().StringVar(&flags.addr, "addr", ":8000", "listen address")
	cmd.Flags().BoolVar(&flags.auth, "auth", false, "require a bearer token for /todos")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	// 主流程：加载配置、组装存储、启动 HTTP 服务并等待退出信号
	logger := log.New(os.Stdout, "todo-api ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, closer, err := server.FromConfig(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer func() {
		if err := closer(); err != nil {
			logger.Printf("close: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.Routes(deps),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// 启动 HTTP 服务，非正常关闭才返回错误
		logger.Printf("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Println("shutting down")
		// 给予超时时间完成正在处理的请求
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for seeding users by hand",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := user.HashPassword(password, user.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
