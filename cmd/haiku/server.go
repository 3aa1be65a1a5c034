package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/haiku/internal/api"
	"github.com/kalambet/haiku/internal/auth"
	"github.com/kalambet/haiku/internal/config"
	"github.com/kalambet/haiku/internal/generation"
	"github.com/kalambet/haiku/internal/logging"
	"github.com/kalambet/haiku/internal/session"
	"github.com/kalambet/haiku/internal/storage"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the haiku web server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the haiku MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdio")
}

// app is the wiring shared by serve and mcp.
type app struct {
	store    storage.Backend
	sessions *session.Manager
	log      *zap.Logger
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	gen, err := generation.New(cfg.Generation)
	if err != nil {
		store.Close()
		return nil, err
	}

	idleTTL, err := time.ParseDuration(cfg.Session.IdleTTL)
	if err != nil {
		log.Warn("invalid session idle ttl, using default 24h", zap.String("value", cfg.Session.IdleTTL), zap.Error(err))
		idleTTL = 24 * time.Hour
	}

	sessions := session.NewManager(session.Config{
		Generator:    gen,
		Store:        store,
		Auth:         auth.New(cfg.Auth),
		IdleTTL:      idleTTL,
		MergeLocally: cfg.History.MergeLocally,
		Logger:       log,
	})
	return &app{store: store, sessions: sessions, log: log}, nil
}

func (a *app) Close() {
	a.sessions.Close()
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing storage", zap.Error(err))
	}
}

func (a *app) serveMCP(ctx context.Context) error {
	mcpSrv := api.NewMCPServer(api.MCPDeps{Sessions: a.sessions, Version: version})
	err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func runServer(withMCP bool) error {
	printStep("haiku version %s", version)

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr: addr,
		Handler: api.NewHandler(api.Deps{
			Sessions: a.sessions,
			Token:    cfg.Server.APIToken,
			Logger:   log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	printStatus("Listening", "http://%s", addr)
	printStatus("Storage", "%s", cfg.Storage.Backend)
	printStatus("Model", "%s (%s)", cfg.Generation.Model, cfg.Generation.Provider)
	if cfg.Generation.APIKey == "" {
		printWarning("No generation API key set; generating will fail until one is configured")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		printStep("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.sessions.Run(gctx)
		return nil
	})

	if withMCP {
		g.Go(func() error {
			log.Info("MCP server started (stdio transport)")
			if err := a.serveMCP(gctx); err != nil {
				log.Error("MCP stdio server stopped", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

func runMCP() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.serveMCP(ctx)
}
