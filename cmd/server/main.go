package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ganot/appforge/internal/app"
	"github.com/ganot/appforge/internal/config"
	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/history"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/mcp"
	"github.com/ganot/appforge/internal/provider"
	"github.com/ganot/appforge/internal/redisstore"
	"github.com/ganot/appforge/internal/sqlite"
	"github.com/ganot/appforge/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Server.Transport == config.TransportStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path, int64(cfg.Log.MaxSizeMB)*1024*1024)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	historyRepo, closeHistory, err := openHistory(ctx, cfg.History, db)
	if err != nil {
		return err
	}
	defer closeHistory()

	collaborator := provider.New(cfg.Provider.BaseURL, provider.Options{
		Timeout:           cfg.Provider.Timeout,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
		MaxTokens:         cfg.Provider.MaxTokens,
		Models: provider.Models{
			OpenAI:    cfg.Provider.Models.OpenAI,
			Anthropic: cfg.Provider.Models.Anthropic,
			Grok:      cfg.Provider.Models.Grok,
		},
		Logger: logger,
	})

	a := app.New(app.Options{
		DB:           db,
		History:      historyRepo,
		Collaborator: collaborator,
		Deployer:     deploy.NewClient(nil),
		Logger:       logger,
	})

	local := identity.Identity{Email: cfg.Auth.LocalEmail, Name: "Local"}
	authOn := cfg.Auth.Enabled && cfg.Server.Transport == config.TransportHTTP
	var resolver identity.Resolver = identity.StaticResolver{Identity: local}
	if authOn {
		resolver, err = newResolver(ctx, cfg.Auth, db)
		if err != nil {
			return err
		}
	}

	var github transport.Exchanger
	if cfg.Auth.GitHubClientID != "" {
		github = identity.NewGitHubExchanger(cfg.Auth.GitHubClientID, cfg.Auth.GitHubClientSecret)
	}
	services := a.Services(github)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      resolver,
		AuthEnabled:   authOn,
		TransportMode: cfg.Server.Transport,
		LocalIdentity: local,
		Logger:        logger,
	})

	scheduler, err := schedulePrune(cfg.Workspace, a, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	if cfg.Server.Transport == config.TransportStdio {
		return runStdioMode(ctx, logger, mcpServer)
	}

	auth := transport.StaticIdentityMiddleware(local)
	if authOn {
		auth = transport.AuthMiddleware(resolver)
	}
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: cfg.Workspace.IdleTimeout,
		},
	)
	router := transport.NewServer(services, auth, mcpHandler, logger)
	return runHTTPMode(ctx, logger, router, cfg.Addr())
}

// openHistory selects the ledger backend. The returned func releases it.
func openHistory(ctx context.Context, cfg config.HistoryConfig, db *sqlite.DB) (history.Repository, func(), error) {
	if cfg.Backend != config.HistoryRedis {
		return sqlite.NewHistoryRepository(db), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	key := cfg.RedisKey
	if key == "" {
		key = redisstore.DefaultHistoryKey
	}
	return redisstore.NewHistoryRepository(client, key), func() { _ = client.Close() }, nil
}

// newResolver prefers Firebase ID tokens when a service account is
// configured and falls back to stored API keys.
func newResolver(ctx context.Context, cfg config.AuthConfig, db *sqlite.DB) (identity.Resolver, error) {
	if cfg.FirebaseCredentials == "" {
		return identity.NewAPIKeyResolver(db.DB), nil
	}
	fb, err := identity.NewFirebaseResolverFromCredentials(ctx, cfg.FirebaseCredentials)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return fb, nil
}

func schedulePrune(cfg config.WorkspaceConfig, a *app.App, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(cfg.PruneSchedule, func() {
		if n := a.Workspaces.Prune(cfg.IdleTimeout); n > 0 {
			logger.Info("pruned idle workspaces", "count", n, "remaining", a.Workspaces.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", cfg.PruneSchedule, err)
	}
	return c, nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is cancelled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
