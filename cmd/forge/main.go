// Command forge drives appforge from a shell: provider keys, projects,
// generation and chat against the same database the server uses.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ganot/appforge/internal/app"
	"github.com/ganot/appforge/internal/config"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/provider"
	"github.com/ganot/appforge/internal/sqlite"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cli{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries the global flags and the app opened for one invocation.
type cli struct {
	dbPath  string
	owner   string
	verbose bool

	// collaborator replaces the configured provider; tests set it.
	collaborator provider.Collaborator

	cfg config.Config
	app *app.App
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "forge",
		Short:         "Generate and manage application code with your own AI keys",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "database path (default from APPFORGE_DB_PATH)")
	root.PersistentFlags().StringVar(&c.owner, "owner", "", "account email owning projects (default from APPFORGE_LOCAL_EMAIL)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newKeyCmd(c),
		newTokenCmd(c),
		newProjectCmd(c),
		newGenerateCmd(c),
		newChatCmd(c),
		newHistoryCmd(c),
		newTerminalCmd(c),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	if c.app != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.DB.Path = c.dbPath
	}
	if c.owner != "" {
		cfg.Auth.LocalEmail = c.owner
	}
	c.cfg = cfg

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if c.verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return err
	}

	collaborator := c.collaborator
	if collaborator == nil {
		collaborator = provider.New(cfg.Provider.BaseURL, provider.Options{
			Timeout:           cfg.Provider.Timeout,
			RequestsPerSecond: cfg.Provider.RequestsPerSecond,
			Burst:             cfg.Provider.Burst,
			MaxTokens:         cfg.Provider.MaxTokens,
			Logger:            logger,
		})
	}
	c.app = app.New(app.Options{DB: db, Collaborator: collaborator, Logger: logger})
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.DB.Close()
	c.app = nil
	return err
}

func (c *cli) ownerID() identity.OwnerID {
	return identity.NewOwnerID(c.cfg.Auth.LocalEmail)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
