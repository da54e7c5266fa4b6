// Command streetctl is the operator CLI for StreetPlan: it previews the
// metrics simulator, seeds projects from YAML files and renders XLSX reports,
// once or on a cron schedule.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"streetplan/internal/config"
	"streetplan/internal/db"
	"streetplan/internal/types"
)

// projectStore is the subset of db.ProjectRepository the CLI needs.
type projectStore interface {
	Create(ctx context.Context, p *types.Project) error
	GetByID(ctx context.Context, id string) (*types.Project, error)
}

// designStore is the subset of db.DesignRepository the CLI needs.
type designStore interface {
	ListByProject(ctx context.Context, projectID string) ([]types.Design, error)
}

// backend bundles the stores of one database connection.
type backend struct {
	projects projectStore
	designs  designStore
	close    func()
}

// app carries the dependencies shared by all subcommands. open is replaced
// in tests.
type app struct {
	logger *slog.Logger
	open   func(ctx context.Context, logger *slog.Logger) (*backend, error)
}

func main() {
	a := &app{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
		open:   openDatabase,
	}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "streetctl",
		Short:        "Operator tooling for StreetPlan projects",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(seedCmd(a))
	rootCmd.AddCommand(reportCmd(a))
	return rootCmd
}

// openDatabase loads the service configuration and connects to PostgreSQL,
// creating the tables when missing.
func openDatabase(ctx context.Context, logger *slog.Logger) (*backend, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return &backend{
		projects: db.NewProjectRepository(pool),
		designs:  db.NewDesignRepository(pool),
		close:    pool.Close,
	}, nil
}
