package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"streetplan/internal/export"
	"streetplan/internal/insights"
	"streetplan/internal/types"
)

type reportOptions struct {
	projectID string
	out       string
	schedule  string
}

func reportCmd(a *app) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the designs and insights of a project to an XLSX workbook",
		Long: "Write the designs and insights of a project to an XLSX workbook.\n\n" +
			"With --schedule the report is rendered on a cron schedule until interrupted;\n" +
			"each run writes a timestamped copy next to --out.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.open(ctx, a.logger)
			if err != nil {
				return err
			}
			defer b.close()

			if opts.schedule == "" {
				path, err := writeReport(ctx, b, opts.projectID, opts.out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			}

			sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runScheduledReports(sigCtx, a.logger, b, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.projectID, "project", "p", "", "project ID")
	f.StringVarP(&opts.out, "out", "o", "", "output file (default streetplan-<project>.xlsx)")
	f.StringVar(&opts.schedule, "schedule", "", `cron expression, e.g. "0 7 * * *"`)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// writeReport renders one workbook for projectID to out and returns the path
// written.
func writeReport(ctx context.Context, b *backend, projectID, out string) (string, error) {
	project, err := b.projects.GetByID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("loading project: %w", err)
	}
	designs, err := b.designs.ListByProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("loading designs: %w", err)
	}

	sliders := make([]types.SliderValues, len(designs))
	for i, d := range designs {
		sliders[i] = d.Sliders
	}
	snap := insights.Aggregate(project, sliders)

	f, err := export.Build(project, designs, snap)
	if err != nil {
		return "", fmt.Errorf("rendering workbook: %w", err)
	}
	defer f.Close()

	if out == "" {
		out = export.Filename(project)
	}
	if err := ensureDir(out); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := f.SaveAs(out); err != nil {
		return "", fmt.Errorf("saving workbook: %w", err)
	}
	return out, nil
}

// runScheduledReports renders a report on every tick of opts.schedule until ctx is
// cancelled. A failed run is logged and the schedule continues.
func runScheduledReports(ctx context.Context, logger *slog.Logger, b *backend, opts reportOptions) error {
	c := cron.New()
	_, err := c.AddFunc(opts.schedule, func() {
		out := timestampedPath(opts.out, opts.projectID, time.Now().UTC())
		path, err := writeReport(ctx, b, opts.projectID, out)
		if err != nil {
			logger.Error("scheduled report failed", "project_id", opts.projectID, "error", err)
			return
		}
		logger.Info("scheduled report written", "project_id", opts.projectID, "path", path)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", opts.schedule, err)
	}

	logger.Info("report schedule started", "project_id", opts.projectID, "schedule", opts.schedule)
	c.Start()
	<-ctx.Done()

	// Wait for a run in progress before the database is closed.
	<-c.Stop().Done()
	logger.Info("report schedule stopped")
	return nil
}

// timestampedPath inserts a UTC timestamp before the extension of out, or of
// the default file name when out is empty.
func timestampedPath(out, projectID string, now time.Time) string {
	if out == "" {
		out = "streetplan-" + projectID + ".xlsx"
	}
	ext := filepath.Ext(out)
	if ext == "" {
		ext = ".xlsx"
	}
	base := strings.TrimSuffix(out, filepath.Ext(out))
	return base + "-" + now.Format("20060102T150405Z") + ext
}

// ensureDir creates the parent directory of path when missing.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
