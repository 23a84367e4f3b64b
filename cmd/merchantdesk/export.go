package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neomorfeo/merchantdesk/internal/adapter/fsm"
	"github.com/neomorfeo/merchantdesk/internal/adapter/rules"
	"github.com/neomorfeo/merchantdesk/internal/app"
	"github.com/neomorfeo/merchantdesk/internal/config"
	"github.com/neomorfeo/merchantdesk/internal/domain"
	"github.com/neomorfeo/merchantdesk/internal/export"
	"github.com/neomorfeo/merchantdesk/internal/logging"
)

type exportOptions struct {
	dir      string
	statuses []string
	query    string
	metrics  bool
	stdout   bool
}

func newExportCmd(cfgPath *string) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write applications or dashboard metrics to a CSV file",
		Example: `  merchantdesk export --status SUBMITTED,APPROVED
  merchantdesk export --metrics --stdout`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cfg, opts, cmd.OutOrStdout(), time.Now())
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "directory to write the file to")
	cmd.Flags().StringSliceVar(&opts.statuses, "status", nil, "only export these statuses")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "free-text filter")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "export dashboard metrics instead of applications")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "write to standard output instead of a file")
	return cmd
}

func runExport(ctx context.Context, cfg *config.Config, opts exportOptions, out io.Writer, now time.Time) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	backend, err := newBackend(ctx, cfg, db, fsm.New(), logger)
	if err != nil {
		return err
	}
	svc := app.NewApplicationService(backend, rules.New())

	filter := domain.ListFilter{Query: opts.query}
	for _, s := range opts.statuses {
		status := domain.Status(strings.ToUpper(strings.TrimSpace(s)))
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", s)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	var (
		name  string
		write func(io.Writer) error
	)
	if opts.metrics {
		m, err := svc.Metrics(ctx)
		if err != nil {
			return err
		}
		name = export.MetricsFilename(now)
		write = func(w io.Writer) error { return export.Metrics(w, m) }
	} else {
		apps, err := svc.List(ctx, filter)
		if err != nil {
			return err
		}
		name = export.ApplicationsFilename(now)
		write = func(w io.Writer) error { return export.Applications(w, apps) }
		logger.Info("exporting applications", zap.Int("count", len(apps)))
	}

	if opts.stdout {
		return write(out)
	}

	path := filepath.Join(opts.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	fmt.Fprintln(out, path)
	return nil
}
