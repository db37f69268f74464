package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-booking/internal/handler/middleware"
	"travel-booking/internal/pkg/config"
	"travel-booking/internal/pkg/errs"

	"ariga.io/atlas-go-sdk/atlasexec"
)

// migrate applies migrations/*.sql declaratively: atlas diffs the live
// database against the desired schema and executes the difference.
func main() {
	var (
		schemaURL = flag.String("schema", "file://migrations/001_initial_schema.sql", "desired schema (atlas URL)")
		devURL    = flag.String("dev-url", "docker://postgres/17/dev", "dev database atlas uses for normalisation")
		atlasBin  = flag.String("atlas", "atlas", "path to the atlas binary")
		dryRun    = flag.Bool("dry-run", false, "print planned statements without executing them")
		timeout   = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := middleware.NewLogger(cfg.Log).GetSlogLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	applied, err := apply(ctx, *atlasBin, &atlasexec.SchemaApplyParams{
		URL:         cfg.DB.BuildDSN(),
		To:          *schemaURL,
		DevURL:      *devURL,
		DryRun:      *dryRun,
		AutoApprove: true,
	})
	if err != nil {
		logger.Error("schema apply failed", "error", err, "stack", errs.ExtractStackLines(err, 5))
		os.Exit(1)
	}
	for _, stmt := range applied {
		logger.Info("schema change", "statement", stmt, "dry_run", *dryRun)
	}
	logger.Info("schema is up to date", "changes", len(applied), "database", cfg.DB.DBName)
}

func apply(ctx context.Context, bin string, params *atlasexec.SchemaApplyParams) ([]string, error) {
	client, err := atlasexec.NewClient(".", bin)
	if err != nil {
		return nil, errs.Wrap(err, "failed to initialise atlas client")
	}
	res, err := client.SchemaApply(ctx, params)
	if err != nil {
		return nil, errs.Wrap(err, "atlas schema apply")
	}
	if params.DryRun {
		return res.Changes.Pending, nil
	}
	return res.Changes.Applied, nil
}
