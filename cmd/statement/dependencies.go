package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/statement-analyzer/internal/domain/import/service"
	"github.com/FACorreiaa/statement-analyzer/pkg/config"
	"github.com/FACorreiaa/statement-analyzer/pkg/metrics"
	"github.com/FACorreiaa/statement-analyzer/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Classifier    *categorization.Classifier
	Parser        *parser.Parser
	ImportService *importservice.ImportService

	Archive storage.Archive // nil when archiving is disabled
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initArchive(); err != nil {
		return nil, fmt.Errorf("failed to init archive: %w", err)
	}

	logger.Debug("all dependencies initialized successfully")

	return deps, nil
}

func (d *Dependencies) initMetrics() error {
	if !d.Config.Observability.MetricsEnabled {
		return nil
	}
	d.Registry = prometheus.NewRegistry()
	m, err := metrics.New(d.Registry)
	if err != nil {
		return err
	}
	d.Metrics = m
	return nil
}

func (d *Dependencies) initServices() error {
	taxonomy, err := categorization.LoadTaxonomy(d.Config.Parser.TaxonomyPath)
	if err != nil {
		return err
	}
	d.Classifier, err = categorization.NewClassifier(taxonomy)
	if err != nil {
		return err
	}
	d.Logger.Debug("taxonomy loaded",
		"version", taxonomy.Version,
		"labels", taxonomy.Labels(),
		"overrides", len(taxonomy.Overrides),
	)

	d.Parser = parser.New(d.Classifier, parser.WithLogger(d.Logger))

	d.ImportService = importservice.NewImportService(d.Parser, d.Logger).
		WithMetrics(d.Metrics).
		WithTracer(otel.Tracer(d.Config.Observability.TracingServiceName))

	return nil
}

func (d *Dependencies) initArchive() error {
	dir := d.Config.Archive.Dir
	if dir == "" {
		return nil
	}
	archive, err := storage.NewLocalArchive(dir)
	if err != nil {
		return err
	}
	d.Archive = archive
	d.Logger.Debug("archive enabled", "dir", dir)
	return nil
}

// FlushMetrics writes the registry to the configured textfile, if any.
func (d *Dependencies) FlushMetrics() error {
	path := d.Config.Observability.MetricsTextfile
	if d.Registry == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, d.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
