// Command statement extracts and categorizes transactions from a bank or
// wallet statement PDF.
//
//	statement -file kotak_jan.pdf -format csv -out jan.csv
//	statement -file history.pdf -platform phonepe -password 1234
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	importservice "github.com/FACorreiaa/statement-analyzer/internal/domain/import/service"
	"github.com/FACorreiaa/statement-analyzer/internal/export"
	"github.com/FACorreiaa/statement-analyzer/pkg/config"
	"github.com/FACorreiaa/statement-analyzer/pkg/document"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
	"github.com/FACorreiaa/statement-analyzer/pkg/storage"
)

var errUsage = errors.New("usage")

type options struct {
	file     string
	platform string
	password string
	format   string
	out      string
	currency string
	envFile  string
	archive  string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "statement:", err)
		}
		os.Exit(exitCode(err))
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("statement", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.file, "file", "", "statement PDF to analyze (required)")
	fs.StringVar(&o.platform, "platform", "", "issuer hint: kotak, phonepe; defaults to STATEMENT_DEFAULT_PLATFORM")
	fs.StringVar(&o.password, "password", "", "password for protected statements")
	fs.StringVar(&o.format, "format", "json", "output format: json, csv, xlsx")
	fs.StringVar(&o.out, "out", "", "output file; stdout when empty")
	fs.StringVar(&o.currency, "currency", money.INR, "ISO-4217 code used for display amounts")
	fs.StringVar(&o.envFile, "env", "", "env file to load before reading configuration")
	fs.StringVar(&o.archive, "archive", "", "directory keeping the statement and its export per run; defaults to STATEMENT_ARCHIVE_DIR")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if o.file == "" {
		fs.Usage()
		return nil, fmt.Errorf("%w: -file is required", errUsage)
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.archive != "" {
		cfg.Archive.Dir = opts.archive
	}
	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.FlushMetrics(); err != nil {
			logger.Warn("metrics not written", "error", err)
		}
	}()

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read statement: %w", err)
	}

	platform := opts.platform
	if platform == "" {
		platform = cfg.Parser.DefaultPlatform
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := deps.ImportService.Analyze(ctx, importservice.AnalyzeRequest{
		Data:     data,
		Filename: filepath.Base(opts.file),
		Platform: platform,
		Password: opts.password,
	})
	if err != nil {
		return err
	}

	exportOpts := export.Options{
		Currency:  opts.currency,
		SheetName: cfg.Export.SheetName,
		RunID:     result.RunID.String(),
		File:      result.Filename,
	}
	var rendered bytes.Buffer
	if err := export.Write(&rendered, format, result.ParseResult, exportOpts); err != nil {
		return err
	}

	if deps.Archive != nil {
		if err := archiveRun(ctx, deps.Archive, result, data, rendered.Bytes(), format); err != nil {
			return err
		}
		logger.Info("run archived", "run_id", result.RunID, "dir", cfg.Archive.Dir)
	}

	if opts.out == "" {
		_, err := stdout.Write(rendered.Bytes())
		return err
	}
	if err := os.WriteFile(opts.out, rendered.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// archiveRun stores the source statement next to its export.
func archiveRun(ctx context.Context, archive storage.Archive, result *importservice.AnalyzeResult, source, rendered []byte, format export.Format) error {
	if _, err := archive.Save(ctx, result.RunID, result.Filename, storage.ContentType(filepath.Ext(result.Filename)), bytes.NewReader(source)); err != nil {
		return fmt.Errorf("archive statement: %w", err)
	}
	name := "transactions." + string(format)
	if _, err := archive.Save(ctx, result.RunID, name, storage.ContentType(string(format)), bytes.NewReader(rendered)); err != nil {
		return fmt.Errorf("archive export: %w", err)
	}
	return nil
}

// exitCode maps failures to distinct statuses: 2 usage, 3 unsupported
// document, 4 protected document, 1 anything else.
func exitCode(err error) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, document.ErrProtectedDocument):
		return 4
	case errors.Is(err, document.ErrUnsupportedFormat):
		return 3
	case errors.Is(err, errUsage), errors.Is(err, export.ErrUnknownFormat):
		return 2
	default:
		return 1
	}
}
