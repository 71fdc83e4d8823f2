// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-analyzer/pkg/document"
	"github.com/FACorreiaa/statement-analyzer/pkg/metrics"
)

// ErrPasswordRequired is returned for protected documents when no password
// was supplied. It wraps document.ErrProtectedDocument.
var ErrPasswordRequired = fmt.Errorf("%w: supply the document password to analyze it", document.ErrProtectedDocument)

// Unlocker opens password protected documents.
type Unlocker interface {
	Unlock(password string) document.Opener
}

// UnlockerFunc adapts a function to Unlocker.
type UnlockerFunc func(password string) document.Opener

func (f UnlockerFunc) Unlock(password string) document.Opener { return f(password) }

// AnalyzeRequest is one document to analyze.
type AnalyzeRequest struct {
	Data     []byte
	Filename string
	Platform string // Optional origin hint, e.g. "kotak" or "phonepe"
	Password string // Used only when the document turns out to be protected
}

// AnalyzeResult contains the result of analyzing one document.
type AnalyzeResult struct {
	RunID         uuid.UUID
	Filename      string
	Unlocked      bool
	InferredDates int
	Duration      time.Duration
	*parser.ParseResult
}

// ImportService runs statement documents through the parser.
type ImportService struct {
	parser   *parser.Parser
	unlocker Unlocker
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewImportService creates an import service around p.
func NewImportService(p *parser.Parser, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		parser:   p,
		unlocker: UnlockerFunc(document.PasswordOpener),
		tracer:   otel.Tracer("statement-analyzer/import"),
		logger:   logger,
	}
}

// WithUnlocker replaces the protected document opener.
func (s *ImportService) WithUnlocker(u Unlocker) *ImportService {
	s.unlocker = u
	return s
}

// WithMetrics sets the metrics sink.
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithTracer replaces the tracer.
func (s *ImportService) WithTracer(t trace.Tracer) *ImportService {
	s.tracer = t
	return s
}

// Analyze parses one statement. Protected documents are retried through the
// unlocker when the request carries a password; without one the call fails
// with ErrPasswordRequired.
func (s *ImportService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	runID := uuid.New()
	start := time.Now()
	origin := parser.DetectOrigin(req.Platform, req.Filename)
	logger := s.logger.With("runID", runID, "file", req.Filename, "origin", origin.String())

	ctx, span := s.tracer.Start(ctx, "statement.Analyze", trace.WithAttributes(
		attribute.String("statement.run_id", runID.String()),
		attribute.String("statement.file", req.Filename),
		attribute.String("statement.origin", origin.String()),
		attribute.Int("statement.bytes", len(req.Data)),
	))
	defer span.End()

	result, unlocked, err := s.parse(ctx, req)
	if err != nil {
		outcome := outcomeFor(err)
		if outcome == metrics.OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("statement analysis failed", "error", err)
		} else {
			span.SetStatus(codes.Error, outcome)
			logger.Warn("statement rejected", "outcome", outcome, "error", err)
		}
		s.metrics.ObserveFailure(origin.String(), outcome)
		return nil, err
	}

	inferred := 0
	for _, tx := range result.Transactions {
		if tx.DateInferred {
			inferred++
		}
	}

	outcome := metrics.OutcomeSuccess
	if len(result.Transactions) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.ObserveParse(result.Origin.String(), result.Strategy, outcome, len(result.Transactions), inferred)

	span.SetAttributes(
		attribute.String("statement.strategy", result.Strategy),
		attribute.Int("statement.pages", result.PageCount),
		attribute.Int("statement.transactions", len(result.Transactions)),
		attribute.Int("statement.inferred_dates", inferred),
		attribute.Bool("statement.unlocked", unlocked),
	)

	elapsed := time.Since(start)
	if inferred > 0 {
		logger.Warn("transactions with unreadable dates were set to today", "count", inferred)
	}
	logger.Info("statement analyzed",
		"strategy", result.Strategy,
		"pages", result.PageCount,
		"transactions", len(result.Transactions),
		"unlocked", unlocked,
		"duration", elapsed,
	)

	return &AnalyzeResult{
		RunID:         runID,
		Filename:      req.Filename,
		Unlocked:      unlocked,
		InferredDates: inferred,
		Duration:      elapsed,
		ParseResult:   result,
	}, nil
}

func (s *ImportService) parse(ctx context.Context, req AnalyzeRequest) (*parser.ParseResult, bool, error) {
	result, err := s.parser.Parse(ctx, req.Data, req.Filename, req.Platform)
	if err == nil {
		return result, false, nil
	}
	if !errors.Is(err, document.ErrProtectedDocument) {
		return nil, false, err
	}
	if req.Password == "" || s.unlocker == nil {
		return nil, false, ErrPasswordRequired
	}

	s.logger.DebugContext(ctx, "document is protected, unlocking", "file", req.Filename)
	result, err = s.parser.WithDocumentOpener(s.unlocker.Unlock(req.Password)).
		Parse(ctx, req.Data, req.Filename, req.Platform)
	if err != nil {
		return nil, false, fmt.Errorf("unlock %s: %w", req.Filename, err)
	}
	return result, true, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, document.ErrProtectedDocument):
		return metrics.OutcomeProtected
	case errors.Is(err, document.ErrUnsupportedFormat):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
