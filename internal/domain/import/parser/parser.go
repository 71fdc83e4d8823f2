// Package parser extracts transactions from statement documents. A document
// is routed to an extraction strategy by its origin; strategies are ordered
// fallback chains over table and text extractors, and every result goes
// through the same post-processing.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-analyzer/pkg/document"
)

// Transaction is one normalized statement entry.
type Transaction struct {
	Date         time.Time
	Amount       decimal.Decimal // Positive = money in, negative = money out
	Description  string
	Merchant     string // Counterparty read from the description
	Category     string
	Reference    string // Cheque/UPI/transaction reference when the layout carries one
	DateInferred bool   // True when no date could be read and today was used
}

// ParseError describes a row or line that was dropped during extraction.
type ParseError struct {
	Row     int
	Column  string
	Message string
	RawData string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// ParseResult contains the outcome of parsing one document.
type ParseResult struct {
	Transactions []Transaction
	PageCount    int
	Origin       DocumentOrigin
	Strategy     string // Strategy that produced the records, empty if none did
}

// Classifier assigns a category to a description.
type Classifier interface {
	Classify(description string) string
}

// Parser runs the extraction pipeline. It holds no per-call state and may be
// shared between goroutines as long as each call has its own document.
type Parser struct {
	classifier Classifier
	dates      *normalizer.DateNormalizer
	merchants  *normalizer.MerchantSanitizer
	open       document.Opener
	logger     *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithOpener replaces the PDF opener.
func WithOpener(open document.Opener) Option {
	return func(p *Parser) { p.open = open }
}

// WithDateNormalizer replaces the date normalizer.
func WithDateNormalizer(n *normalizer.DateNormalizer) Option {
	return func(p *Parser) { p.dates = n }
}

// WithMerchantSanitizer replaces the merchant sanitizer.
func WithMerchantSanitizer(s *normalizer.MerchantSanitizer) Option {
	return func(p *Parser) { p.merchants = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// New creates a parser classifying with classifier.
func New(classifier Classifier, opts ...Option) *Parser {
	p := &Parser{
		classifier: classifier,
		dates:      normalizer.NewDateNormalizer(nil),
		merchants:  normalizer.NewMerchantSanitizer(),
		open:       document.OpenPDF,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithDocumentOpener returns a copy of p that opens documents with open.
func (p *Parser) WithDocumentOpener(open document.Opener) *Parser {
	cp := *p
	cp.open = open
	return &cp
}

// Parse opens data and extracts its transactions. hint is an optional
// platform name; when it names no known provider the filename is consulted.
// The document is always closed; a close failure is returned as an
// ErrResource error even when extraction succeeded.
func (p *Parser) Parse(ctx context.Context, data []byte, filename, hint string) (result *ParseResult, err error) {
	doc, err := p.open(data, filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			if !errors.Is(cerr, document.ErrResource) {
				cerr = fmt.Errorf("%w: close: %v", document.ErrResource, cerr)
			}
			result = nil
			err = errors.Join(err, cerr)
		}
	}()

	return p.ParseDocument(ctx, doc, DetectOrigin(hint, filename))
}

// ParseDocument extracts transactions from an already opened document. The
// caller keeps ownership of doc.
func (p *Parser) ParseDocument(ctx context.Context, doc document.Document, origin DocumentOrigin) (*ParseResult, error) {
	result := &ParseResult{
		PageCount: doc.PageCount(),
		Origin:    origin,
	}

	strategy := p.strategyFor(origin)
	extraction, err := strategy.Extract(doc)
	if err != nil {
		if !errors.Is(err, document.ErrResource) {
			err = fmt.Errorf("%w: %v", document.ErrResource, err)
		}
		return nil, fmt.Errorf("extract %s: %w", strategy.Name(), err)
	}

	result.Strategy = extraction.Strategy
	result.Transactions = PostProcess(extraction.Transactions)

	p.logger.DebugContext(ctx, "statement extracted",
		slog.String("origin", origin.String()),
		slog.String("strategy", extraction.Strategy),
		slog.Int("raw", len(extraction.Transactions)),
		slog.Int("kept", len(result.Transactions)),
		slog.Int("pages", result.PageCount),
	)
	return result, nil
}

// newTransaction builds a classified transaction from raw date text.
func (p *Parser) newTransaction(rawDate string, amount decimal.Decimal, description string) Transaction {
	date, ok := p.dates.Normalize(rawDate)
	return p.describe(Transaction{
		Date:         date,
		Amount:       amount,
		Description:  description,
		DateInferred: !ok,
	})
}

// describe fills the fields derived from the description.
func (p *Parser) describe(tx Transaction) Transaction {
	tx.Category = p.classifier.Classify(tx.Description)
	tx.Merchant = p.merchants.Sanitize(tx.Description).NormalizedName
	return tx
}

func (p *Parser) dropped(stage string, perr ParseError) {
	p.logger.Debug("record dropped",
		slog.String("stage", stage),
		slog.Int("row", perr.Row),
		slog.String("column", perr.Column),
		slog.String("reason", perr.Message),
		slog.String("raw", perr.RawData),
	)
}
