package parser

import (
	"strings"

	"github.com/FACorreiaa/statement-analyzer/pkg/document"
)

// Extraction is the outcome of running a strategy. An empty Transactions
// slice is a valid result, not an error.
type Extraction struct {
	Strategy     string
	Transactions []Transaction
}

// Strategy extracts raw transactions from a document. Errors are reserved
// for document read failures.
type Strategy interface {
	Name() string
	Extract(doc document.Document) (Extraction, error)
}

type leafStrategy struct {
	name string
	fn   func(doc document.Document) ([]Transaction, error)
}

// StrategyFunc wraps an extraction function as a named Strategy.
func StrategyFunc(name string, fn func(doc document.Document) ([]Transaction, error)) Strategy {
	return leafStrategy{name: name, fn: fn}
}

func (s leafStrategy) Name() string { return s.name }

func (s leafStrategy) Extract(doc document.Document) (Extraction, error) {
	txs, err := s.fn(doc)
	if err != nil {
		return Extraction{}, err
	}
	if len(txs) == 0 {
		return Extraction{}, nil
	}
	return Extraction{Strategy: s.name, Transactions: txs}, nil
}

type firstNonEmpty struct {
	name       string
	strategies []Strategy
}

// FirstNonEmpty runs strategies left to right and returns the first
// non-empty result.
func FirstNonEmpty(name string, strategies ...Strategy) Strategy {
	return firstNonEmpty{name: name, strategies: strategies}
}

func (s firstNonEmpty) Name() string { return s.name }

func (s firstNonEmpty) Extract(doc document.Document) (Extraction, error) {
	for _, st := range s.strategies {
		ext, err := st.Extract(doc)
		if err != nil {
			return Extraction{}, err
		}
		if len(ext.Transactions) > 0 {
			return ext, nil
		}
	}
	return Extraction{}, nil
}

type concat struct {
	name       string
	strategies []Strategy
}

// Concat runs every strategy and concatenates their results in order.
func Concat(name string, strategies ...Strategy) Strategy {
	return concat{name: name, strategies: strategies}
}

func (s concat) Name() string { return s.name }

func (s concat) Extract(doc document.Document) (Extraction, error) {
	var out Extraction
	var used []string
	for _, st := range s.strategies {
		ext, err := st.Extract(doc)
		if err != nil {
			return Extraction{}, err
		}
		if len(ext.Transactions) == 0 {
			continue
		}
		used = append(used, ext.Strategy)
		out.Transactions = append(out.Transactions, ext.Transactions...)
	}
	out.Strategy = strings.Join(used, "+")
	return out, nil
}

// strategyFor selects the extraction chain for an origin. Provider origins
// never fall back to the generic extractors.
func (p *Parser) strategyFor(origin DocumentOrigin) Strategy {
	switch origin {
	case OriginKotak:
		return p.kotakStrategy()
	case OriginPhonePe:
		return p.phonePeStrategy()
	default:
		return FirstNonEmpty("generic",
			StrategyFunc("table", p.extractTables),
			StrategyFunc("text", p.extractText),
		)
	}
}
