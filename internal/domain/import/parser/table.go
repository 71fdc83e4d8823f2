package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-analyzer/pkg/document"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

// extractTables reads every table whose header resolves to date,
// description, debit and credit columns. Tables that do not resolve are
// skipped whole.
func (p *Parser) extractTables(doc document.Document) ([]Transaction, error) {
	var out []Transaction
	for page := 0; page < doc.PageCount(); page++ {
		tables, err := doc.Tables(page)
		if err != nil {
			return nil, err
		}
		for ti, table := range tables {
			hdr, cols, err := sniffer.Detect(table)
			if err != nil {
				p.logger.Debug("table skipped",
					slog.Int("page", page),
					slog.Int("table", ti),
					slog.Any("error", err),
				)
				continue
			}
			p.logger.Debug("table layout",
				slog.Int("page", page),
				slog.Int("table", ti),
				slog.String("fingerprint", sniffer.Fingerprint(table[hdr])),
			)
			for r := hdr + 1; r < len(table); r++ {
				tx, perr := p.tableRow(table[r], cols, r)
				if perr != nil {
					p.dropped("table", *perr)
					continue
				}
				out = append(out, tx)
			}
		}
	}
	return out, nil
}

func (p *Parser) tableRow(row []string, cols *sniffer.ColumnSuggestions, rowNum int) (Transaction, *ParseError) {
	desc := strings.TrimSpace(cell(row, cols.DescCol))
	if desc == "" {
		return Transaction{}, &ParseError{Row: rowNum, Column: "description", Message: "empty description", RawData: strings.Join(row, " | ")}
	}

	debit, err := parseCell(cell(row, cols.DebitCol))
	if err != nil {
		return Transaction{}, &ParseError{Row: rowNum, Column: "debit", Message: err.Error(), RawData: strings.Join(row, " | ")}
	}
	credit, err := parseCell(cell(row, cols.CreditCol))
	if err != nil {
		return Transaction{}, &ParseError{Row: rowNum, Column: "credit", Message: err.Error(), RawData: strings.Join(row, " | ")}
	}

	amount := signedAmount(debit, credit)
	if amount.IsZero() {
		return Transaction{}, &ParseError{Row: rowNum, Column: "amount", Message: "zero amount", RawData: strings.Join(row, " | ")}
	}

	return p.newTransaction(cell(row, cols.DateCol), amount, desc), nil
}

// signedAmount applies debit precedence: a positive debit is money out even
// when a credit is also present.
func signedAmount(debit, credit decimal.Decimal) decimal.Decimal {
	switch {
	case debit.IsPositive():
		return debit.Neg()
	case credit.IsPositive():
		return credit
	default:
		return decimal.Zero
	}
}

// parseCell reads an amount cell; blank cells are zero.
func parseCell(s string) (decimal.Decimal, error) {
	d, err := money.ParseAmount(s)
	if errors.Is(err, money.ErrEmptyAmount) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("non-numeric amount: %w", err)
	}
	return d, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
