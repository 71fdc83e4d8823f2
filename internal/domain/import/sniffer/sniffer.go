// Package sniffer locates the header row of a statement table and maps its
// columns to transaction roles.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// headerKeywords mark a row as the header of a transaction table.
var headerKeywords = []string{
	"date", "transaction", "narration", "description", "details",
	"chq", "ref", "withdrawal", "deposit", "amount", "balance",
}

// Role keywords, matched as substrings of the lower-cased header cell.
var (
	dateKeywords        = []string{"date"}
	descriptionKeywords = []string{"narration", "description", "transaction details"}
	debitKeywords       = []string{"withdrawal", "debit", "dr."}
	creditKeywords      = []string{"deposit", "credit", "cr."}
	amountKeywords      = []string{"amount"}
	balanceKeywords     = []string{"balance"}
)

var (
	ErrNoHeadersFound = errors.New("could not find table headers")
	ErrMissingColumns = errors.New("table is missing required columns")
)

// ColumnSuggestions holds detected column indices, -1 when absent.
type ColumnSuggestions struct {
	DateCol    int
	DescCol    int
	DebitCol   int
	CreditCol  int
	AmountCol  int // informational: a single signed amount column
	BalanceCol int // informational: running balance, never imported
}

// IsDoubleEntry reports whether separate debit and credit columns exist.
func (s *ColumnSuggestions) IsDoubleEntry() bool {
	return s.DebitCol >= 0 && s.CreditCol >= 0
}

// Complete reports whether every role the table extractor needs was found.
func (s *ColumnSuggestions) Complete() bool {
	return s.DateCol >= 0 && s.DescCol >= 0 && s.IsDoubleEntry()
}

// IsHeaderRow reports whether the joined, lower-cased row mentions any
// header keyword.
func IsHeaderRow(row []string) bool {
	joined := strings.ToLower(strings.Join(row, " "))
	for _, kw := range headerKeywords {
		if strings.Contains(joined, kw) {
			return true
		}
	}
	return false
}

// FindHeaderRow returns the index of the first header row in rows.
func FindHeaderRow(rows [][]string) (int, error) {
	for i, row := range rows {
		if IsHeaderRow(row) {
			return i, nil
		}
	}
	return -1, ErrNoHeadersFound
}

// SuggestColumns assigns each role to the first header cell containing one of
// its keywords. Roles are resolved independently.
func SuggestColumns(headers []string) *ColumnSuggestions {
	s := &ColumnSuggestions{
		DateCol:    -1,
		DescCol:    -1,
		DebitCol:   -1,
		CreditCol:  -1,
		AmountCol:  -1,
		BalanceCol: -1,
	}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}
		assign(&s.DateCol, i, h, dateKeywords)
		assign(&s.DescCol, i, h, descriptionKeywords)
		assign(&s.DebitCol, i, h, debitKeywords)
		assign(&s.CreditCol, i, h, creditKeywords)
		assign(&s.AmountCol, i, h, amountKeywords)
		assign(&s.BalanceCol, i, h, balanceKeywords)
	}

	return s
}

func assign(col *int, idx int, header string, keywords []string) {
	if *col != -1 {
		return
	}
	for _, kw := range keywords {
		if strings.Contains(header, kw) {
			*col = idx
			return
		}
	}
}

// Detect finds the header row of a table and resolves its columns. It fails
// with ErrNoHeadersFound or ErrMissingColumns when the table cannot be read
// as a double-entry statement.
func Detect(rows [][]string) (int, *ColumnSuggestions, error) {
	idx, err := FindHeaderRow(rows)
	if err != nil {
		return -1, nil, err
	}
	cols := SuggestColumns(rows[idx])
	if !cols.Complete() {
		return idx, cols, ErrMissingColumns
	}
	return idx, cols, nil
}

// Fingerprint identifies a table layout by its normalized headers, so the
// same bank export produces the same value across files.
func Fingerprint(headers []string) string {
	normalized := make([]string, 0, len(headers))
	for _, h := range headers {
		normalized = append(normalized, strings.ToLower(strings.Join(strings.Fields(h), " ")))
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:8])
}
