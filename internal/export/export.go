// Package export writes analyzed transactions as JSON, CSV or XLSX.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

// Format is an output format name.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

const dateLayout = "2006-01-02"

// Record is the flat form of a transaction used by every writer.
type Record struct {
	Date         string `csv:"date" json:"date"`
	Description  string `csv:"description" json:"description"`
	Merchant     string `csv:"merchant" json:"merchant"`
	Amount       string `csv:"amount" json:"amount"`
	Display      string `csv:"display" json:"display"`
	Category     string `csv:"category" json:"category"`
	Reference    string `csv:"reference" json:"reference,omitempty"`
	DateInferred bool   `csv:"date_inferred" json:"dateInferred,omitempty"`
}

// Records flattens txs. Amounts are rounded to the currency's minor unit.
func Records(txs []parser.Transaction, currency string) []Record {
	out := make([]Record, 0, len(txs))
	for _, tx := range txs {
		m := money.NewFromDecimal(tx.Amount, currency)
		out = append(out, Record{
			Date:         tx.Date.Format(dateLayout),
			Description:  tx.Description,
			Merchant:     tx.Merchant,
			Amount:       m.String(),
			Display:      m.Display(),
			Category:     tx.Category,
			Reference:    tx.Reference,
			DateInferred: tx.DateInferred,
		})
	}
	return out
}

// Document is the JSON envelope.
type Document struct {
	RunID        string   `json:"runId,omitempty"`
	File         string   `json:"file,omitempty"`
	Origin       string   `json:"origin"`
	Strategy     string   `json:"strategy"`
	PageCount    int      `json:"pageCount"`
	Transactions []Record `json:"transactions"`
}

// Options carries writer settings.
type Options struct {
	Currency  string
	SheetName string // XLSX only
	RunID     string
	File      string
}

// Write renders result to w in format f.
func Write(w io.Writer, f Format, result *parser.ParseResult, opts Options) error {
	if opts.Currency == "" {
		opts.Currency = money.INR
	}
	records := Records(result.Transactions, opts.Currency)

	switch f {
	case FormatJSON:
		return WriteJSON(w, Document{
			RunID:        opts.RunID,
			File:         opts.File,
			Origin:       result.Origin.String(),
			Strategy:     result.Strategy,
			PageCount:    result.PageCount,
			Transactions: records,
		})
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records, opts.SheetName)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	if doc.Transactions == nil {
		doc.Transactions = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []Record) error {
	if err := gocsv.Marshal(&records, w); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}

var sheetHeader = []interface{}{"Date", "Description", "Merchant", "Amount", "Category", "Reference", "Date inferred"}

// WriteXLSX writes records to a single-sheet workbook. Amounts are numeric
// cells formatted with two decimals.
func WriteXLSX(w io.Writer, records []Record, sheet string) (err error) {
	if sheet == "" {
		sheet = "Transactions"
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close workbook: %w", cerr))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet %q: %w", sheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetColWidth(2, 2, 48); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	header := make([]interface{}, len(sheetHeader))
	for i, h := range sheetHeader {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		amount, err := money.ParseAmount(r.Amount)
		if err != nil {
			return fmt.Errorf("row %d amount %q: %w", i+1, r.Amount, err)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Date,
			r.Description,
			r.Merchant,
			excelize.Cell{StyleID: amountStyle, Value: amount.InexactFloat64()},
			r.Category,
			r.Reference,
			r.DateInferred,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
