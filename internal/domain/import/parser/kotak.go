package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-analyzer/pkg/document"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

// Kotak statements are read from the document text. Each layout the bank has
// shipped gets its own pattern; all of them run and overlaps are removed by
// PostProcess.
var (
	// date narration [ref] [withdrawal] [deposit] balance
	kotakBalanceRow = regexp.MustCompile(
		`(\d{2}-\d{2}-\d{4})\s+([^\n]+?)\s+([A-Z0-9]+)?\s+([\d,]+\.\d{2})?\s*([\d,]+\.\d{2})?\s*([\d,]+\.\d{2})`,
	)
	// date narration amount(DR|CR)
	kotakMarkedRow = regexp.MustCompile(
		`(\d{2}-\d{2}-\d{4})\s+([^\n]+?)\s+([\d,]+\.\d{2})\s*\((\w{2})\)`,
	)
	kotakLineRow = regexp.MustCompile(
		`(?m)^(\d{2}-\d{2}-\d{4})\s+([^\n]+?)\s+(?:.*?)\s+([\d,]+\.\d{2})\s*\((\w{2})\)`,
	)
	kotakRailRow = regexp.MustCompile(
		`(\d{2}-\d{2}-\d{4})\s+(UPI-[^\n]+?|IMPS-[^\n]+?|NEFT-[^\n]+?|ATM-[^\n]+?)\s+(?:.*?)\s+([\d,]+\.\d{2})\s*\((\w{2})\)`,
	)
)

func (p *Parser) kotakStrategy() Strategy {
	return Concat("kotak",
		StrategyFunc("kotak-balance", p.kotakText(p.kotakBalanceRows)),
		StrategyFunc("kotak-marked", p.kotakText(p.kotakMarkedRows(kotakMarkedRow))),
		StrategyFunc("kotak-line", p.kotakText(p.kotakMarkedRows(kotakLineRow))),
		StrategyFunc("kotak-rail", p.kotakText(p.kotakMarkedRows(kotakRailRow))),
	)
}

// kotakText adapts a full-text scanner to a document extraction function.
func (p *Parser) kotakText(scan func(text string) []Transaction) func(document.Document) ([]Transaction, error) {
	return func(doc document.Document) ([]Transaction, error) {
		text, err := document.FullText(doc)
		if err != nil {
			return nil, err
		}
		return scan(text), nil
	}
}

func (p *Parser) kotakBalanceRows(text string) []Transaction {
	var out []Transaction
	for _, m := range kotakBalanceRow.FindAllStringSubmatch(text, -1) {
		var amount decimal.Decimal
		switch {
		case strings.TrimSpace(m[4]) != "":
			d, ok := p.kotakAmount(m[4], m[0])
			if !ok {
				continue
			}
			amount = d.Neg()
		case strings.TrimSpace(m[5]) != "":
			d, ok := p.kotakAmount(m[5], m[0])
			if !ok {
				continue
			}
			amount = d
		default:
			continue
		}

		tx := p.newTransaction(m[1], amount, strings.TrimSpace(m[2]))
		tx.Reference = m[3]
		out = append(out, tx)
	}
	return out
}

func (p *Parser) kotakMarkedRows(re *regexp.Regexp) func(text string) []Transaction {
	return func(text string) []Transaction {
		var out []Transaction
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			amount, ok := p.kotakAmount(m[3], m[0])
			if !ok {
				continue
			}
			if strings.EqualFold(m[4], "DR") {
				amount = amount.Neg()
			}
			out = append(out, p.newTransaction(m[1], amount, strings.TrimSpace(m[2])))
		}
		return out
	}
}

func (p *Parser) kotakAmount(raw, line string) (decimal.Decimal, bool) {
	d, err := money.ParseAmount(raw)
	if err != nil {
		p.dropped("kotak", ParseError{Column: "amount", Message: err.Error(), RawData: line})
		return decimal.Zero, false
	}
	return d, true
}
