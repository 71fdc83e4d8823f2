package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-analyzer/pkg/document"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

// textLine matches "<date> <description> <amount>" where the date is either
// "6 Nov 2024" or "06-11-2024" and the amount has exactly two decimals. The
// sign is whatever the token carries.
var textLine = regexp.MustCompile(
	`((?:\d{1,2}\s(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s\d{4})|(?:\d{2}-\d{2}-\d{4}))` +
		`\s+(.*?)\s+` +
		`(-?₹?\s?[\d,]+\.\d{2})`,
)

// textNoise marks page furniture that happens to match the line pattern.
var textNoise = []string{"balance", "opening", "statement from"}

// splitLines normalizes line endings and splits text into lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(strings.TrimSpace(text), "\n")
}

// extractText scans page text line by line.
func (p *Parser) extractText(doc document.Document) ([]Transaction, error) {
	var out []Transaction
	row := 0
	for page := 0; page < doc.PageCount(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, line := range splitLines(text) {
			row++
			m := textLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			desc := strings.TrimSpace(m[2])
			if desc == "" || containsAny(strings.ToLower(desc), textNoise) {
				continue
			}

			amount, err := money.ParseAmount(m[3])
			if err != nil {
				p.dropped("text", ParseError{Row: row, Column: "amount", Message: err.Error(), RawData: line})
				continue
			}
			if amount.IsZero() {
				continue
			}

			out = append(out, p.newTransaction(m[1], amount, desc))
		}
	}
	return out, nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
