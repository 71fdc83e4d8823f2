package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-analyzer/pkg/document"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

// A wallet event is four lines:
//
//	Paid to Swiggy
//	Jan 05, 2024 10:24 AM
//	Transaction ID : T2401051024
//	DEBIT ₹245.00
const walletTail = `\s*\n\s*` +
	`([A-Z][a-z]{2} \d{1,2}, \d{4},? \d{1,2}:\d{2}(?: ?[AP]M)?)\s*\n\s*` +
	`Transaction ID\s*:?\s*([A-Za-z0-9]*)[^\n]*\n\s*` +
	`(?:(?:DEBIT|CREDIT)\s+)?(?:₹|Rs\.?|INR)\s*([\d,]+(?:\.\d{1,2})?)`

var (
	walletTransfer = regexp.MustCompile(`(?m)^[ \t]*((?:Paid to|Sent to|Received from)[^\n]*?)` + walletTail)
	walletCashback = regexp.MustCompile(`(?m)^[ \t]*(Cashback[^\n]*?)` + walletTail)
	walletGeneric  = regexp.MustCompile(`(?m)^[ \t]*([^\n]*?\S[^\n]*?)` + walletTail)
)

var walletDebitVerb = regexp.MustCompile(`(?i)\b(sent|paid)\b`)

var walletTimeLayouts = []string{
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006, 3:04 PM",
	"Jan 2, 2006 3:04PM",
	"Jan 2, 2006, 3:04PM",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006, 15:04",
}

// phonePeStrategy tries the block shapes in order; the first one that
// matches anything owns the document.
func (p *Parser) phonePeStrategy() Strategy {
	return FirstNonEmpty("phonepe",
		StrategyFunc("phonepe-transfer", p.walletBlocks(walletTransfer)),
		StrategyFunc("phonepe-cashback", p.walletBlocks(walletCashback)),
		StrategyFunc("phonepe-generic", p.walletBlocks(walletGeneric)),
	)
}

func (p *Parser) walletBlocks(re *regexp.Regexp) func(document.Document) ([]Transaction, error) {
	return func(doc document.Document) ([]Transaction, error) {
		text, err := document.FullText(doc)
		if err != nil {
			return nil, err
		}
		text = strings.ReplaceAll(text, "\r\n", "\n")

		var out []Transaction
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			desc := strings.TrimSpace(m[1])
			amount, err := money.ParseAmount(m[4])
			if err != nil {
				p.dropped("phonepe", ParseError{Column: "amount", Message: err.Error(), RawData: m[0]})
				continue
			}
			if walletDebit(desc) {
				amount = amount.Neg()
			}

			date, ok := p.dates.NormalizeWithLayouts(m[2], walletTimeLayouts)
			out = append(out, p.describe(Transaction{
				Date:         date,
				Amount:       amount,
				Description:  desc,
				Reference:    m[3],
				DateInferred: !ok,
			}))
		}
		return out, nil
	}
}

// walletDebit infers direction from the verb in the description.
func walletDebit(desc string) bool {
	return walletDebitVerb.MatchString(desc)
}
