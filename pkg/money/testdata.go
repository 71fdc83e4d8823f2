package money

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic statement rows using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// StatementRow is one generated bank statement line. Exactly one of Debit
// and Credit is non-zero.
type StatementRow struct {
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Signed returns the row's amount with money out as negative.
func (r StatementRow) Signed() decimal.Decimal {
	if r.Debit.IsPositive() {
		return r.Debit.Neg()
	}
	return r.Credit
}

// StatementRow generates a single row dated within the year before ref.
func (g *TestDataGenerator) StatementRow(ref time.Time) StatementRow {
	row := StatementRow{
		Date:        g.Date(ref),
		Description: g.Description(),
	}
	amount := g.Amount(1, 2500000)
	if g.faker.Bool() {
		row.Debit = amount
	} else {
		row.Credit = amount
	}
	return row
}

// StatementRows generates count rows with pairwise distinct descriptions.
func (g *TestDataGenerator) StatementRows(ref time.Time, count int) []StatementRow {
	rows := make([]StatementRow, count)
	for i := range rows {
		rows[i] = g.StatementRow(ref)
		rows[i].Description = fmt.Sprintf("%s %04d", rows[i].Description, i)
	}
	return rows
}

// Date returns a random day-granular date in the year before ref.
func (g *TestDataGenerator) Date(ref time.Time) time.Time {
	d := g.faker.DateRange(ref.AddDate(-1, 0, 0), ref)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Amount returns a positive amount between minPaise and maxPaise minor units.
func (g *TestDataGenerator) Amount(minPaise, maxPaise int) decimal.Decimal {
	return decimal.New(int64(g.faker.Number(minPaise, maxPaise)), -2)
}

var descriptionPrefixes = []string{
	"UPI", "POS", "NEFT", "IMPS", "ECS", "ATM", "BIL", "CHQ",
}

// Description returns a narration resembling a bank statement entry. It never
// contains the word "balance".
func (g *TestDataGenerator) Description() string {
	prefix := descriptionPrefixes[g.faker.Number(0, len(descriptionPrefixes)-1)]
	return fmt.Sprintf("%s/%s/%d", prefix, g.faker.Company(), g.faker.Number(100000, 999999))
}

// AmountCell renders an amount the way statements print it: thousands
// separators and two decimals. Zero renders as an empty cell.
func AmountCell(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return groupThousands(d.StringFixed(2))
}

func groupThousands(s string) string {
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	for i := range s {
		if s[i] == '.' {
			intPart, frac = s[:i], s[i:]
			break
		}
	}
	out := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}
	return sign + string(out) + frac
}
