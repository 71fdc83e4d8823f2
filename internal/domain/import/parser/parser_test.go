package parser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-analyzer/pkg/document"
	"github.com/FACorreiaa/statement-analyzer/pkg/money"
)

var testNow = time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC)

type staticClassifier string

func (c staticClassifier) Classify(string) string { return string(c) }

func newTestParser(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	classifier, err := categorization.NewDefaultClassifier()
	require.NoError(t, err)
	base := []Option{
		WithDateNormalizer(normalizer.NewDateNormalizer(func() time.Time { return testNow })),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(classifier, append(base, opts...)...)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var statementHeader = []string{"Date", "Narration", "Chq/Ref No.", "Withdrawal (Dr.)", "Deposit (Cr.)", "Balance"}

func TestParseDocument_TableRoundTrip(t *testing.T) {
	p := newTestParser(t)
	gen := money.NewTestDataGeneratorWithSeed(42)
	rows := gen.StatementRows(testNow, 40)

	table := document.Table{statementHeader}
	for _, r := range rows {
		table = append(table, []string{
			r.Date.Format("02-01-2006"),
			r.Description,
			"",
			money.AmountCell(r.Debit),
			money.AmountCell(r.Credit),
			"1,00,000.00",
		})
	}
	doc := document.NewMemory(
		document.Page{Tables: []document.Table{table[:21]}},
		document.Page{Tables: []document.Table{append(document.Table{statementHeader}, table[21:]...)}},
	)

	result, err := p.ParseDocument(context.Background(), doc, OriginGeneric)
	require.NoError(t, err)

	assert.Equal(t, 2, result.PageCount)
	assert.Equal(t, "table", result.Strategy)
	require.Len(t, result.Transactions, len(rows))

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	for i, want := range rows {
		got := result.Transactions[i]
		assert.True(t, want.Date.Equal(got.Date), "row %d date: want %s got %s", i, want.Date, got.Date)
		assert.True(t, want.Signed().Equal(got.Amount), "row %d amount: want %s got %s", i, want.Signed(), got.Amount)
		assert.Equal(t, want.Description, got.Description)
		assert.NotEmpty(t, got.Category)
		assert.False(t, got.DateInferred)
	}
}

func TestParseDocument_TableRows(t *testing.T) {
	p := New(staticClassifier("misc"),
		WithDateNormalizer(normalizer.NewDateNormalizer(func() time.Time { return testNow })),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	table := document.Table{
		{"Statement of account"},
		statementHeader,
		{"01-03-2024", "Both columns filled", "", "100.00", "40.00", "900.00"},
		{"02-03-2024", "Refund credited", "", "", "40.00", "940.00"},
		{"03-03-2024", "Garbled row", "", "abc", "", "940.00"},
		{"04-03-2024", "Nothing moved", "", "", "", "940.00"},
		{"05-03-2024", "", "", "10.00", "", "930.00"},
	}
	doc := document.NewMemory(document.Page{Tables: []document.Table{table}})

	result, err := p.ParseDocument(context.Background(), doc, OriginGeneric)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	assert.Equal(t, "Both columns filled", result.Transactions[0].Description)
	assert.True(t, dec("-100").Equal(result.Transactions[0].Amount))
	assert.Equal(t, "misc", result.Transactions[0].Category)

	assert.Equal(t, "Refund credited", result.Transactions[1].Description)
	assert.True(t, dec("40").Equal(result.Transactions[1].Amount))
}

func TestParseDocument_FallsBackToText(t *testing.T) {
	p := newTestParser(t)
	text := strings.Join([]string{
		"Account statement",
		"Statement from 01-11-2024 to 30-11-2024",
		"6 Nov 2024 Coffee Day  -150.00",
		"07-11-2024 Salary credit ACME 50,000.00",
		"08-11-2024 Closing balance 9,999.00",
		"09-11-2024 Zero value entry 0.00",
	}, "\r\n")
	doc := document.NewMemory(document.Page{
		Tables: []document.Table{{{"Name", "Branch"}, {"A", "B"}}},
		Text:   text,
	})

	result, err := p.ParseDocument(context.Background(), doc, OriginGeneric)
	require.NoError(t, err)

	assert.Equal(t, "text", result.Strategy)
	require.Len(t, result.Transactions, 2)

	coffee := result.Transactions[0]
	assert.Equal(t, day(2024, time.November, 6), coffee.Date)
	assert.Equal(t, "Coffee Day", coffee.Description)
	assert.True(t, dec("-150").Equal(coffee.Amount))

	salary := result.Transactions[1]
	assert.Equal(t, day(2024, time.November, 7), salary.Date)
	assert.True(t, dec("50000").Equal(salary.Amount))
	assert.Equal(t, categorization.CategoryIncome, salary.Category)
}

func TestParseDocument_TableWinsOverText(t *testing.T) {
	p := newTestParser(t)
	doc := document.NewMemory(document.Page{
		Tables: []document.Table{{
			statementHeader,
			{"01-02-2024", "Table entry", "", "10.00", "", "90.00"},
		}},
		Text: "01-02-2024 Text entry 10.00",
	})

	result, err := p.ParseDocument(context.Background(), doc, OriginGeneric)
	require.NoError(t, err)
	assert.Equal(t, "table", result.Strategy)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Table entry", result.Transactions[0].Description)
}

func TestParseDocument_DuplicatesAcrossPages(t *testing.T) {
	p := newTestParser(t)
	page := document.Page{Tables: []document.Table{{
		statementHeader,
		{"01-02-2024", "Rent February", "", "15,000.00", "", "5,000.00"},
		{"02-02-2024", "Interest credit", "", "", "12.50", "5,012.50"},
	}}}
	doc := document.NewMemory(page, page)

	result, err := p.ParseDocument(context.Background(), doc, OriginGeneric)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "Rent February", result.Transactions[0].Description)
	assert.Equal(t, "Interest credit", result.Transactions[1].Description)
}

func TestParseDocument_InferredDate(t *testing.T) {
	p := newTestParser(t)
	doc := document.NewMemory(document.Page{Text: "31-02-2024 Impossible day 10.00"})

	result, err := p.ParseDocument(context.Background(), doc, OriginGeneric)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.True(t, result.Transactions[0].DateInferred)
	assert.Equal(t, testNow, result.Transactions[0].Date)
}

func TestParseDocument_EmptyDocument(t *testing.T) {
	p := newTestParser(t)

	result, err := p.ParseDocument(context.Background(), document.NewMemory(), OriginGeneric)
	require.NoError(t, err)
	assert.Equal(t, 0, result.PageCount)
	assert.Empty(t, result.Transactions)
	assert.Empty(t, result.Strategy)
}

func TestParseDocument_Kotak(t *testing.T) {
	p := newTestParser(t)
	text := strings.Join([]string{
		"05-01-2024 UPI-SWIGGY-12345 UPIREF123 245.00 10,000.00",
		"06-01-2024 POS/DMART/BLR  1,250.00(DR)",
		"07-01-2024 NEFT-ACME-PAYROLL  50,000.00(CR)",
	}, "\n")
	doc := document.NewMemory(document.Page{Text: text})

	result, err := p.ParseDocument(context.Background(), doc, OriginKotak)
	require.NoError(t, err)
	assert.Equal(t, OriginKotak, result.Origin)
	require.Len(t, result.Transactions, 3)

	upi := result.Transactions[0]
	assert.Equal(t, day(2024, time.January, 5), upi.Date)
	assert.Equal(t, "UPI-SWIGGY-12345", upi.Description)
	assert.Equal(t, "UPIREF123", upi.Reference)
	assert.Equal(t, "Swiggy", upi.Merchant)
	assert.True(t, dec("-245").Equal(upi.Amount))
	assert.Equal(t, categorization.CategoryTransfer, upi.Category)

	pos := result.Transactions[1]
	assert.Equal(t, "POS/DMART/BLR", pos.Description)
	assert.True(t, dec("-1250").Equal(pos.Amount))

	neft := result.Transactions[2]
	assert.Equal(t, "NEFT-ACME-PAYROLL", neft.Description)
	assert.True(t, dec("50000").Equal(neft.Amount))

	assert.Contains(t, result.Strategy, "kotak-balance")
	assert.Contains(t, result.Strategy, "kotak-marked")
}

// A marked row with a multi-word narration is read twice: once with the full
// narration and once with its first word, so the two records do not merge.
func TestParseDocument_KotakMarkedRowOverlap(t *testing.T) {
	p := newTestParser(t)
	doc := document.NewMemory(document.Page{Text: "05-01-2024  UPI-SWIGGY ORDER 881  245.00(DR)"})

	result, err := p.ParseDocument(context.Background(), doc, OriginKotak)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	descriptions := []string{result.Transactions[0].Description, result.Transactions[1].Description}
	assert.ElementsMatch(t, []string{"UPI-SWIGGY ORDER 881", "UPI-SWIGGY"}, descriptions)
	for _, tx := range result.Transactions {
		assert.True(t, dec("-245").Equal(tx.Amount))
	}
}

func TestParseDocument_ProviderDoesNotFallBack(t *testing.T) {
	p := newTestParser(t)
	doc := document.NewMemory(document.Page{
		Tables: []document.Table{{
			statementHeader,
			{"01-02-2024", "Table entry", "", "10.00", "", "90.00"},
		}},
		Text: "1 Feb 2024 Text entry 10.00",
	})

	for _, origin := range []DocumentOrigin{OriginKotak, OriginPhonePe} {
		t.Run(origin.String(), func(t *testing.T) {
			result, err := p.ParseDocument(context.Background(), doc, origin)
			require.NoError(t, err)
			assert.Empty(t, result.Transactions)
			assert.Empty(t, result.Strategy)
		})
	}
}

const walletStatement = `Transaction Statement for 98XXXXXX10
Date Transaction Details Type Amount
Paid to Swiggy
Jan 05, 2024 10:24 AM
Transaction ID : T2401051024
DEBIT ₹245.00
Received from Rahul Sharma
Jan 06, 2024 09:00 PM
Transaction ID : T2401062100
CREDIT ₹1,000.00
Cashback received
Jan 07, 2024 11:30 AM
Transaction ID : T2401071130
CREDIT ₹5.00
`

func TestParseDocument_PhonePeTransfer(t *testing.T) {
	p := newTestParser(t)
	doc := document.NewMemory(document.Page{Text: walletStatement})

	result, err := p.ParseDocument(context.Background(), doc, OriginPhonePe)
	require.NoError(t, err)

	assert.Equal(t, "phonepe-transfer", result.Strategy)
	require.Len(t, result.Transactions, 2)

	paid := result.Transactions[0]
	assert.Equal(t, "Paid to Swiggy", paid.Description)
	assert.Equal(t, time.Date(2024, time.January, 5, 10, 24, 0, 0, time.UTC), paid.Date)
	assert.Equal(t, "T2401051024", paid.Reference)
	assert.Equal(t, "Swiggy", paid.Merchant)
	assert.True(t, dec("-245").Equal(paid.Amount))

	received := result.Transactions[1]
	assert.Equal(t, "Received from Rahul Sharma", received.Description)
	assert.Equal(t, time.Date(2024, time.January, 6, 21, 0, 0, 0, time.UTC), received.Date)
	assert.True(t, dec("1000").Equal(received.Amount))
}

func TestParseDocument_PhonePeCounterpartyNameKeepsCredit(t *testing.T) {
	p := newTestParser(t)
	text := "Received from Vasant Sentil\nJan 08, 2024 7:45 PM\nTransaction ID : T2401081945\nCREDIT ₹1,000.00\n"
	doc := document.NewMemory(document.Page{Text: text})

	result, err := p.ParseDocument(context.Background(), doc, OriginPhonePe)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)

	tx := result.Transactions[0]
	assert.True(t, dec("1000").Equal(tx.Amount), "got %s", tx.Amount)
	assert.Equal(t, categorization.CategoryTransfer, tx.Category)
}

func TestWalletDebit(t *testing.T) {
	tests := []struct {
		desc string
		want bool
	}{
		{"Paid to Swiggy", true},
		{"Sent to Ravi Kumar", true},
		{"Bill paid - Airtel", true},
		{"Received from Rahul Sharma", false},
		{"Received from Vasant Sentil", false},
		{"Received from Unpaid Dues Pvt Ltd", false},
		{"Mobile Recharge 98765", false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, walletDebit(tt.desc))
		})
	}
}

func TestParseDocument_PhonePeFallbackShapes(t *testing.T) {
	p := newTestParser(t)

	t.Run("cashback", func(t *testing.T) {
		doc := document.NewMemory(document.Page{Text: "Cashback from merchant\nMar 01, 2024 8:15 AM\nTransaction ID : T1\nCREDIT ₹12.00\n"})
		result, err := p.ParseDocument(context.Background(), doc, OriginPhonePe)
		require.NoError(t, err)
		assert.Equal(t, "phonepe-cashback", result.Strategy)
		require.Len(t, result.Transactions, 1)
		assert.True(t, dec("12").Equal(result.Transactions[0].Amount))
		assert.Equal(t, categorization.CategoryIncome, result.Transactions[0].Category)
	})

	t.Run("generic", func(t *testing.T) {
		doc := document.NewMemory(document.Page{Text: "Mobile Recharge 98765\nFeb 01, 2024 8:15 AM\nTransaction ID : T2\nDEBIT ₹199.00\n"})
		result, err := p.ParseDocument(context.Background(), doc, OriginPhonePe)
		require.NoError(t, err)
		assert.Equal(t, "phonepe-generic", result.Strategy)
		require.Len(t, result.Transactions, 1)
		assert.Equal(t, "Mobile Recharge 98765", result.Transactions[0].Description)
		// Direction comes from the verb only.
		assert.True(t, dec("199").Equal(result.Transactions[0].Amount))
	})
}

func TestParse_ClosesDocument(t *testing.T) {
	doc := document.NewMemory(document.Page{Text: "01-02-2024 Groceries 10.00"})
	p := newTestParser(t, WithOpener(doc.Opener()))

	result, err := p.Parse(context.Background(), []byte("%PDF-1.4"), "statement.pdf", "")
	require.NoError(t, err)
	assert.True(t, doc.Closed())
	assert.Len(t, result.Transactions, 1)
}

func TestParse_CloseErrorIsFatal(t *testing.T) {
	doc := document.NewMemory(document.Page{Text: "01-02-2024 Groceries 10.00"})
	doc.CloseErr = errors.New("handle leak")
	p := newTestParser(t, WithOpener(doc.Opener()))

	result, err := p.Parse(context.Background(), nil, "statement.pdf", "")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, document.ErrResource)
	assert.Contains(t, err.Error(), "handle leak")
}

func TestParse_ReadErrorIsResourceError(t *testing.T) {
	doc := document.NewMemory(document.Page{})
	doc.ReadErr = errors.New("stream truncated")
	p := newTestParser(t, WithOpener(doc.Opener()))

	result, err := p.Parse(context.Background(), nil, "statement.pdf", "")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, document.ErrResource)
	assert.True(t, doc.Closed())
}

func TestParse_OpenErrorPassesThrough(t *testing.T) {
	p := newTestParser(t, WithOpener(func([]byte, string) (document.Document, error) {
		return nil, document.ErrProtectedDocument
	}))

	_, err := p.Parse(context.Background(), nil, "statement.pdf", "")
	assert.ErrorIs(t, err, document.ErrProtectedDocument)
}

func TestParse_HintSelectsOrigin(t *testing.T) {
	doc := document.NewMemory(document.Page{Text: walletStatement})
	p := newTestParser(t)

	result, err := p.WithDocumentOpener(doc.Opener()).Parse(context.Background(), nil, "statement.pdf", "PhonePe")
	require.NoError(t, err)
	assert.Equal(t, OriginPhonePe, result.Origin)
	assert.Len(t, result.Transactions, 2)
}

func TestStrategyCombinators(t *testing.T) {
	doc := document.NewMemory()
	empty := StrategyFunc("empty", func(document.Document) ([]Transaction, error) { return nil, nil })
	one := StrategyFunc("one", func(document.Document) ([]Transaction, error) {
		return []Transaction{{Description: "a", Amount: dec("1")}}, nil
	})
	two := StrategyFunc("two", func(document.Document) ([]Transaction, error) {
		return []Transaction{{Description: "b", Amount: dec("2")}, {Description: "c", Amount: dec("3")}}, nil
	})
	failing := StrategyFunc("failing", func(document.Document) ([]Transaction, error) {
		return nil, errors.New("read failed")
	})

	t.Run("first non-empty stops at first result", func(t *testing.T) {
		ext, err := FirstNonEmpty("chain", empty, one, failing).Extract(doc)
		require.NoError(t, err)
		assert.Equal(t, "one", ext.Strategy)
		assert.Len(t, ext.Transactions, 1)
	})

	t.Run("first non-empty with nothing", func(t *testing.T) {
		ext, err := FirstNonEmpty("chain", empty, empty).Extract(doc)
		require.NoError(t, err)
		assert.Empty(t, ext.Strategy)
		assert.Empty(t, ext.Transactions)
	})

	t.Run("concat keeps order", func(t *testing.T) {
		ext, err := Concat("all", one, empty, two).Extract(doc)
		require.NoError(t, err)
		assert.Equal(t, "one+two", ext.Strategy)
		require.Len(t, ext.Transactions, 3)
		assert.Equal(t, "a", ext.Transactions[0].Description)
		assert.Equal(t, "c", ext.Transactions[2].Description)
	})

	t.Run("errors propagate", func(t *testing.T) {
		_, err := Concat("all", one, failing).Extract(doc)
		assert.Error(t, err)
		_, err = FirstNonEmpty("chain", empty, failing, one).Extract(doc)
		assert.Error(t, err)
	})
}

func TestPostProcess(t *testing.T) {
	txs := []Transaction{
		{Date: day(2024, 3, 2), Amount: dec("-10.00"), Description: "Tea"},
		{Date: day(2024, 3, 1), Amount: dec("500"), Description: "Opening Balance"},
		{Date: day(2024, 3, 1), Amount: dec("-20"), Description: "Lunch"},
		{Date: day(2024, 3, 2), Amount: dec("-10"), Description: "Tea"},
		{Date: day(2024, 3, 1), Amount: dec("0"), Description: "Zero"},
		{Date: day(2024, 3, 1), Amount: dec("5"), Description: "   "},
		{Date: day(2024, 3, 2), Amount: dec("-10"), Description: "Coffee"},
	}

	out := PostProcess(txs)
	require.Len(t, out, 3)
	assert.Equal(t, "Lunch", out[0].Description)
	assert.Equal(t, "Tea", out[1].Description)
	assert.Equal(t, "-10.00", out[1].Amount.StringFixed(2))
	assert.Equal(t, "Coffee", out[2].Description)

	assert.Equal(t, out, PostProcess(out))
}

func TestPostProcess_Idempotent(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(7)
	var txs []Transaction
	for _, r := range gen.StatementRows(testNow, 50) {
		tx := Transaction{Date: r.Date, Amount: r.Signed(), Description: r.Description}
		txs = append(txs, tx, tx)
	}

	once := PostProcess(txs)
	assert.Len(t, once, 50)
	assert.Equal(t, once, PostProcess(once))
	for i := 1; i < len(once); i++ {
		assert.False(t, once[i].Date.Before(once[i-1].Date))
	}
}

func TestDetectOrigin(t *testing.T) {
	tests := []struct {
		hint, filename string
		want           DocumentOrigin
	}{
		{"kotak", "x.pdf", OriginKotak},
		{"PhonePe", "x.pdf", OriginPhonePe},
		{"phone pe", "x.pdf", OriginPhonePe},
		{"", "Kotak_Statement_Jan.pdf", OriginKotak},
		{"hdfc", "phonepe_history.pdf", OriginPhonePe},
		{"", "statement.pdf", OriginGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectOrigin(tt.hint, tt.filename), "%q/%q", tt.hint, tt.filename)
	}
	assert.Equal(t, "generic", OriginGeneric.String())
	assert.Equal(t, "unknown", DocumentOrigin(99).String())
}
