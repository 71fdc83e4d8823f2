package document

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dslipak/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word lays out s as one glyph per byte, 5 units wide, starting at x.
func word(s string, x, y float64) []glyph {
	gs := make([]glyph, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			continue
		}
		gs = append(gs, glyph{X: x + float64(i)*5, Y: y, W: 5, Size: 10, S: string(s[i])})
	}
	return gs
}

func row(y float64, cells map[float64]string) []glyph {
	var gs []glyph
	for x, s := range cells {
		gs = append(gs, word(s, x, y)...)
	}
	return gs
}

func TestLayoutLines(t *testing.T) {
	t.Run("groups by baseline and orders top to bottom", func(t *testing.T) {
		var gs []glyph
		gs = append(gs, word("second", 0, 680)...)
		gs = append(gs, word("first", 0, 700)...)
		// Slight baseline jitter stays on the same row.
		gs = append(gs, glyph{X: 25, Y: 701, W: 5, Size: 10, S: "!"})

		lines := layoutLines(gs)
		require.Len(t, lines, 2)
		assert.Equal(t, "first!", lines[0].text())
		assert.Equal(t, "second", lines[1].text())
	})

	t.Run("word gaps become spaces", func(t *testing.T) {
		lines := layoutLines(word("UPI PAYMENT", 0, 100))
		require.Len(t, lines, 1)
		require.Len(t, lines[0].cells, 1)
		assert.Equal(t, "UPI PAYMENT", lines[0].cells[0].text)
	})

	t.Run("wide gaps split cells", func(t *testing.T) {
		lines := layoutLines(row(100, map[float64]string{0: "01-02-2024", 100: "COFFEE", 300: "120.00"}))
		require.Len(t, lines, 1)
		require.Len(t, lines[0].cells, 3)
		assert.Equal(t, "01-02-2024  COFFEE  120.00", lines[0].text())
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, layoutLines(nil))
		assert.Nil(t, layoutLines([]glyph{{S: ""}}))
	})
}

func TestLayoutTables(t *testing.T) {
	var gs []glyph
	gs = append(gs, word("Account Statement", 0, 800)...)
	gs = append(gs, row(760, map[float64]string{0: "Date", 100: "Narration", 300: "Withdrawal", 400: "Deposit"})...)
	gs = append(gs, row(740, map[float64]string{0: "01-02-2024", 100: "COFFEE", 300: "120.00"})...)
	gs = append(gs, row(720, map[float64]string{0: "02-02-2024", 100: "SALARY", 400: "5,000.00"})...)
	gs = append(gs, word("End of statement", 0, 600)...)

	tables := layoutTables(layoutLines(gs))
	require.Len(t, tables, 1)

	want := Table{
		{"Date", "Narration", "Withdrawal", "Deposit"},
		{"01-02-2024", "COFFEE", "120.00", ""},
		{"02-02-2024", "SALARY", "", "5,000.00"},
	}
	assert.Equal(t, want, tables[0])
}

func TestLayoutTables_SingleRowIsNotATable(t *testing.T) {
	gs := row(700, map[float64]string{0: "Name", 200: "Someone"})
	assert.Empty(t, layoutTables(layoutLines(gs)))
}

func TestOpenPDF_UnsupportedFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		file string
	}{
		{"wrong extension", []byte("%PDF-1.4\n"), "statement.csv"},
		{"no header", []byte("Date,Description,Amount\n"), "statement.pdf"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := OpenPDF(tt.data, tt.file)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}

func TestOpenPDF_CorruptIsResourceError(t *testing.T) {
	doc, err := OpenPDF([]byte("%PDF-1.4\nthis is not really a pdf"), "broken.PDF")
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrResource)
}

func TestClassifyOpenError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"invalid password", pdf.ErrInvalidPassword, ErrProtectedDocument},
		{"wrapped invalid password", fmt.Errorf("open: %w", pdf.ErrInvalidPassword), ErrProtectedDocument},
		{"encryption message", errors.New("unsupported PDF: encryption version"), ErrProtectedDocument},
		{"malformed", errors.New("malformed PDF: missing xref"), ErrResource},
		{"unreadable header", errors.New("not a PDF file: invalid header"), ErrUnsupportedFormat},
		{"truncated", errors.New("not a PDF file: missing %%EOF"), ErrResource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyOpenError(tt.err), tt.want)
		})
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory(
		Page{Text: "page one"},
		Page{Tables: []Table{{{"a", "b"}}}, Text: "page two"},
	)

	assert.Equal(t, 2, m.PageCount())

	tables, err := m.Tables(1)
	require.NoError(t, err)
	assert.Len(t, tables, 1)

	text, err := FullText(m)
	require.NoError(t, err)
	assert.Equal(t, "page one\npage two", text)

	_, err = m.Text(5)
	assert.ErrorIs(t, err, ErrResource)

	assert.False(t, m.Closed())
	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
}

func TestMemory_Errors(t *testing.T) {
	boom := fmt.Errorf("%w: disk gone", ErrResource)
	m := &Memory{Pages: []Page{{}}, ReadErr: boom, CloseErr: boom}

	_, err := FullText(m)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Close(), ErrResource)
}
