package document

import (
	"math"
	"sort"
	"strings"
)

// glyph is a positioned run of text as reported by the PDF content stream.
// Y grows upwards.
type glyph struct {
	X, Y, W, Size float64
	S             string
}

type cell struct {
	x0, x1 float64
	text   string
}

type line struct {
	y     float64
	cells []cell
}

func (l line) text() string {
	parts := make([]string, len(l.cells))
	for i, c := range l.cells {
		parts[i] = c.text
	}
	return strings.Join(parts, "  ")
}

const (
	defaultFontSize = 10
	// rowTolerance is the fraction of the font size within which two
	// baselines belong to the same visual row.
	rowTolerance = 0.4
	// wordGap and cellGap are fractions of the font size. A horizontal gap
	// below wordGap joins glyphs, below cellGap inserts a space, and anything
	// wider starts a new cell.
	wordGap = 0.15
	cellGap = 1.2
)

func fontSize(g glyph) float64 {
	if g.Size <= 0 {
		return defaultFontSize
	}
	return g.Size
}

// layoutLines groups glyphs into visual rows, top to bottom, and splits each
// row into cells at wide horizontal gaps.
func layoutLines(glyphs []glyph) []line {
	gs := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			gs = append(gs, g)
		}
	}
	if len(gs) == 0 {
		return nil
	}

	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].Y != gs[j].Y {
			return gs[i].Y > gs[j].Y
		}
		return gs[i].X < gs[j].X
	})

	var rows [][]glyph
	var rowY float64
	for _, g := range gs {
		if len(rows) > 0 && math.Abs(rowY-g.Y) <= fontSize(g)*rowTolerance {
			rows[len(rows)-1] = append(rows[len(rows)-1], g)
			continue
		}
		rows = append(rows, []glyph{g})
		rowY = g.Y
	}

	lines := make([]line, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		lines = append(lines, line{y: row[0].Y, cells: splitCells(row)})
	}
	return lines
}

func splitCells(row []glyph) []cell {
	var cells []cell
	var b strings.Builder
	cur := cell{x0: row[0].X}
	end := row[0].X

	for i, g := range row {
		if i > 0 {
			gap := g.X - end
			size := fontSize(g)
			switch {
			case gap >= size*cellGap:
				cur.x1 = end
				cur.text = strings.TrimSpace(b.String())
				if cur.text != "" {
					cells = append(cells, cur)
				}
				b.Reset()
				cur = cell{x0: g.X}
			case gap >= size*wordGap:
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		if e := g.X + g.W; e > end {
			end = e
		}
	}
	cur.x1 = end
	cur.text = strings.TrimSpace(b.String())
	if cur.text != "" {
		cells = append(cells, cur)
	}
	return cells
}

// layoutTables turns runs of consecutive multi-cell lines into tables. Column
// positions come from the widest line of each run; every other line's cells
// are assigned to the column whose span is closest.
func layoutTables(lines []line) []Table {
	var tables []Table
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= 2 {
			tables = append(tables, alignBlock(lines[start:end]))
		}
		start = -1
	}
	for i, l := range lines {
		if len(l.cells) >= 2 {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(lines))
	return tables
}

func alignBlock(block []line) Table {
	widest := 0
	for i, l := range block {
		if len(l.cells) > len(block[widest].cells) {
			widest = i
		}
	}
	anchors := block[widest].cells

	table := make(Table, 0, len(block))
	for _, l := range block {
		row := make([]string, len(anchors))
		for _, c := range l.cells {
			col := nearestColumn(anchors, c)
			if row[col] != "" {
				row[col] += " "
			}
			row[col] += c.text
		}
		table = append(table, row)
	}
	return table
}

func nearestColumn(anchors []cell, c cell) int {
	best, bestDist := 0, math.Inf(1)
	for i, a := range anchors {
		// Overlapping spans win outright.
		if c.x0 <= a.x1 && c.x1 >= a.x0 {
			overlap := math.Min(c.x1, a.x1) - math.Max(c.x0, a.x0)
			if d := -overlap; d < bestDist {
				best, bestDist = i, d
			}
			continue
		}
		d := math.Min(math.Abs(c.x0-a.x1), math.Abs(c.x1-a.x0))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func linesText(lines []line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text()
	}
	return strings.Join(parts, "\n")
}
