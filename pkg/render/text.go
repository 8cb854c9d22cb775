package render

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/portalmap/pkg/geom"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
)

// Line directions leaving a cell.
const (
	up uint8 = 1 << iota
	down
	left
	right
)

var lineRunes = [16]rune{
	' ', '│', '│', '│',
	'─', '┘', '┐', '┤',
	'─', '└', '┌', '├',
	'─', '┴', '┬', '┼',
}

type grid struct {
	w, h  int
	cells [][]rune
	lines [][]uint8
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]rune, h), lines: make([][]uint8, h)}
	for y := range h {
		g.cells[y] = []rune(strings.Repeat(" ", w))
		g.lines[y] = make([]uint8, w)
	}
	return g
}

func (g *grid) in(x, y int) bool { return x >= 0 && y >= 0 && x < g.w && y < g.h }

func (g *grid) set(x, y int, r rune) {
	if g.in(x, y) {
		g.cells[y][x] = r
	}
}

func (g *grid) text(x, y int, s string) {
	for _, r := range s {
		g.set(x, y, r)
		x++
	}
}

func (g *grid) link(x, y int, dir uint8) {
	if !g.in(x, y) {
		return
	}
	g.lines[y][x] |= dir
	g.cells[y][x] = lineRunes[g.lines[y][x]]
}

// run draws one axis-aligned run between two cells.
func (g *grid) run(x0, y0, x1, y1 int) {
	switch {
	case x0 == x1 && y0 == y1:
		return
	case x0 == x1:
		if y0 > y1 {
			y0, y1 = y1, y0
		}
		for y := y0; y <= y1; y++ {
			if y > y0 {
				g.link(x0, y, up)
			}
			if y < y1 {
				g.link(x0, y, down)
			}
		}
	default:
		if x0 > x1 {
			x0, x1 = x1, x0
		}
		for x := x0; x <= x1; x++ {
			if x > x0 {
				g.link(x, y0, left)
			}
			if x < x1 {
				g.link(x, y0, right)
			}
		}
	}
}

func (g *grid) rect(x0, y0, x1, y1 int, h, v rune, corners [4]rune) {
	for x := x0 + 1; x < x1; x++ {
		g.set(x, y0, h)
		g.set(x, y1, h)
	}
	for y := y0 + 1; y < y1; y++ {
		g.set(x0, y, v)
		g.set(x1, y, v)
	}
	g.set(x0, y0, corners[0])
	g.set(x1, y0, corners[1])
	g.set(x0, y1, corners[2])
	g.set(x1, y1, corners[3])
}

func (g *grid) String() string {
	var b strings.Builder
	for _, row := range g.cells {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func cell(v float64) int { return int(math.Floor(v)) }

type cellRect struct{ x0, y0, x1, y1 int }

func cells(r geom.Rect) cellRect {
	return cellRect{cell(r.X), cell(r.Y), cell(r.Right()) - 1, cell(r.Bottom()) - 1}
}

// RenderText draws the scene on a character grid. The scene's layout is
// expected in cell units, as produced with [surface.TerminalMetrics].
// Coordinates are floored to cells.
func RenderText(s Scene) string {
	c := s.Layout.Container
	g := newGrid(int(math.Ceil(c.Width)), int(math.Ceil(c.Height)))

	for _, band := range s.Layout.Bands {
		writeTextBand(g, band)
	}
	for _, seg := range s.Segments {
		for i := 1; i < len(seg.Points); i++ {
			a, b := seg.Points[i-1], seg.Points[i]
			g.run(cell(a.X), cell(a.Y), cell(b.X), cell(b.Y))
		}
	}
	for _, band := range s.Layout.Bands {
		for _, box := range band.Boxes {
			writeTextBox(g, box)
		}
	}
	for _, seg := range s.Segments {
		if seg.Arrow && len(seg.Points) >= 2 {
			writeArrow(g, seg)
		}
	}
	return g.String()
}

func writeTextBand(g *grid, band surface.Band) {
	r := cells(band.Rect)
	if band.Framed {
		g.rect(r.x0, r.y0, r.x1, r.y1, '┄', '┆', [4]rune{'╭', '╮', '╰', '╯'})
	}
	title := truncate(band.Title, r.x0-1)
	g.text(r.x0-1-utf8.RuneCountInString(title), cell(band.Rect.CenterY()), title)

	if band.Heading != "" && len(band.Boxes) > 0 {
		width := r.x1 - r.x0 - 1
		h := truncate(band.Heading, width)
		y := cell(band.Boxes[0].Rect.Y) - 1
		g.text(r.x0+1+(width-utf8.RuneCountInString(h))/2, y, h)
	}
}

func writeTextBox(g *grid, box surface.Box) {
	r := cells(box.Rect)
	for y := r.y0 + 1; y < r.y1; y++ {
		for x := r.x0 + 1; x < r.x1; x++ {
			g.set(x, y, ' ')
		}
	}
	if box.Placeholder {
		g.rect(r.x0, r.y0, r.x1, r.y1, '╌', '╎', [4]rune{'┌', '┐', '└', '┘'})
	} else {
		g.rect(r.x0, r.y0, r.x1, r.y1, '─', '│', [4]rune{'┌', '┐', '└', '┘'})
	}

	width := r.x1 - r.x0 - 1
	lines := boxLines(box)
	rows := r.y1 - r.y0 - 1
	if len(lines) > rows {
		lines = lines[:max(rows, 0)]
	}
	y := r.y0 + 1 + (rows-len(lines))/2
	for i, ln := range lines {
		ln = truncate(ln, width)
		g.text(r.x0+1+(width-utf8.RuneCountInString(ln))/2, y+i, ln)
	}
}

// writeArrow puts the arrowhead in the cell just outside the destination.
func writeArrow(g *grid, seg route.Segment) {
	a, b := seg.Points[len(seg.Points)-2], seg.Points[len(seg.Points)-1]
	x, y := cell(b.X), cell(b.Y)
	switch {
	case b.Y > a.Y:
		g.set(x, y-1, '▼')
	case b.Y < a.Y:
		g.set(x, y, '▲')
	case b.X > a.X:
		g.set(x-1, y, '▶')
	default:
		g.set(x, y, '◀')
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
