// Package layout provides a deterministic geometry for the document: every
// rune occupies one cell of a fixed-width grid.
package layout

import (
	"sync"
	"unicode/utf8"

	"github.com/gcbaptista/go-vocab-highlighter/model"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

// Default grid metrics.
const (
	DefaultColumns    = 80
	DefaultCharWidth  = 8.0
	DefaultLineHeight = 16.0
)

type cell struct {
	unit   model.UnitID
	offset int // byte offset of the rune in the unit text
	line   int
	col    int
}

type gridKey struct {
	line int
	col  int
}

// Monospace lays units out in reading order. Each block starts on a new line
// and lines wrap at Columns. Hidden units take no space.
type Monospace struct {
	source     services.UnitSource
	columns    int
	charWidth  float64
	lineHeight float64

	mu      sync.Mutex
	version uint64
	built   bool
	units   map[model.UnitID][]cell
	grid    map[gridKey]cell
}

// NewMonospace creates a layout over source. Non-positive metrics select the defaults.
func NewMonospace(source services.UnitSource, columns int, charWidth, lineHeight float64) *Monospace {
	if columns <= 0 {
		columns = DefaultColumns
	}
	if charWidth <= 0 {
		charWidth = DefaultCharWidth
	}
	if lineHeight <= 0 {
		lineHeight = DefaultLineHeight
	}
	return &Monospace{source: source, columns: columns, charWidth: charWidth, lineHeight: lineHeight}
}

var _ services.Layout = (*Monospace)(nil)

// Rects returns one rectangle per line the anchor spans, or nil when the
// anchor is empty, hidden or points outside its unit.
func (m *Monospace) Rects(anchor model.Anchor) []model.Rect {
	if anchor.Empty() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked()

	cells, ok := m.units[anchor.Unit]
	if !ok {
		return nil
	}

	var rects []model.Rect
	for _, c := range cells {
		if c.offset < anchor.Start || c.offset >= anchor.End {
			continue
		}
		x := float64(c.col) * m.charWidth
		y := float64(c.line) * m.lineHeight
		if n := len(rects); n > 0 && rects[n-1].Y == y && rects[n-1].X+rects[n-1].Width == x {
			rects[n-1].Width += m.charWidth
			continue
		}
		rects = append(rects, model.Rect{X: x, Y: y, Width: m.charWidth, Height: m.lineHeight})
	}
	return rects
}

// CaretAt returns the unit and byte offset of the rune under the point.
func (m *Monospace) CaretAt(x, y float64) (model.UnitID, int, bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked()

	c, ok := m.grid[gridKey{line: int(y / m.lineHeight), col: int(x / m.charWidth)}]
	if !ok {
		return 0, 0, false
	}
	return c.unit, c.offset, true
}

// PointOf returns the centre of the first cell of an anchor, which is where a
// pointer has to be to hit it.
func (m *Monospace) PointOf(anchor model.Anchor) (model.Point, bool) {
	rects := m.Rects(anchor)
	if len(rects) == 0 {
		return model.Point{}, false
	}
	return model.Point{X: rects[0].X + m.charWidth/2, Y: rects[0].Y + m.lineHeight/2}, true
}

func (m *Monospace) refreshLocked() {
	v := m.source.Version()
	if m.built && v == m.version {
		return
	}

	m.units = make(map[model.UnitID][]cell)
	m.grid = make(map[gridKey]cell)

	line, col := 0, 0
	var block model.BlockID
	first := true
	for _, u := range m.source.Units() {
		if u.Hidden {
			continue
		}
		if first {
			block = u.Block
			first = false
		} else if u.Block != block {
			block = u.Block
			line++
			col = 0
		}

		cells := make([]cell, 0, utf8.RuneCountInString(u.Text))
		for offset, r := range u.Text {
			if r == '\n' {
				line++
				col = 0
				continue
			}
			if col >= m.columns {
				line++
				col = 0
			}
			c := cell{unit: u.ID, offset: offset, line: line, col: col}
			cells = append(cells, c)
			m.grid[gridKey{line: line, col: col}] = c
			col++
		}
		m.units[u.ID] = cells
	}

	m.version = v
	m.built = true
}
