package main

import (
	"strings"

	"github.com/joshuapare/slabshm/alloc"
)

// Occupancy glyphs, from empty to full.
var shades = []rune{'·', '░', '▒', '▓', '█'}

// usageBar renders the occupancy of cellsNum cells in at most width columns.
// Each column covers an equal slice of the cells and is shaded by the fraction
// of them inside used runs.
func usageBar(runs []alloc.Run, cellsNum uint32, width int) []rune {
	if width <= 0 || cellsNum == 0 {
		return nil
	}
	n := uint64(cellsNum)
	w := uint64(width)
	if w > n {
		w = n
	}
	colStart := func(c uint64) uint64 { return c * n / w }

	used := make([]uint64, w)
	for _, r := range runs {
		if r.Free || r.Len == 0 {
			continue
		}
		s, e := uint64(r.Start), uint64(r.Start)+uint64(r.Len)
		if e > n {
			e = n
		}
		for c := s * w / n; c < w && colStart(c) < e; c++ {
			lo, hi := max(s, colStart(c)), min(e, colStart(c+1))
			if hi > lo {
				used[c] += hi - lo
			}
		}
	}

	bar := make([]rune, w)
	top := uint64(len(shades) - 1)
	for c := range bar {
		span := colStart(uint64(c)+1) - colStart(uint64(c))
		switch u := used[c]; {
		case u == 0:
			bar[c] = shades[0]
		case u >= span:
			bar[c] = shades[top]
		default:
			// Partially used columns never render as empty or full.
			bar[c] = shades[1+u*(top-1)/span]
		}
	}
	return bar
}

func renderBar(bar []rune) string {
	var b strings.Builder
	for _, r := range bar {
		if r == shades[0] {
			b.WriteString(freeStyle.Render(string(r)))
		} else {
			b.WriteString(usedStyle.Render(string(r)))
		}
	}
	return b.String()
}
