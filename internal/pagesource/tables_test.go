package pagesource

import (
	"testing"

	"github.com/dgallion1/pagetree/internal/geom"
)

// grid builds a rows x cols lattice of touching cell rectangles.
func grid(x, y float64, rows, cols int, cellW, cellH float64) []geom.Rect {
	var cells []geom.Rect
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cells = append(cells, geom.Rect{
				X0: x + float64(c)*cellW,
				Y0: y + float64(r)*cellH,
				X1: x + float64(c+1)*cellW,
				Y1: y + float64(r+1)*cellH,
			})
		}
	}
	return cells
}

func TestDetectTables_FindsCellGrid(t *testing.T) {
	cells := grid(100, 200, 3, 3, 60, 25)
	tables := detectTables(cells)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	want := geom.Rect{X0: 100, Y0: 200, X1: 280, Y1: 275}
	if tables[0] != want {
		t.Errorf("expected bounds %+v, got %+v", want, tables[0])
	}
}

func TestDetectTables_IgnoresScatteredDrawings(t *testing.T) {
	// Enough rectangles but mutually far apart: figure fragments, not cells.
	drawings := []geom.Rect{
		{X0: 50, Y0: 100, X1: 120, Y1: 160},
		{X0: 300, Y0: 100, X1: 370, Y1: 160},
		{X0: 50, Y0: 400, X1: 120, Y1: 460},
		{X0: 300, Y0: 400, X1: 370, Y1: 460},
	}
	if tables := detectTables(drawings); len(tables) != 0 {
		t.Errorf("expected no tables, got %v", tables)
	}
}

func TestDetectTables_TooFewCells(t *testing.T) {
	cells := grid(100, 200, 1, 3, 60, 25)
	if tables := detectTables(cells); len(tables) != 0 {
		t.Errorf("expected no tables for 3 cells, got %v", tables)
	}
}

func TestDetectTables_SmallClusterIgnored(t *testing.T) {
	// A connected cluster whose extent stays under the minimum in one axis.
	cells := grid(100, 200, 4, 1, 40, 10)
	if tables := detectTables(cells); len(tables) != 0 {
		t.Errorf("expected sub-extent cluster ignored, got %v", tables)
	}
}

func TestDetectTables_TwoSeparateTables(t *testing.T) {
	cells := append(grid(60, 150, 2, 2, 70, 40), grid(320, 500, 2, 2, 70, 40)...)
	tables := detectTables(cells)
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
}
