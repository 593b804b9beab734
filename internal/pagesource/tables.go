package pagesource

import (
	"github.com/dgallion1/pagetree/internal/geom"
)

// Table regions are detected purely geometrically: a table renders as a
// cluster of adjacent drawn rectangles (cell borders). Any cluster of at
// least minTableCells rectangles whose members touch or overlap is reported
// as one region. The classifier uses these to drop tabular cell text.

const (
	minTableCells  = 4
	cellAdjacency  = 2.0 // points of slack when testing cell adjacency
	minTableExtent = 60  // ignore clusters smaller than this in both axes
)

// detectTables clusters drawing rectangles into candidate table regions.
func detectTables(drawings []geom.Rect) []geom.Rect {
	n := len(drawings)
	if n < minTableCells {
		return nil
	}

	// Union-find over rectangles that touch within the adjacency slack.
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		grownI := grow(drawings[i], cellAdjacency)
		for j := i + 1; j < n; j++ {
			if grownI.Intersects(drawings[j]) {
				union(i, j)
			}
		}
	}

	type cluster struct {
		bounds geom.Rect
		count  int
	}
	clusters := map[int]*cluster{}
	for i := 0; i < n; i++ {
		root := find(i)
		c, ok := clusters[root]
		if !ok {
			c = &cluster{}
			clusters[root] = c
		}
		c.bounds = c.bounds.Union(drawings[i])
		c.count++
	}

	var tables []geom.Rect
	for _, c := range clusters {
		if c.count < minTableCells {
			continue
		}
		if c.bounds.Width() < minTableExtent || c.bounds.Height() < minTableExtent {
			continue
		}
		tables = append(tables, c.bounds)
	}
	return tables
}

func grow(r geom.Rect, m float64) geom.Rect {
	return geom.Rect{X0: r.X0 - m, Y0: r.Y0 - m, X1: r.X1 + m, Y1: r.Y1 + m}
}
