// Package layout reconstructs reading order and semantic structure from a
// page's raw geometry: column partitioning, fragment-repair merging, figure
// location, and block classification.
package layout

import (
	"github.com/dgallion1/pagetree/internal/geom"
)

// Column identifies which reading column a block belongs to.
type Column int

const (
	ColumnLeft Column = iota
	ColumnRight
)

func (c Column) String() string {
	if c == ColumnRight {
		return "right"
	}
	return "left"
}

// BlockKind distinguishes text blocks from located diagram regions.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockDiagram
)

// Block is a merged, column-assigned unit of page content. For BlockDiagram
// the Content holds the image reference token; the caption follows as its own
// text block in the stream.
type Block struct {
	Kind    BlockKind
	Content string
	BBox    geom.Rect
	Column  Column
}

// ItemType is the top-level classification of a block.
type ItemType string

const (
	ItemHeading  ItemType = "HEADING"
	ItemContent  ItemType = "CONTENT"
	ItemExercise ItemType = "EXERCISE"
)

// ContentKind refines CONTENT items.
type ContentKind string

const (
	KindParagraph ContentKind = "PARAGRAPH"
	KindFigure    ContentKind = "FIGURE"
	KindEquation  ContentKind = "EQUATION"
)

// Item is one entry of the classified, reading-ordered stream the hierarchy
// builder folds over.
type Item struct {
	Type  ItemType
	Kind  ContentKind // meaningful for ItemContent only
	Value string
}
