package layout

import (
	"strings"

	"github.com/dgallion1/pagetree/internal/geom"
)

// Classifier labels merged, reading-ordered blocks. It is stateful across a
// document: once an exercise marker is seen after the first real section
// heading, every later block classifies as EXERCISE (a one-way latch), so one
// Classifier serves exactly one run. Markers seen earlier are ToC residue and
// fall through to ordinary content.
type Classifier struct {
	rules        *Rules
	ignoreTables bool
	started      bool
	inExercises  bool
}

// NewClassifier returns a classifier for one document run.
func NewClassifier(rules *Rules, ignoreTables bool) *Classifier {
	return &Classifier{rules: rules, ignoreTables: ignoreTables}
}

// classifyRule is one prioritized entry of the rule table: the first rule
// whose match succeeds decides the block.
type classifyRule struct {
	name  string
	match func(c *Classifier, b Block, tables []geom.Rect) (Item, bool)
}

var classifyRules = []classifyRule{
	{"table-cell", matchTableCell},
	{"noise", matchNoise},
	{"exercise-latch", matchExerciseLatch},
	{"heading", matchHeading},
	{"exercise-marker", matchExerciseMarker},
	{"figure", matchFigure},
	{"equation", matchEquation},
}

// ClassifyPage appends the classification of one page's blocks (in final
// reading order) to the document stream. Blocks matching no rule default to
// paragraph content; ambiguity is never an error.
func (c *Classifier) ClassifyPage(blocks []Block, tables []geom.Rect) []Item {
	var items []Item
	for _, b := range blocks {
		if b.Kind == BlockDiagram {
			if c.inExercises {
				items = append(items, Item{Type: ItemExercise, Value: b.Content})
				continue
			}
			items = append(items, Item{Type: ItemContent, Kind: KindFigure, Value: b.Content})
			continue
		}

		item, drop := c.classify(b, tables)
		if drop {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (c *Classifier) classify(b Block, tables []geom.Rect) (item Item, drop bool) {
	for _, rule := range classifyRules {
		if it, ok := rule.match(c, b, tables); ok {
			if it.Type == "" {
				return Item{}, true // matched a drop rule
			}
			return it, false
		}
	}
	return Item{Type: ItemContent, Kind: KindParagraph, Value: normalize(b.Content)}, false
}

// normalize collapses internal whitespace (line breaks inside a block) into
// single spaces for the output stream.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func matchTableCell(c *Classifier, b Block, tables []geom.Rect) (Item, bool) {
	if !c.ignoreTables {
		return Item{}, false
	}
	for _, t := range tables {
		if b.BBox.Intersects(t) {
			return Item{}, true
		}
	}
	return Item{}, false
}

func matchNoise(c *Classifier, b Block, _ []geom.Rect) (Item, bool) {
	if c.rules.IsNoise(b.Content, b.BBox.Width()) {
		return Item{}, true
	}
	return Item{}, false
}

func matchExerciseLatch(c *Classifier, b Block, _ []geom.Rect) (Item, bool) {
	if !c.inExercises {
		return Item{}, false
	}
	return Item{Type: ItemExercise, Value: normalize(b.Content)}, true
}

func matchHeading(c *Classifier, b Block, _ []geom.Rect) (Item, bool) {
	if !c.rules.IsHeading(b.Content) {
		return Item{}, false
	}
	if c.rules.IsRealSectionStart(b.Content) {
		c.started = true
	}
	return Item{Type: ItemHeading, Value: normalize(b.Content)}, true
}

func matchExerciseMarker(c *Classifier, b Block, _ []geom.Rect) (Item, bool) {
	if !c.started || !c.rules.IsExerciseMarker(b.Content) {
		return Item{}, false
	}
	c.inExercises = true
	return Item{Type: ItemExercise, Value: normalize(b.Content)}, true
}

func matchFigure(c *Classifier, b Block, _ []geom.Rect) (Item, bool) {
	if !c.rules.IsFigureText(b.Content) {
		return Item{}, false
	}
	return Item{Type: ItemContent, Kind: KindFigure, Value: normalize(b.Content)}, true
}

func matchEquation(c *Classifier, b Block, _ []geom.Rect) (Item, bool) {
	if !c.rules.HasEquationNumber(b.Content) {
		return Item{}, false
	}
	return Item{Type: ItemContent, Kind: KindEquation, Value: normalize(b.Content)}, true
}
