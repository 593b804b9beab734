package layout

import (
	"context"
	"log/slog"

	"github.com/dgallion1/pagetree/internal/pagesource"
)

// Config fixes the knobs of one extraction run. The merge pass order itself
// is not configurable: vertical-math, then equation stacks, then split
// headings.
type Config struct {
	Chapter          int      // 0 autodetects from the first heading numeral
	SplitFraction    float64  // column split as a fraction of page width
	ExerciseKeywords []string // substrings that flip exercise mode
	IgnoreTables     bool     // drop blocks inside detected table regions
	DiagramLookback  float64  // points searched above a caption
	DiagramMargin    float64  // padding around a located figure region
	ImageDir         string   // where figure PNGs are written
}

// Engine runs the per-page reconstruction: partition into columns, repair
// merges, figure location, classification. One Engine serves one document
// run; the classifier's exercise latch is carried across pages.
type Engine struct {
	rules      *Rules
	cfg        Config
	locator    *Locator
	classifier *Classifier
	log        *slog.Logger
}

// NewEngine builds the per-document engine. render may be nil, in which case
// figure extraction is disabled and captions pass through as text.
func NewEngine(cfg Config, render RenderFunc, log *slog.Logger) *Engine {
	if cfg.SplitFraction <= 0 {
		cfg.SplitFraction = 0.5
	}
	rules := NewRules(cfg.Chapter, cfg.ExerciseKeywords)

	var locator *Locator
	if render != nil {
		locator = NewLocator(rules, render, LocatorConfig{
			ImageDir:      cfg.ImageDir,
			SplitFraction: cfg.SplitFraction,
			Lookback:      cfg.DiagramLookback,
			Margin:        cfg.DiagramMargin,
		}, log)
	}

	return &Engine{
		rules:      rules,
		cfg:        cfg,
		locator:    locator,
		classifier: NewClassifier(rules, cfg.IgnoreTables),
		log:        log,
	}
}

// Rules exposes the compiled rule set, shared with the hierarchy builder.
func (e *Engine) Rules() *Rules { return e.rules }

// ProcessPage turns one page's raw geometry into classified items in reading
// order. Pages must be fed in increasing page order.
func (e *Engine) ProcessPage(ctx context.Context, page *pagesource.Page) []Item {
	blocks := make([]Block, 0, len(page.Blocks))
	for _, tb := range page.Blocks {
		blocks = append(blocks, Block{Kind: BlockText, Content: tb.Text(), BBox: tb.BBox})
	}

	ordered := Partition(blocks, page.Width, e.cfg.SplitFraction)
	merged := MergeVerticalMath(ordered, e.rules)
	merged = MergeEquationStacks(merged, e.rules, page.Width)
	merged = MergeSplitHeadings(merged, e.rules)

	if e.locator != nil {
		merged = e.locator.Process(ctx, PageGeometry{
			Number:   page.Number,
			Width:    page.Width,
			Height:   page.Height,
			Drawings: page.Drawings,
		}, merged)
	}

	return e.classifier.ClassifyPage(merged, page.Tables)
}
