package layout

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dgallion1/pagetree/internal/geom"
)

// RenderFunc rasterizes a page region to a PNG file. Supplied by the page
// source so the locator stays testable without a PDF backend.
type RenderFunc func(ctx context.Context, pageNum int, clip geom.Rect, outPath string) error

// Locator finds figure regions for caption blocks. Textbook convention puts
// the caption below its figure, so the search runs upward from the caption,
// bounded to the caption's column.
type Locator struct {
	rules  *Rules
	render RenderFunc
	log    *slog.Logger

	imageDir      string
	splitFraction float64
	lookback      float64 // points searched above the caption
	margin        float64 // padding around the drawing union, catches axis labels
	minScore      float64
}

// LocatorConfig tunes the caption-to-drawing search.
type LocatorConfig struct {
	ImageDir      string
	SplitFraction float64
	Lookback      float64
	Margin        float64
	MinScore      float64
}

// NewLocator builds a locator. Zero config fields get defaults.
func NewLocator(rules *Rules, render RenderFunc, cfg LocatorConfig, log *slog.Logger) *Locator {
	if cfg.SplitFraction <= 0 {
		cfg.SplitFraction = 0.5
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 280
	}
	if cfg.Margin <= 0 {
		cfg.Margin = 10
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = 1
	}
	return &Locator{
		rules:         rules,
		render:        render,
		log:           log,
		imageDir:      cfg.ImageDir,
		splitFraction: cfg.SplitFraction,
		lookback:      cfg.Lookback,
		margin:        cfg.Margin,
		minScore:      cfg.MinScore,
	}
}

// Candidate is a scored figure region: the union of the drawings matched
// above a caption.
type Candidate struct {
	Bounds geom.Rect
	// Score counts the drawings contributing to the union. The caller
	// rejects candidates below its threshold; with the default threshold a
	// single drawing is enough.
	Score float64
	// Gap is the vertical distance from the lowest drawing to the caption.
	Gap float64
}

// FindRegion runs the scored candidate search: drawings intersecting the
// search window and lying within the column's horizontal bounds are
// union-merged into one region. Returns false when nothing matches.
func FindRegion(drawings []geom.Rect, search, column geom.Rect) (Candidate, bool) {
	var cand Candidate
	lowest := search.Y0
	matched := false
	for _, d := range drawings {
		if !d.Intersects(search) {
			continue
		}
		if d.CenterX() < column.X0 || d.CenterX() > column.X1 {
			continue
		}
		cand.Bounds = cand.Bounds.Union(d)
		cand.Score++
		if d.Y1 > lowest {
			lowest = d.Y1
		}
		matched = true
	}
	if !matched {
		return Candidate{}, false
	}
	cand.Gap = search.Y1 - lowest
	return cand, true
}

// Process scans ordered blocks for figure captions, locates and rasterizes
// their figure regions, and splices a diagram block in front of each caption
// that matched. Captions without a matching drawing, and captions whose
// rasterization fails, stay in the stream as ordinary text: a missing figure
// is never an error.
func (l *Locator) Process(ctx context.Context, page PageGeometry, blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind != BlockText {
			out = append(out, b)
			continue
		}
		ref, ok := l.rules.ParseCaption(b.Content)
		if !ok || !l.rules.IsFigureText(b.Content) {
			out = append(out, b)
			continue
		}

		diagram, ok := l.locate(ctx, page, b, ref)
		if !ok {
			out = append(out, b)
			continue
		}
		// Diagram first, then the caption re-inserted directly after it.
		out = append(out, diagram, b)
	}
	return out
}

// PageGeometry is the slice of page data the locator needs.
type PageGeometry struct {
	Number   int
	Width    float64
	Height   float64
	Drawings []geom.Rect
}

func (p PageGeometry) bounds() geom.Rect {
	return geom.Rect{X0: 0, Y0: 0, X1: p.Width, Y1: p.Height}
}

func (l *Locator) locate(ctx context.Context, page PageGeometry, caption Block, ref FigureRef) (Block, bool) {
	splitX := page.Width * l.splitFraction
	column := geom.Rect{X0: 0, Y0: 0, X1: splitX, Y1: page.Height}
	if caption.BBox.X0 >= splitX {
		column = geom.Rect{X0: splitX, Y0: 0, X1: page.Width, Y1: page.Height}
	}

	search := geom.Rect{
		X0: column.X0,
		Y0: max(0, caption.BBox.Y0-l.lookback),
		X1: column.X1,
		Y1: caption.BBox.Y0,
	}

	cand, ok := FindRegion(page.Drawings, search, column)
	if !ok || cand.Score < l.minScore {
		return Block{}, false
	}

	region := cand.Bounds.Pad(l.margin, page.bounds())
	outPath := filepath.Join(l.imageDir, ref.Basename())
	if err := l.render(ctx, page.Number, region, outPath); err != nil {
		l.log.Warn("figure rasterization failed, keeping caption as text",
			"figure", ref.Basename(), "page", page.Number, "error", err)
		return Block{}, false
	}

	return Block{
		Kind:    BlockDiagram,
		Content: fmt.Sprintf("[IMAGE: %s]", outPath),
		BBox:    region,
		Column:  caption.Column,
	}, true
}
