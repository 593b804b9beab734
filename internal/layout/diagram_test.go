package layout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dgallion1/pagetree/internal/geom"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFindRegion_UnionsMatchingDrawings(t *testing.T) {
	drawings := []geom.Rect{
		{X0: 60, Y0: 120, X1: 200, Y1: 200},
		{X0: 80, Y0: 210, X1: 220, Y1: 280},
		{X0: 400, Y0: 150, X1: 500, Y1: 250}, // other column
	}
	column := geom.Rect{X0: 0, Y0: 0, X1: 297, Y1: 842}
	search := geom.Rect{X0: 0, Y0: 40, X1: 297, Y1: 320}

	cand, ok := FindRegion(drawings, search, column)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if cand.Score != 2 {
		t.Errorf("expected score 2, got %v", cand.Score)
	}
	want := geom.Rect{X0: 60, Y0: 120, X1: 220, Y1: 280}
	if cand.Bounds != want {
		t.Errorf("expected bounds %+v, got %+v", want, cand.Bounds)
	}
	if cand.Gap != 40 {
		t.Errorf("expected gap 40 (search bottom 320 minus lowest drawing 280), got %v", cand.Gap)
	}
}

func TestFindRegion_NoMatch(t *testing.T) {
	drawings := []geom.Rect{
		{X0: 60, Y0: 500, X1: 200, Y1: 600}, // below the search window
	}
	column := geom.Rect{X0: 0, Y0: 0, X1: 297, Y1: 842}
	search := geom.Rect{X0: 0, Y0: 40, X1: 297, Y1: 320}

	if _, ok := FindRegion(drawings, search, column); ok {
		t.Error("expected no candidate")
	}
}

func TestFindRegion_ColumnBound(t *testing.T) {
	// The drawing overlaps the search window but its centroid sits in the
	// other column, so it must not count.
	drawings := []geom.Rect{
		{X0: 250, Y0: 120, X1: 500, Y1: 200},
	}
	column := geom.Rect{X0: 0, Y0: 0, X1: 297, Y1: 842}
	search := geom.Rect{X0: 0, Y0: 40, X1: 297, Y1: 320}

	if _, ok := FindRegion(drawings, search, column); ok {
		t.Error("expected centroid outside the column to be rejected")
	}
}

func locatorPage() PageGeometry {
	return PageGeometry{
		Number: 3,
		Width:  595,
		Height: 842,
		Drawings: []geom.Rect{
			{X0: 60, Y0: 120, X1: 220, Y1: 280},
		},
	}
}

func TestLocator_SplicesDiagramBeforeCaption(t *testing.T) {
	var renderedClip geom.Rect
	render := func(ctx context.Context, pageNum int, clip geom.Rect, outPath string) error {
		renderedClip = clip
		return nil
	}
	l := NewLocator(NewRules(6, nil), render, LocatorConfig{ImageDir: "images"}, testLogger())

	blocks := []Block{
		textBlock("Some paragraph above the figure.", 40, 60, 280, 100),
		textBlock("Fig. 6.4 Centre of mass of a rod", 60, 300, 260, 320),
	}
	got := l.Process(context.Background(), locatorPage(), blocks)

	if len(got) != 3 {
		t.Fatalf("expected diagram spliced in, got %d blocks", len(got))
	}
	if got[1].Kind != BlockDiagram {
		t.Fatalf("expected diagram at position 1, got kind %v", got[1].Kind)
	}
	if got[1].Content != "[IMAGE: images/fig_6_4.png]" {
		t.Errorf("unexpected image token %q", got[1].Content)
	}
	if got[2].Content != "Fig. 6.4 Centre of mass of a rod" {
		t.Errorf("expected caption after diagram, got %q", got[2].Content)
	}
	// Region is the padded drawing union.
	want := geom.Rect{X0: 50, Y0: 110, X1: 230, Y1: 290}
	if renderedClip != want {
		t.Errorf("expected render clip %+v, got %+v", want, renderedClip)
	}
}

func TestLocator_CaptionWithoutDrawingStaysText(t *testing.T) {
	render := func(ctx context.Context, pageNum int, clip geom.Rect, outPath string) error {
		t.Error("render should not be called without a matching drawing")
		return nil
	}
	l := NewLocator(NewRules(6, nil), render, LocatorConfig{ImageDir: "images"}, testLogger())

	page := PageGeometry{Number: 3, Width: 595, Height: 842}
	blocks := []Block{
		textBlock("Fig. 6.4 Centre of mass of a rod", 60, 300, 260, 320),
	}
	got := l.Process(context.Background(), page, blocks)
	if len(got) != 1 || got[0].Kind != BlockText {
		t.Fatalf("expected caption kept as text, got %v", got)
	}
}

func TestLocator_RenderFailureKeepsCaption(t *testing.T) {
	render := func(ctx context.Context, pageNum int, clip geom.Rect, outPath string) error {
		return errors.New("pdftoppm not found")
	}
	l := NewLocator(NewRules(6, nil), render, LocatorConfig{ImageDir: "images"}, testLogger())

	blocks := []Block{
		textBlock("Fig. 6.4 Centre of mass of a rod", 60, 300, 260, 320),
	}
	got := l.Process(context.Background(), locatorPage(), blocks)
	if len(got) != 1 || got[0].Kind != BlockText {
		t.Fatalf("expected caption kept as text on render failure, got %v", got)
	}
}

func TestLocator_MidSentenceReferenceIgnored(t *testing.T) {
	render := func(ctx context.Context, pageNum int, clip geom.Rect, outPath string) error {
		t.Error("render should not be called for a mid-sentence reference")
		return nil
	}
	l := NewLocator(NewRules(6, nil), render, LocatorConfig{ImageDir: "images"}, testLogger())

	blocks := []Block{
		textBlock("As shown in Fig. 6.4, the rod balances at its midpoint.", 40, 300, 280, 340),
	}
	got := l.Process(context.Background(), locatorPage(), blocks)
	if len(got) != 1 || got[0].Kind != BlockText {
		t.Fatalf("expected reference kept as text, got %v", got)
	}
}
