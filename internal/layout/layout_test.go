package layout

import (
	"context"
	"testing"

	"github.com/dgallion1/pagetree/internal/geom"
	"github.com/dgallion1/pagetree/internal/pagesource"
)

func sourceBlock(text string, x0, y0, x1, y1 float64) pagesource.TextBlock {
	return pagesource.TextBlock{
		Lines: []pagesource.Line{{Spans: []pagesource.Span{{Text: text}}}},
		BBox:  geom.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1},
	}
}

func TestEngine_ProcessPage(t *testing.T) {
	rendered := map[string]bool{}
	render := func(ctx context.Context, pageNum int, clip geom.Rect, outPath string) error {
		rendered[outPath] = true
		return nil
	}
	engine := NewEngine(Config{Chapter: 6, ImageDir: "img"}, render, testLogger())

	page := &pagesource.Page{
		Number: 5,
		Width:  595,
		Height: 842,
		Blocks: []pagesource.TextBlock{
			// Right column first in input; partitioning must reorder.
			sourceBlock("6.2 CENTRE OF MASS", 320, 130, 540, 150),
			sourceBlock("6.1 INTRODUCTION", 40, 130, 270, 150),
			sourceBlock("In our study so far, the body has been a particle.", 40, 160, 280, 220),
			sourceBlock("Fig. 6.1 A body of arbitrary shape", 60, 560, 260, 580),
			sourceBlock("(a)", 100, 590, 130, 600),
		},
		Drawings: []geom.Rect{
			{X0: 60, Y0: 380, X1: 240, Y1: 540},
		},
	}

	items := engine.ProcessPage(context.Background(), page)

	wantTypes := []struct {
		typ  ItemType
		kind ContentKind
	}{
		{ItemHeading, ""},              // 6.1 INTRODUCTION
		{ItemContent, KindParagraph},   // body text
		{ItemContent, KindFigure},      // spliced diagram token
		{ItemContent, KindFigure},      // caption text
		{ItemHeading, ""},              // 6.2 CENTRE OF MASS (right column last)
	}
	if len(items) != len(wantTypes) {
		t.Fatalf("expected %d items, got %d: %+v", len(wantTypes), len(items), items)
	}
	for i, w := range wantTypes {
		if items[i].Type != w.typ {
			t.Errorf("item %d: expected type %q, got %q (%q)", i, w.typ, items[i].Type, items[i].Value)
		}
		if w.kind != "" && items[i].Kind != w.kind {
			t.Errorf("item %d: expected kind %q, got %q", i, w.kind, items[i].Kind)
		}
	}

	if items[2].Value != "[IMAGE: img/fig_6_1.png]" {
		t.Errorf("unexpected image token %q", items[2].Value)
	}
	if !rendered["img/fig_6_1.png"] {
		t.Error("expected fig_6_1.png to be rendered")
	}
	if items[4].Value != "6.2 CENTRE OF MASS" {
		t.Errorf("expected right column last, got %q", items[4].Value)
	}
}

func TestEngine_NilRenderDisablesFigures(t *testing.T) {
	engine := NewEngine(Config{Chapter: 6}, nil, testLogger())

	page := &pagesource.Page{
		Number: 5,
		Width:  595,
		Height: 842,
		Blocks: []pagesource.TextBlock{
			sourceBlock("Fig. 6.1 A body of arbitrary shape", 60, 560, 260, 580),
		},
		Drawings: []geom.Rect{
			{X0: 60, Y0: 380, X1: 240, Y1: 540},
		},
	}
	items := engine.ProcessPage(context.Background(), page)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Kind != KindFigure || items[0].Value != "Fig. 6.1 A body of arbitrary shape" {
		t.Errorf("expected caption as figure text, got %+v", items[0])
	}
}
