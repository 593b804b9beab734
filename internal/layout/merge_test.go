package layout

import (
	"reflect"
	"testing"
)

func contents(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		out = append(out, b.Content)
	}
	return out
}

func TestMergeVerticalMath_JoinsAdjacentEquations(t *testing.T) {
	r := NewRules(6, nil)
	blocks := []Block{
		textBlock("X = m1x1 + m2x2", 100, 100, 300, 110),
		textBlock("Y = m1y1 + m2y2", 100, 110, 300, 120),
		textBlock("The coordinates follow from symmetry.", 100, 180, 300, 200),
	}
	got := MergeVerticalMath(blocks, r)

	want := []string{
		"X = m1x1 + m2x2 Y = m1y1 + m2y2",
		"The coordinates follow from symmetry.",
	}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("expected %v, got %v", want, contents(got))
	}
	if got[0].BBox.Y1 != 120 {
		t.Errorf("expected merged bbox to cover both blocks, got %+v", got[0].BBox)
	}
}

func TestMergeVerticalMath_RespectsGap(t *testing.T) {
	r := NewRules(6, nil)
	// Tops 30pt apart, beyond the 12pt vertical gap.
	blocks := []Block{
		textBlock("X = m1x1", 100, 100, 300, 110),
		textBlock("Y = m1y1", 100, 130, 300, 140),
	}
	got := MergeVerticalMath(blocks, r)
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %v", len(got), contents(got))
	}
}

func TestMergeVerticalMath_Idempotent(t *testing.T) {
	r := NewRules(6, nil)
	blocks := []Block{
		textBlock("X = m1x1", 100, 100, 300, 110),
		textBlock("Y = m1y1", 100, 108, 300, 118),
		textBlock("Z = m1z1", 100, 116, 300, 126),
	}
	once := MergeVerticalMath(blocks, r)
	twice := MergeVerticalMath(once, r)
	if !reflect.DeepEqual(contents(once), contents(twice)) {
		t.Errorf("second pass changed output: %v vs %v", contents(once), contents(twice))
	}
}

func TestMergeVerticalMath_DoesNotFuseAcrossColumns(t *testing.T) {
	r := NewRules(6, nil)
	// In reading order the last left-column block precedes the first
	// right-column block, whose top sits far back up the page. The large
	// negative top-to-top distance must fail the gap test.
	blocks := []Block{
		textBlock("v = u + at", 40, 700, 280, 712),
		textBlock("p = m v", 320, 100, 560, 112),
	}
	got := MergeVerticalMath(blocks, r)
	if len(got) != 2 {
		t.Fatalf("expected blocks kept apart, got %d: %v", len(got), contents(got))
	}
}

func TestMergeEquationStacks_JoinsCenteredFragments(t *testing.T) {
	r := NewRules(6, nil)
	const pageWidth = 595.0
	// Short math fragments centred on the page, stacked 10pt apart.
	blocks := []Block{
		textBlock("x = Σmx/M", 260, 100, 340, 110),
		textBlock("y = Σmy/M", 260, 110, 340, 120),
		textBlock("z = Σmz/M", 260, 120, 340, 130),
	}
	got := MergeEquationStacks(blocks, r, pageWidth)
	if len(got) != 1 {
		t.Fatalf("expected 1 merged block, got %d: %v", len(got), contents(got))
	}
	if got[0].Content != "x = Σmx/M y = Σmy/M z = Σmz/M" {
		t.Errorf("unexpected merged content %q", got[0].Content)
	}
}

func TestMergeEquationStacks_DoesNotFuseAcrossColumns(t *testing.T) {
	r := NewRules(6, nil)
	const pageWidth = 595.0
	// Centred fragments separated by a column wrap: the second top is far
	// above the first in page coordinates.
	blocks := []Block{
		textBlock("x = Σmx/M", 260, 700, 340, 712),
		textBlock("y = Σmy/M", 260, 100, 340, 112),
	}
	got := MergeEquationStacks(blocks, r, pageWidth)
	if len(got) != 2 {
		t.Fatalf("expected blocks kept apart, got %d: %v", len(got), contents(got))
	}
}

func TestMergeEquationStacks_SkipsOffCenterBlocks(t *testing.T) {
	r := NewRules(6, nil)
	const pageWidth = 595.0
	// Same stack but hugging the left margin, outside the centre band.
	blocks := []Block{
		textBlock("x = Σmx/M", 40, 100, 120, 110),
		textBlock("y = Σmy/M", 40, 110, 120, 120),
	}
	got := MergeEquationStacks(blocks, r, pageWidth)
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got))
	}
}

func TestMergeEquationStacks_SkipsLongLines(t *testing.T) {
	r := NewRules(6, nil)
	const pageWidth = 595.0
	blocks := []Block{
		textBlock("X = (m1x1 + m2x2 + m3x3) / M", 200, 100, 400, 110),
		textBlock("x = Σmx/M", 260, 110, 340, 120),
	}
	got := MergeEquationStacks(blocks, r, pageWidth)
	if len(got) != 2 {
		t.Fatalf("expected long line to stay separate, got %d blocks", len(got))
	}
}

func TestMergeSplitHeadings_JoinsNumberAndTitle(t *testing.T) {
	r := NewRules(6, nil)
	blocks := []Block{
		textBlock("6.3", 40, 100, 70, 115),
		textBlock("MOTION OF CENTRE OF MASS", 75, 100, 280, 115),
		textBlock("Equipped with the definition...", 40, 130, 280, 160),
	}
	got := MergeSplitHeadings(blocks, r)

	want := []string{
		"6.3 MOTION OF CENTRE OF MASS",
		"Equipped with the definition...",
	}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("expected %v, got %v", want, contents(got))
	}
}

func TestMergeSplitHeadings_LeavesFullHeadingsAlone(t *testing.T) {
	r := NewRules(6, nil)
	blocks := []Block{
		textBlock("6.3 MOTION OF CENTRE OF MASS", 40, 100, 280, 115),
		textBlock("Equipped with the definition...", 40, 130, 280, 160),
	}
	got := MergeSplitHeadings(blocks, r)
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got))
	}
}

func TestMergeSplitHeadings_BareNumberAtEnd(t *testing.T) {
	r := NewRules(6, nil)
	// A trailing bare numeral has nothing to merge with and must survive.
	blocks := []Block{
		textBlock("some text", 40, 100, 280, 115),
		textBlock("6.3", 40, 130, 70, 145),
	}
	got := MergeSplitHeadings(blocks, r)
	if len(got) != 2 || got[1].Content != "6.3" {
		t.Fatalf("expected trailing numeral preserved, got %v", contents(got))
	}
}

func TestMergeSplitHeadings_Idempotent(t *testing.T) {
	r := NewRules(6, nil)
	blocks := []Block{
		textBlock("6.3", 40, 100, 70, 115),
		textBlock("MOTION OF CENTRE OF MASS", 75, 100, 280, 115),
	}
	once := MergeSplitHeadings(blocks, r)
	twice := MergeSplitHeadings(once, r)
	if !reflect.DeepEqual(contents(once), contents(twice)) {
		t.Errorf("second pass changed output: %v vs %v", contents(once), contents(twice))
	}
}
