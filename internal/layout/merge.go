package layout

import (
	"strings"
)

// The three repair passes below fix fragmentation the PDF rendering
// introduces: equations split line by line, display-equation stacks split
// into centred slivers, and headings split into a bare numeral plus a title.
// Each pass is a single forward scan that absorbs consecutive matching
// neighbours, preserves order, and is idempotent on its own output: a merged
// block no longer satisfies the predicate that caused the merge (the joined
// text stops being a bare numeral or a short line, and the widened gap to
// the next block breaks the distance test).

// MergeVerticalMath joins runs of consecutive math-like text blocks whose
// tops are within VerticalMathGap of the block absorbed before them. The gap
// is an absolute distance: at a column boundary the next block's top jumps
// back up the page, and a signed comparison would fuse across columns.
func MergeVerticalMath(blocks []Block, rules *Rules) []Block {
	var out []Block
	i := 0
	for i < len(blocks) {
		cur := blocks[i]
		if cur.Kind != BlockText || !rules.IsMathLike(cur.Content) {
			out = append(out, cur)
			i++
			continue
		}

		merged := cur
		j := i + 1
		for j < len(blocks) &&
			blocks[j].Kind == BlockText &&
			rules.IsMathLike(blocks[j].Content) &&
			abs(blocks[j].BBox.Y0-blocks[j-1].BBox.Y0) < rules.VerticalMathGap {
			merged.Content += " " + blocks[j].Content
			merged.BBox = merged.BBox.Union(blocks[j].BBox)
			j++
		}
		out = append(out, merged)
		i = j
	}
	return out
}

// MergeEquationStacks joins stacked display equations: short math-like lines
// centred on the page within CenterTolerance, vertically closer than
// EquationStackGap.
func MergeEquationStacks(blocks []Block, rules *Rules, pageWidth float64) []Block {
	centered := func(b Block) bool {
		return abs(b.BBox.CenterX()-pageWidth/2) < pageWidth*rules.CenterTolerance
	}

	var out []Block
	i := 0
	for i < len(blocks) {
		cur := blocks[i]
		if cur.Kind != BlockText || !rules.IsShortMathLine(cur.Content) || !centered(cur) {
			out = append(out, cur)
			i++
			continue
		}

		merged := cur
		j := i + 1
		for j < len(blocks) &&
			blocks[j].Kind == BlockText &&
			rules.IsShortMathLine(blocks[j].Content) &&
			centered(blocks[j]) &&
			abs(blocks[j].BBox.Y0-blocks[j-1].BBox.Y0) < rules.EquationStackGap {
			merged.Content += " " + blocks[j].Content
			merged.BBox = merged.BBox.Union(blocks[j].BBox)
			j++
		}
		out = append(out, merged)
		i = j
	}
	return out
}

// MergeSplitHeadings repairs headings rendered as two blocks: a bare
// numeral ("6.1") immediately followed by its title text.
func MergeSplitHeadings(blocks []Block, rules *Rules) []Block {
	var out []Block
	i := 0
	for i < len(blocks) {
		cur := blocks[i]
		if cur.Kind == BlockText &&
			rules.IsBareHeadingNumber(cur.Content) &&
			i+1 < len(blocks) &&
			blocks[i+1].Kind == BlockText {
			next := blocks[i+1]
			merged := cur
			merged.Content = strings.TrimSpace(cur.Content) + " " + strings.TrimSpace(next.Content)
			merged.BBox = cur.BBox.Union(next.BBox)
			out = append(out, merged)
			i += 2
			continue
		}
		out = append(out, cur)
		i++
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
