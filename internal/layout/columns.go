package layout

import (
	"sort"
)

// Partition splits blocks into two reading columns at pageWidth*splitFraction
// and returns the left column fully (top to bottom) followed by the right
// column fully. Assignment is by the block's left edge; a full-width banner
// therefore lands in the left column. Ties in vertical position keep their
// input order.
func Partition(blocks []Block, pageWidth, splitFraction float64) []Block {
	if len(blocks) == 0 {
		return nil
	}
	splitX := pageWidth * splitFraction

	var left, right []Block
	for _, b := range blocks {
		if b.BBox.X0 < splitX {
			b.Column = ColumnLeft
			left = append(left, b)
		} else {
			b.Column = ColumnRight
			right = append(right, b)
		}
	}

	sort.SliceStable(left, func(i, j int) bool { return left[i].BBox.Y0 < left[j].BBox.Y0 })
	sort.SliceStable(right, func(i, j int) bool { return right[i].BBox.Y0 < right[j].BBox.Y0 })

	return append(left, right...)
}
