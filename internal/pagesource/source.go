// Package pagesource adapts a PDF backend into the page geometry the layout
// engine consumes: text blocks (lines of spans with bounding boxes), vector
// drawing rectangles, and a region rasterizer.
package pagesource

import (
	"github.com/dgallion1/pagetree/internal/geom"
)

// Span is a horizontal run of text with no internal gaps.
type Span struct {
	Text string
	BBox geom.Rect
}

// Line is an ordered row of spans sharing a baseline.
type Line struct {
	Spans []Span
	BBox  geom.Rect
}

// Text joins the line's spans, separating spans with a single space.
// Span boundaries already mark horizontal gaps wider than the span-gap
// threshold, so this is where word fusion across gaps is prevented.
func (l Line) Text() string {
	out := ""
	for i, s := range l.Spans {
		if i > 0 {
			out += " "
		}
		out += s.Text
	}
	return out
}

// TextBlock is a contiguous group of lines.
type TextBlock struct {
	Lines []Line
	BBox  geom.Rect
}

// Text joins line texts with newlines, mirroring the raw block content the
// classifier and merger operate on.
func (b TextBlock) Text() string {
	out := ""
	for i, l := range b.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l.Text()
	}
	return out
}

// Page is one page's worth of raw geometry. Blocks carry no ordering
// guarantee; reading order is the layout engine's job.
type Page struct {
	Number int // 1-based
	Width  float64
	Height float64

	Blocks   []TextBlock
	Drawings []geom.Rect
	Tables   []geom.Rect
}

// Options controls geometry extraction.
type Options struct {
	// HeaderCutoff and FooterCutoff drop running heads and page numbers:
	// blocks starting above the header line or below the footer line are
	// discarded. Zero disables the corresponding cutoff.
	HeaderCutoff float64
	FooterCutoff float64

	// SpanGap is the horizontal gap (points) between characters that starts
	// a new span within a line.
	SpanGap float64
	// LineTolerance is the baseline difference under which characters are
	// grouped into the same line.
	LineTolerance float64
	// BlockGap is the vertical gap above which consecutive lines start a
	// new block.
	BlockGap float64

	// DetectTables enables the geometric table-region detector.
	DetectTables bool
}

// DefaultOptions returns extraction defaults tuned for two-column textbooks.
func DefaultOptions() Options {
	return Options{
		HeaderCutoff:  120,
		FooterCutoff:  750,
		SpanGap:       2,
		LineTolerance: 2,
		BlockGap:      7,
		DetectTables:  true,
	}
}
