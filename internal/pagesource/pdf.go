package pagesource

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/pagetree/internal/geom"
)

// Document wraps an open PDF and exposes per-page geometry.
type Document struct {
	file   *os.File
	reader *pdflib.Reader
	path   string
	temp   bool // owned temp file, removed on Close
	opts   Options
}

// Open opens the PDF at path.
func Open(path string, opts Options) (*Document, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &Document{file: f, reader: r, path: path, opts: opts}, nil
}

// OpenReader spools r to a temp file and opens it. The backend needs a
// seekable file, and the rasterizer needs a path on disk anyway.
func OpenReader(r io.Reader, opts Options) (*Document, error) {
	tmp, err := os.CreateTemp("", "pagetree-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := Open(tmpPath, opts)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	doc.temp = true
	return doc, nil
}

// Path returns the on-disk location of the PDF.
func (d *Document) Path() string { return d.path }

// NumPages returns the page count.
func (d *Document) NumPages() int { return d.reader.NumPage() }

// Close releases the underlying file.
func (d *Document) Close() error {
	err := d.file.Close()
	if d.temp {
		os.Remove(d.path)
	}
	return err
}

// Page extracts the geometry of page n (1-based).
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > d.reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", n, d.reader.NumPage())
	}
	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing page object", n)
	}

	width, height := mediaBox(p)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("page %d: invalid media box", n)
	}

	var content pdflib.Content
	if err := capturePanic(func() { content = p.Content() }); err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}

	page := &Page{
		Number: n,
		Width:  width,
		Height: height,
	}
	page.Blocks = d.buildBlocks(content.Text, height)
	for _, r := range content.Rect {
		page.Drawings = append(page.Drawings, flipRect(r, height))
	}
	if d.opts.DetectTables {
		page.Tables = detectTables(page.Drawings)
	}
	return page, nil
}

// capturePanic runs fn and converts a panic into an error. The backend's
// content-stream parser panics on malformed streams instead of returning an
// error, and one corrupt page must degrade to a skip, not take down the run.
func capturePanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content parse: %v", r)
		}
	}()
	fn()
	return nil
}

// mediaBox resolves the page size, walking Parent for inherited boxes.
func mediaBox(p pdflib.Page) (width, height float64) {
	v := p.V
	for !v.IsNull() {
		mb := v.Key("MediaBox")
		if !mb.IsNull() && mb.Len() == 4 {
			x0 := mb.Index(0).Float64()
			y0 := mb.Index(1).Float64()
			x1 := mb.Index(2).Float64()
			y1 := mb.Index(3).Float64()
			return x1 - x0, y1 - y0
		}
		v = v.Key("Parent")
	}
	return 0, 0
}

// flipRect converts a bottom-up PDF rectangle to top-down page coordinates.
func flipRect(r pdflib.Rect, pageHeight float64) geom.Rect {
	return geom.Rect{
		X0: min(r.Min.X, r.Max.X),
		Y0: pageHeight - max(r.Min.Y, r.Max.Y),
		X1: max(r.Min.X, r.Max.X),
		Y1: pageHeight - min(r.Min.Y, r.Max.Y),
	}
}

// char is one positioned text fragment in top-down coordinates.
type char struct {
	text string
	bbox geom.Rect
}

// buildBlocks groups raw positioned characters into spans, lines, and blocks.
// The backend hands back individual glyphs with baseline positions; the
// original geometry (lines nested in blocks) has to be reassembled from the
// coordinates alone.
func (d *Document) buildBlocks(texts []pdflib.Text, pageHeight float64) []TextBlock {
	chars := make([]char, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = 10
		}
		top := pageHeight - t.Y - size
		chars = append(chars, char{
			text: t.S,
			bbox: geom.Rect{X0: t.X, Y0: top, X1: t.X + t.W, Y1: pageHeight - t.Y},
		})
	}
	if len(chars) == 0 {
		return nil
	}

	lines := d.groupLines(chars)
	return d.groupBlocks(lines)
}

// groupLines buckets characters by baseline, then splits each row into spans
// at horizontal gaps wider than SpanGap.
func (d *Document) groupLines(chars []char) []Line {
	sort.SliceStable(chars, func(i, j int) bool {
		if chars[i].bbox.Y1 != chars[j].bbox.Y1 {
			return chars[i].bbox.Y1 < chars[j].bbox.Y1
		}
		return chars[i].bbox.X0 < chars[j].bbox.X0
	})

	var rows [][]char
	for _, c := range chars {
		if len(rows) > 0 {
			last := rows[len(rows)-1]
			if abs(c.bbox.Y1-last[0].bbox.Y1) <= d.opts.LineTolerance {
				rows[len(rows)-1] = append(last, c)
				continue
			}
		}
		rows = append(rows, []char{c})
	}

	var lines []Line
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].bbox.X0 < row[j].bbox.X0 })

		line := Line{}
		var span Span
		var sb strings.Builder
		flush := func() {
			if sb.Len() == 0 {
				return
			}
			span.Text = sb.String()
			line.Spans = append(line.Spans, span)
			line.BBox = line.BBox.Union(span.BBox)
			sb.Reset()
			span = Span{}
		}
		for _, c := range row {
			if sb.Len() > 0 && c.bbox.X0-span.BBox.X1 > d.opts.SpanGap {
				flush()
			}
			sb.WriteString(c.text)
			span.BBox = span.BBox.Union(c.bbox)
		}
		flush()
		if len(line.Spans) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// groupBlocks stacks lines into blocks: a new block starts when the vertical
// gap exceeds BlockGap or the line shares no horizontal overlap with the
// block so far. Header/footer cutoffs are applied to the finished blocks.
func (d *Document) groupBlocks(lines []Line) []TextBlock {
	var blocks []TextBlock
	for _, line := range lines {
		if len(blocks) > 0 {
			cur := &blocks[len(blocks)-1]
			gap := line.BBox.Y0 - cur.BBox.Y1
			if gap <= d.opts.BlockGap && overlapsX(line.BBox, cur.BBox) {
				cur.Lines = append(cur.Lines, line)
				cur.BBox = cur.BBox.Union(line.BBox)
				continue
			}
		}
		blocks = append(blocks, TextBlock{Lines: []Line{line}, BBox: line.BBox})
	}

	out := blocks[:0]
	for _, b := range blocks {
		if d.opts.HeaderCutoff > 0 && b.BBox.Y0 < d.opts.HeaderCutoff {
			continue
		}
		if d.opts.FooterCutoff > 0 && b.BBox.Y0 > d.opts.FooterCutoff {
			continue
		}
		out = append(out, b)
	}
	return out
}

func overlapsX(a, b geom.Rect) bool {
	return a.X0 < b.X1 && b.X0 < a.X1
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
