package pagesource

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/dgallion1/pagetree/internal/geom"
)

// Rasterizer renders rectangular page regions to PNG files. It shells out to
// pdftoppm for the page bitmap, then crops the requested region. The clip is
// given in top-down page points; pixel coordinates follow from the DPI.
type Rasterizer struct {
	PDFToPPM string // binary name or path, default "pdftoppm"
	DPI      int    // render resolution, default 300
}

// NewRasterizer returns a rasterizer with defaults applied.
func NewRasterizer(binary string, dpi int) *Rasterizer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &Rasterizer{PDFToPPM: binary, DPI: dpi}
}

// RenderRegion rasterizes clip from page pageNum of the PDF at pdfPath and
// writes the result as PNG to outPath.
func (r *Rasterizer) RenderRegion(ctx context.Context, pdfPath string, pageNum int, clip geom.Rect, outPath string) error {
	if clip.IsEmpty() {
		return fmt.Errorf("render region: empty clip")
	}

	tmpDir, err := os.MkdirTemp("", "pagetree-raster-")
	if err != nil {
		return fmt.Errorf("render region: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	if err := r.renderPage(ctx, pdfPath, pageNum, prefix); err != nil {
		return err
	}

	src, err := readPNG(prefix + ".png")
	if err != nil {
		return fmt.Errorf("render region: %w", err)
	}

	scale := float64(r.DPI) / 72.0
	pixRect := image.Rect(
		int(clip.X0*scale), int(clip.Y0*scale),
		int(clip.X1*scale), int(clip.Y1*scale),
	).Intersect(src.Bounds())
	if pixRect.Empty() {
		return fmt.Errorf("render region: clip outside page bounds")
	}

	dst := image.NewRGBA(image.Rect(0, 0, pixRect.Dx(), pixRect.Dy()))
	xdraw.Copy(dst, image.Point{}, src, pixRect, xdraw.Src, nil)

	return writePNG(outPath, dst)
}

const maxRenderAttempts = 3

// renderPage invokes pdftoppm for a single page. Spawning can fail
// transiently under fd or memory pressure when many renders run at once,
// so failed attempts are retried with jittered backoff.
func (r *Rasterizer) renderPage(ctx context.Context, pdfPath string, pageNum int, prefix string) error {
	var lastErr error
	for attempt := 0; attempt < maxRenderAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(renderBackoff(attempt)):
			}
		}
		cmd := exec.CommandContext(ctx, r.PDFToPPM,
			"-png",
			"-r", fmt.Sprint(r.DPI),
			"-f", fmt.Sprint(pageNum),
			"-l", fmt.Sprint(pageNum),
			"-singlefile",
			pdfPath, prefix,
		)
		out, err := cmd.CombinedOutput()
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("pdftoppm page %d: %w (%s)", pageNum, err, string(out))
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

// renderBackoff returns a duration for attempt n (1-indexed) with jitter.
func renderBackoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
	if base > time.Second {
		base = time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
