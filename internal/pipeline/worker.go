package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pagetree/internal/config"
	"github.com/dgallion1/pagetree/internal/doctree"
	"github.com/dgallion1/pagetree/internal/geom"
	"github.com/dgallion1/pagetree/internal/layout"
	"github.com/dgallion1/pagetree/internal/pagesource"
)

// Worker processes a single document extraction job.
type Worker struct {
	cfg config.Config
	log *slog.Logger
}

func NewWorker(cfg config.Config, log *slog.Logger) *Worker {
	return &Worker{cfg: cfg, log: log}
}

// Process runs the full extraction pipeline for a job: open the PDF, walk
// every page through the layout engine in page order, fold the classified
// stream into the chapter tree, and export it. Only the PDF-open boundary is
// fatal; per-page and per-figure errors are recorded and skipped.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "file", job.Filename)
	defer job.ClearFileData()

	job.SetStatus(StatusParsing, "opening document")

	opts := pagesource.DefaultOptions()
	opts.HeaderCutoff = w.cfg.HeaderCutoff
	opts.FooterCutoff = w.cfg.FooterCutoff
	opts.DetectTables = w.cfg.IgnoreTables

	doc, err := pagesource.OpenReader(bytes.NewReader(job.FileData()), opts)
	if err != nil {
		log.Error("open failed", "error", err)
		job.AddError(fmt.Sprintf("open: %s", err))
		job.SetStatus(StatusFailed, "opening document")
		return
	}
	defer doc.Close()

	runID := NewRunID()
	runDir := filepath.Join(w.cfg.OutputDir, runID)
	imageDir := filepath.Join(runDir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		log.Error("output dir failed", "error", err)
		job.AddError(fmt.Sprintf("output dir: %s", err))
		job.SetStatus(StatusFailed, "opening document")
		return
	}

	chapter, err := w.extract(ctx, doc, imageDir, job, log)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	job.SetStatus(StatusExporting, "writing structure")
	jsonPath := filepath.Join(runDir, "structure.json")
	if err := doctree.WriteJSON(jsonPath, chapter); err != nil {
		log.Error("export failed", "error", err)
		job.AddError(fmt.Sprintf("export: %s", err))
		job.SetStatus(StatusFailed, "writing structure")
		return
	}

	figures := countFigures(imageDir)
	job.SetResult(runID, len(chapter.Sections), figures)
	job.SetStatus(StatusCompleted, "done")
	log.Info("extraction complete",
		"run_id", runID,
		"sections", len(chapter.Sections),
		"figures", figures,
		"items", chapter.CountItems(),
	)
}

// extract walks pages in order, feeding the single hierarchy builder.
// Pages must not be reordered or parallelized here: the builder's section
// and exercise state carries across page boundaries.
func (w *Worker) extract(ctx context.Context, doc *pagesource.Document, imageDir string, job *Job, log *slog.Logger) (*doctree.Chapter, error) {
	rasterizer := pagesource.NewRasterizer(w.cfg.PDFToPPMPath, w.cfg.RasterDPI)
	render := func(ctx context.Context, pageNum int, clip geom.Rect, outPath string) error {
		return rasterizer.RenderRegion(ctx, doc.Path(), pageNum, clip, outPath)
	}

	splitFraction := w.cfg.ColumnSplitFraction
	if job.SplitFraction > 0 && job.SplitFraction < 1 {
		splitFraction = job.SplitFraction
	}
	titleHint := w.cfg.ChapterTitleHint
	if job.TitleHint != "" {
		titleHint = job.TitleHint
	}

	engine := layout.NewEngine(layout.Config{
		Chapter:          job.Chapter,
		SplitFraction:    splitFraction,
		ExerciseKeywords: w.cfg.ExerciseKeywords,
		IgnoreTables:     w.cfg.IgnoreTables,
		DiagramLookback:  w.cfg.DiagramLookback,
		DiagramMargin:    w.cfg.DiagramMargin,
		ImageDir:         imageDir,
	}, render, log)
	builder := doctree.NewBuilder(engine.Rules(), titleHint)

	total := doc.NumPages()
	job.SetTotalPages(total)
	job.SetStatus(StatusExtracting, "reconstructing pages")

	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("canceled at page %d: %w", n, err)
		}
		page, err := doc.Page(n)
		if err != nil {
			log.Warn("page skipped", "page", n, "error", err)
			job.AddError(fmt.Sprintf("page %d: %s", n, err))
			job.IncrPagesProcessed()
			continue
		}
		items := engine.ProcessPage(ctx, page)
		builder.Feed(items)
		job.IncrPagesProcessed()
	}

	job.SetStatus(StatusBuilding, "finishing tree")
	return builder.Finish(), nil
}

func countFigures(imageDir string) int {
	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			n++
		}
	}
	return n
}
