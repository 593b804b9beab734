package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dgallion1/pagetree/internal/config"
	"github.com/dgallion1/pagetree/internal/doctree"
	"github.com/dgallion1/pagetree/internal/geom"
	"github.com/dgallion1/pagetree/internal/layout"
	"github.com/dgallion1/pagetree/internal/pagesource"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

var (
	extractChapter  int
	extractOut      string
	extractSplit    float64
	extractTitle    string
	extractNoImages bool
	extractDPI      int
)

var extractCmd = &cobra.Command{
	Use:   "extract <chapter.pdf>",
	Short: "Extract a chapter PDF into hierarchical JSON",
	Long: `Extract runs the full layout pipeline on a chapter PDF: column
partitioning, block merging, figure location and hierarchy building.
Output goes to <out>/structure.json with figure crops under <out>/images.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args[0])
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractChapter, "chapter", 0, "Chapter number for heading detection (0 = any)")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "out", "Output directory")
	extractCmd.Flags().Float64Var(&extractSplit, "split-fraction", 0, "Column split as a fraction of page width (default from config)")
	extractCmd.Flags().StringVar(&extractTitle, "title-hint", "", "Substring of the chapter title to help capture it")
	extractCmd.Flags().BoolVar(&extractNoImages, "no-images", false, "Skip figure rasterization")
	extractCmd.Flags().IntVar(&extractDPI, "dpi", 0, "Raster DPI for figure crops (default from config)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, pdfPath string) error {
	cfg := config.Load()
	if extractSplit > 0 && extractSplit < 1 {
		cfg.ColumnSplitFraction = extractSplit
	}
	if extractTitle != "" {
		cfg.ChapterTitleHint = extractTitle
	}
	if extractDPI > 0 {
		cfg.RasterDPI = extractDPI
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("pagetree extract"))
	fmt.Fprintln(out, dimStyle.Render("  input: "+pdfPath))
	fmt.Fprintln(out, dimStyle.Render("  output: "+extractOut))

	imageDir := filepath.Join(extractOut, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	opts := pagesource.DefaultOptions()
	opts.HeaderCutoff = cfg.HeaderCutoff
	opts.FooterCutoff = cfg.FooterCutoff
	opts.DetectTables = cfg.IgnoreTables

	doc, err := pagesource.Open(pdfPath, opts)
	if err != nil {
		return fmt.Errorf("open %s: %w", pdfPath, err)
	}
	defer doc.Close()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var render layout.RenderFunc
	if !extractNoImages {
		rasterizer := pagesource.NewRasterizer(cfg.PDFToPPMPath, cfg.RasterDPI)
		render = func(ctx context.Context, pageNum int, clip geom.Rect, outPath string) error {
			return rasterizer.RenderRegion(ctx, doc.Path(), pageNum, clip, outPath)
		}
	}

	engine := layout.NewEngine(layout.Config{
		Chapter:          extractChapter,
		SplitFraction:    cfg.ColumnSplitFraction,
		ExerciseKeywords: cfg.ExerciseKeywords,
		IgnoreTables:     cfg.IgnoreTables,
		DiagramLookback:  cfg.DiagramLookback,
		DiagramMargin:    cfg.DiagramMargin,
		ImageDir:         imageDir,
	}, render, log)
	builder := doctree.NewBuilder(engine.Rules(), cfg.ChapterTitleHint)

	start := time.Now()
	ctx := cmd.Context()
	total := doc.NumPages()
	pageErrors := 0

	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := doc.Page(n)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("  page %d: %s", n, err)))
			pageErrors++
			continue
		}
		items := engine.ProcessPage(ctx, page)
		builder.Feed(items)
		fmt.Fprintf(out, "%s\n", dimStyle.Render(fmt.Sprintf("  page %d/%d: %d items", n, total, len(items))))
	}

	chapter := builder.Finish()
	jsonPath := filepath.Join(extractOut, "structure.json")
	if err := doctree.WriteJSON(jsonPath, chapter); err != nil {
		return fmt.Errorf("write structure: %w", err)
	}

	figures := 0
	if entries, err := os.ReadDir(imageDir); err == nil {
		figures = len(entries)
	}

	summary := fmt.Sprintf(
		"%s\n%s\n%s\n%s\n%s",
		successStyle.Render("done in "+time.Since(start).Round(time.Millisecond).String()),
		fmt.Sprintf("title:    %s", chapter.ChapterTitle),
		fmt.Sprintf("sections: %d", len(chapter.Sections)),
		fmt.Sprintf("figures:  %d", figures),
		fmt.Sprintf("output:   %s", jsonPath),
	)
	if pageErrors > 0 {
		summary += "\n" + errorStyle.Render(fmt.Sprintf("pages skipped: %d", pageErrors))
	}
	fmt.Fprintln(out, boxStyle.Render(summary))
	return nil
}
