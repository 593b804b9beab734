package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Output
	OutputDir string

	// Layout engine
	ColumnSplitFraction float64
	HeaderCutoff        float64
	FooterCutoff        float64
	DiagramLookback     float64
	DiagramMargin       float64
	RasterDPI           int
	IgnoreTables        bool
	ExerciseKeywords    []string
	ChapterTitleHint    string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// External tools
	PDFToPPMPath string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PAGETREE_API_KEY"),

		OutputDir: envOr("OUTPUT_DIR", "./output"),

		ColumnSplitFraction: envFloat("COLUMN_SPLIT_FRACTION", 0.5),
		HeaderCutoff:        envFloat("HEADER_CUTOFF", 120),
		FooterCutoff:        envFloat("FOOTER_CUTOFF", 750),
		DiagramLookback:     envFloat("DIAGRAM_LOOKBACK", 280),
		DiagramMargin:       envFloat("DIAGRAM_MARGIN", 10),
		RasterDPI:           envInt("RASTER_DPI", 300),
		IgnoreTables:        envBool("IGNORE_TABLES", true),
		ExerciseKeywords:    envList("EXERCISE_KEYWORDS", []string{"EXERCISES"}),
		ChapterTitleHint:    os.Getenv("CHAPTER_TITLE_HINT"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFToPPMPath: envOr("PDFTOPPM_PATH", "pdftoppm"),
	}

	if cfg.ColumnSplitFraction <= 0 || cfg.ColumnSplitFraction >= 1 {
		cfg.ColumnSplitFraction = 0.5
	}
	if cfg.RasterDPI < 150 {
		cfg.RasterDPI = 300
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PAGETREE_API_KEY is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
