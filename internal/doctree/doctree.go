// Package doctree holds the hierarchical chapter model and the builder that
// folds the classified block stream into it.
package doctree

import (
	"encoding/json"
	"fmt"
	"os"
)

// Chapter is the root of the reconstructed document. Field names follow the
// interchange contract consumed downstream.
type Chapter struct {
	ChapterTitle   string     `json:"chapter_title"`
	Sections       []*Section `json:"sections"`
	Exercises      []string   `json:"exercises"`
	Summary        []string   `json:"summary,omitempty"`
	PointsToPonder []string   `json:"points_to_ponder,omitempty"`
}

// Section is opened by a heading with a single-dot numeral ("6.1").
type Section struct {
	Number      string        `json:"section_number"`
	Title       string        `json:"section_title"`
	Content     []string      `json:"content"`
	Subsections []*Subsection `json:"subsections"`
}

// Subsection is opened by a two-dot numeral ("6.1.1") and always belongs to
// the most recently opened section.
type Subsection struct {
	Number  string   `json:"subsection_number"`
	Title   string   `json:"subsection_title"`
	Content []string `json:"content"`
}

// CountItems returns the number of content strings across the whole tree,
// exercises and side channels included.
func (c *Chapter) CountItems() int {
	n := len(c.Exercises) + len(c.Summary) + len(c.PointsToPonder)
	for _, s := range c.Sections {
		n += len(s.Content)
		for _, sub := range s.Subsections {
			n += len(sub.Content)
		}
	}
	return n
}

// WriteJSON serializes the chapter to path in the interchange format.
func WriteJSON(path string, c *Chapter) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chapter: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
