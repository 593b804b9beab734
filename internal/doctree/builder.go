package doctree

import (
	"strings"

	"github.com/dgallion1/pagetree/internal/layout"
)

// sideChannel routes content outside the section tree.
type sideChannel int

const (
	channelNone sideChannel = iota
	channelSummary
	channelPoints
)

// Builder folds the classified item stream into a Chapter. It is a small
// explicit state machine carried across pages: table-of-contents scanning
// until the first real section heading, the current section/subsection scope,
// the summary and points-to-ponder side channels, and the terminal exercise
// mode. Items must arrive strictly in reading order.
type Builder struct {
	rules     *layout.Rules
	titleHint string

	chapter    *Chapter
	curSection *Section
	curSub     *Subsection

	started     bool // left the table-of-contents
	inExercises bool
	channel     sideChannel
}

// NewBuilder returns a builder for one document. titleHint, when non-empty,
// is the substring an uppercase block must contain to be taken as the
// chapter title; when empty the first long uppercase block wins.
func NewBuilder(rules *layout.Rules, titleHint string) *Builder {
	return &Builder{
		rules:     rules,
		titleHint: titleHint,
		chapter: &Chapter{
			Sections:  []*Section{},
			Exercises: []string{},
		},
	}
}

// Feed consumes one page's classified items.
func (b *Builder) Feed(items []layout.Item) {
	for _, item := range items {
		b.consume(item)
	}
}

// Finish returns the completed chapter.
func (b *Builder) Finish() *Chapter {
	return b.chapter
}

func (b *Builder) consume(item layout.Item) {
	value := strings.TrimSpace(item.Value)
	if value == "" {
		return
	}

	// Everything before the true first section heading is table-of-contents
	// residue; a ToC line looks like a heading but is not one, and an
	// "EXERCISES" entry in the opener's contents box is not the marker. The
	// chapter title lives on the opener too, so it is only sought here.
	if !b.started {
		if b.chapter.ChapterTitle == "" && item.Type == layout.ItemContent && b.isChapterTitle(value) {
			b.chapter.ChapterTitle = value
			return
		}
		if item.Type == layout.ItemHeading && b.rules.IsRealSectionStart(value) {
			b.started = true
		} else {
			return
		}
	}

	// Exercise mode is terminal: everything lands in the exercises list,
	// the triggering marker included.
	if item.Type == layout.ItemExercise || b.inExercises {
		b.inExercises = true
		b.chapter.Exercises = append(b.chapter.Exercises, value)
		return
	}

	if marker := sideMarker(value); marker != channelNone {
		b.channel = marker
		return
	}
	if b.channel != channelNone && item.Type != layout.ItemHeading {
		switch b.channel {
		case channelSummary:
			b.chapter.Summary = append(b.chapter.Summary, value)
		case channelPoints:
			b.chapter.PointsToPonder = append(b.chapter.PointsToPonder, value)
		}
		return
	}

	if item.Type == layout.ItemHeading {
		b.channel = channelNone
		b.openHeading(value)
		return
	}

	b.appendContent(value)
}

// openHeading opens a section or subsection depending on how many dots the
// leading numeral carries.
func (b *Builder) openHeading(value string) {
	number, title, ok := splitHeading(value)
	if !ok {
		b.appendContent(value)
		return
	}

	switch strings.Count(number, ".") {
	case 1:
		sec := &Section{
			Number:      number,
			Title:       title,
			Content:     []string{},
			Subsections: []*Subsection{},
		}
		b.chapter.Sections = append(b.chapter.Sections, sec)
		b.curSection = sec
		b.curSub = nil
	case 2:
		if b.curSection == nil {
			// A subsection with no open section: synthesize a placeholder
			// parent rather than dropping content.
			parent := number[:strings.LastIndex(number, ".")]
			sec := &Section{
				Number:      parent,
				Content:     []string{},
				Subsections: []*Subsection{},
			}
			b.chapter.Sections = append(b.chapter.Sections, sec)
			b.curSection = sec
		}
		sub := &Subsection{
			Number:  number,
			Title:   title,
			Content: []string{},
		}
		b.curSection.Subsections = append(b.curSection.Subsections, sub)
		b.curSub = sub
	default:
		b.appendContent(value)
	}
}

// appendContent places content in the innermost open scope. A section is
// always open here: content only flows once the table-of-contents gate has
// passed, and the heading that passes it opens the first section.
func (b *Builder) appendContent(value string) {
	if b.curSub != nil {
		b.curSub.Content = append(b.curSub.Content, value)
		return
	}
	b.curSection.Content = append(b.curSection.Content, value)
}

func (b *Builder) isChapterTitle(value string) bool {
	if value != strings.ToUpper(value) {
		return false
	}
	if !strings.ContainsFunc(value, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		return false
	}
	if b.titleHint != "" {
		return strings.Contains(value, b.titleHint)
	}
	return len(value) >= 10
}

func sideMarker(value string) sideChannel {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "SUMMARY":
		return channelSummary
	case "POINTS TO PONDER":
		return channelPoints
	}
	return channelNone
}

// splitHeading separates "6.1 INTRODUCTION" into numeral and title.
func splitHeading(value string) (number, title string, ok bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return "", "", false
	}
	number = fields[0]
	if !strings.Contains(number, ".") {
		return "", "", false
	}
	title = strings.TrimSpace(strings.TrimPrefix(value, number))
	return number, title, true
}
