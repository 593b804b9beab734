package layout

import (
	"fmt"
	"regexp"
	"strings"
)

// Rules bundles the pattern predicates and thresholds the layout stages
// share. Patterns are compiled once per document run; the chapter number,
// when known, is baked into the heading patterns so stray dotted numerals
// from other chapters never open sections.
type Rules struct {
	heading     *regexp.Regexp // e.g. ^6.1 or ^6.1.1 followed by whitespace
	bareNumber  *regexp.Regexp // a block that is nothing but "6.1"
	realStart   *regexp.Regexp // the true first-section heading, not a ToC line
	caption     *regexp.Regexp // Fig. 6.7, Figure 6.7(a)
	equationNum *regexp.Regexp // (6.7) or [6.7]
	assignment  *regexp.Regexp // single-variable assignment, "v = ..."
	letterParen *regexp.Regexp // (a), b)
	anyLetter   *regexp.Regexp

	ExerciseKeywords []string

	// Thresholds. Zero values are never valid; use NewRules.
	MathSymbolRatio  float64 // symbol density above which a block is math-like
	NoiseSymbolRatio float64 // symbol density above which a letterless block is noise
	MinTextLen       int     // shorter trimmed blocks are noise
	MinBlockWidth    float64 // narrower blocks are sidebar artifacts
	ShortMathLen     int     // max length of an equation-stack line
	CenterTolerance  float64 // fraction of page width around the centre line
	VerticalMathGap  float64 // points
	EquationStackGap float64 // points
	ReprintMarker    string  // publisher boilerplate marker
}

const mathSymbols = "=+-×*/^∑∆τ∫√()"

// NewRules compiles the rule set. chapter 0 accepts any chapter numeral.
func NewRules(chapter int, exerciseKeywords []string) *Rules {
	ch := `\d+`
	if chapter > 0 {
		ch = fmt.Sprintf("%d", chapter)
	}
	if len(exerciseKeywords) == 0 {
		exerciseKeywords = []string{"EXERCISES"}
	}
	return &Rules{
		heading:     regexp.MustCompile(`^` + ch + `\.\d+(\.\d+)?\s+`),
		bareNumber:  regexp.MustCompile(`^` + ch + `\.\d+$`),
		realStart:   regexp.MustCompile(`^` + ch + `\.1\s+[A-Z]{3,}`),
		caption:     regexp.MustCompile(`(?i)(?:Fig\.|Figure)\s*(\d+)\.(\d+)\s*(?:\(([a-z])\))?`),
		equationNum: regexp.MustCompile(`[(\[]\d+\.\d+[)\]]`),
		assignment:  regexp.MustCompile(`\b[a-zA-Z]\s*=\s*`),
		letterParen: regexp.MustCompile(`^\(?[a-zA-Z]\)?$`),
		anyLetter:   regexp.MustCompile(`[a-zA-Z]`),

		ExerciseKeywords: exerciseKeywords,

		MathSymbolRatio:  0.25,
		NoiseSymbolRatio: 0.6,
		MinTextLen:       3,
		MinBlockWidth:    100,
		ShortMathLen:     20,
		CenterTolerance:  0.15,
		VerticalMathGap:  12,
		EquationStackGap: 15,
		ReprintMarker:    "Reprint",
	}
}

// IsMathLike reports whether text reads as an equation rather than prose:
// high math-symbol density, a variable assignment, or a summation/integral.
func (r *Rules) IsMathLike(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	count := 0
	total := 0
	for _, c := range text {
		total++
		if strings.ContainsRune(mathSymbols, c) {
			count++
		}
	}
	if float64(count)/float64(total) > r.MathSymbolRatio {
		return true
	}
	if r.assignment.MatchString(text) {
		return true
	}
	return strings.ContainsRune(text, '∑') || strings.ContainsRune(text, '∫')
}

// IsShortMathLine reports whether text is a short math-like fragment of the
// kind stacked display equations are split into.
func (r *Rules) IsShortMathLine(text string) bool {
	text = strings.TrimSpace(text)
	return len([]rune(text)) < r.ShortMathLen && r.IsMathLike(text)
}

// IsNoise reports whether a block should be dropped outright: empty, tiny
// fragments, bare sub-figure labels, symbol soup, sidebar slivers, or
// publisher boilerplate.
func (r *Rules) IsNoise(text string, width float64) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	runes := []rune(text)
	if len(runes) < r.MinTextLen {
		return true
	}
	if r.letterParen.MatchString(text) {
		return true
	}
	if !r.anyLetter.MatchString(text) {
		symbols := 0
		for _, c := range runes {
			if !isAlnum(c) {
				symbols++
			}
		}
		if float64(symbols)/float64(len(runes)) > r.NoiseSymbolRatio {
			return true
		}
	}
	if width > 0 && width < r.MinBlockWidth {
		return true
	}
	if r.ReprintMarker != "" && strings.Contains(text, r.ReprintMarker) {
		return true
	}
	return false
}

// IsHeading reports whether text starts with a dotted section numeral.
func (r *Rules) IsHeading(text string) bool {
	return r.heading.MatchString(strings.TrimSpace(text))
}

// IsBareHeadingNumber reports whether the block is nothing but a section
// numeral, the signature of a heading split across two blocks.
func (r *Rules) IsBareHeadingNumber(text string) bool {
	return r.bareNumber.MatchString(strings.TrimSpace(text))
}

// IsRealSectionStart distinguishes the true first-section heading
// ("6.1 INTRODUCTION") from a table-of-contents line ("6.1 Introduction 12").
func (r *Rules) IsRealSectionStart(text string) bool {
	return r.realStart.MatchString(strings.TrimSpace(text))
}

// IsExerciseMarker reports whether text flips the document into exercise
// mode: the bare EXERCISES heading or any configured exercise keyword.
func (r *Rules) IsExerciseMarker(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, "EXERCISES") {
		return true
	}
	for _, k := range r.ExerciseKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// HasEquationNumber reports whether the text carries a parenthesised or
// bracketed equation number like (6.7).
func (r *Rules) HasEquationNumber(text string) bool {
	return r.equationNum.MatchString(text)
}

// FigureRef is a parsed figure caption reference.
type FigureRef struct {
	Chapter string
	Number  string
	Sub     string // "a", "b", ... or empty
}

// Basename returns the deterministic image file name for the reference:
// fig_6_7.png, or fig_6_7_a.png for sub-figures.
func (f FigureRef) Basename() string {
	if f.Sub != "" {
		return fmt.Sprintf("fig_%s_%s_%s.png", f.Chapter, f.Number, f.Sub)
	}
	return fmt.Sprintf("fig_%s_%s.png", f.Chapter, f.Number)
}

// ParseCaption extracts the figure reference from a caption-like text.
func (r *Rules) ParseCaption(text string) (FigureRef, bool) {
	m := r.caption.FindStringSubmatch(text)
	if m == nil {
		return FigureRef{}, false
	}
	return FigureRef{Chapter: m[1], Number: m[2], Sub: m[3]}, true
}

// IsFigureText reports whether the text starts like a figure caption.
func (r *Rules) IsFigureText(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(lower, "fig.") || strings.HasPrefix(lower, "figure")
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
