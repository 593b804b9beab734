package doctree

import (
	"strings"
)

// RenderMarkdown renders the chapter as Markdown. Image tokens are passed
// through untouched; the preview layer rewrites them into <img> elements.
func RenderMarkdown(c *Chapter) string {
	var sb strings.Builder

	if c.ChapterTitle != "" {
		sb.WriteString("# " + c.ChapterTitle + "\n\n")
	}
	for _, sec := range c.Sections {
		sb.WriteString("## " + headingLine(sec.Number, sec.Title) + "\n\n")
		for _, item := range sec.Content {
			sb.WriteString(item + "\n\n")
		}
		for _, sub := range sec.Subsections {
			sb.WriteString("### " + headingLine(sub.Number, sub.Title) + "\n\n")
			for _, item := range sub.Content {
				sb.WriteString(item + "\n\n")
			}
		}
	}

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString("## " + title + "\n\n")
		for _, item := range items {
			sb.WriteString(item + "\n\n")
		}
	}
	writeList("Summary", c.Summary)
	writeList("Points to Ponder", c.PointsToPonder)
	writeList("Exercises", c.Exercises)

	return sb.String()
}

func headingLine(number, title string) string {
	if title == "" {
		return number
	}
	return number + " " + title
}
