package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderPreview(r *row, width, height, scroll int) string {
	if r == nil {
		return lipglossCenter("Select a page", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(r.rec.Title)
	source := previewSourceStyle.Render(
		fmt.Sprintf("%s · %.2f · fetched %s", r.rec.SourceLabel, r.rec.RelevanceScore, r.rec.FetchedAt.Format("Jan 2, 2006")),
	)
	category := previewCategoryStyle.Render(string(r.cat))

	body := r.rec.Body
	if body == "" {
		body = "(No content captured)"
	}

	bodyBlock := previewBodyStyle.Width(contentWidth).Render(wrapText(body, contentWidth))
	link := previewLinkStyle.Width(contentWidth).Render("Open: " + r.rec.URL)

	content := lipgloss.JoinVertical(lipgloss.Left, title, source, category, "", bodyBlock, "", link)

	// Apply scroll offset
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
