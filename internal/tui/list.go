package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/classify"
)

// row pairs a cached record with its category, classified once at load.
type row struct {
	rec cache.Record
	cat classify.Category
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func renderListItem(r row, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(r.rec.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(r.rec.Title, width-4))
	}

	meta := "  " + itemScoreStyle.Render(fmt.Sprintf("%.2f", r.rec.RelevanceScore)) +
		" " + itemSourceStyle.Render(r.rec.SourceLabel) +
		" " + itemTimeStyle.Render("· "+relativeTime(r.rec.FetchedAt))

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(rows []row, cursor int, height int, width int) string {
	if len(rows) == 0 {
		return lipglossCenter("Nothing mined yet", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	// Calculate scroll offset
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(rows) {
		end = len(rows)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(rows[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// filterRows keeps only rows in the given category; empty keeps everything.
func filterRows(rows []row, cat classify.Category) []row {
	if cat == "" {
		return rows
	}
	var out []row
	for _, r := range rows {
		if r.cat == cat {
			out = append(out, r)
		}
	}
	return out
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
