package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(count int, categoryLabel string, strongOnly bool, width int, searching bool) string {
	left := fmt.Sprintf(" %d pages", count)
	if categoryLabel != "All" {
		left += " · " + categoryLabel
	}
	if strongOnly {
		left += " · strong only"
	}

	right := " / search  f focus  s strong  o open  q quit "
	if searching {
		right = " esc cancel  enter search "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
