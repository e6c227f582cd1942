package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/prepmine/internal/classify"
)

// focusBar is the single-select category row above the list. Cursor 0 is
// the All tab; positions 1..n map to categories[0..n-1].
type focusBar struct {
	categories []classify.Category
	active     classify.Category // empty means all
	focusMode  bool
	cursor     int
}

func newFocusBar(active classify.Category) focusBar {
	return focusBar{
		categories: classify.AllCategories(),
		active:     active,
	}
}

func (f *focusBar) selectCurrent() {
	if f.cursor == 0 {
		f.active = ""
		return
	}
	if f.cursor-1 < len(f.categories) {
		f.active = f.categories[f.cursor-1]
	}
}

func (f *focusBar) selectCategory(cat classify.Category) {
	f.active = cat
}

func (f *focusBar) clear() {
	f.active = ""
}

func (f *focusBar) activeLabel() string {
	if f.active == "" {
		return "All"
	}
	return string(f.active)
}

func (f *focusBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var parts []string

	allStyle := tabInactiveStyle
	if f.active == "" {
		allStyle = tabActiveStyle
	}
	allLabel := "All"
	if f.focusMode && f.cursor == 0 {
		allLabel = "[All]"
	}
	parts = append(parts, allStyle.Render(allLabel))

	for i, cat := range f.categories {
		style := tabInactiveStyle
		if f.active == cat {
			style = tabActiveStyle
		}
		label := string(cat)
		if f.focusMode && f.cursor == i+1 {
			label = "[" + label + "]"
		}
		parts = append(parts, style.Render(label))
	}

	// Build row with · separators, stopping when we'd exceed width
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
