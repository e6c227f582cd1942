package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	digestTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})

	digestMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"})

	cardTitleStyle = lipgloss.NewStyle().Bold(true)

	cardScoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"})

	cardCategoryStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"})

	cardLinkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}).
			Underline(true)
)

// Render formats a digest for the terminal.
func Render(d *Digest) string {
	var b strings.Builder

	b.WriteString(digestTitleStyle.Render("prepmine digest"))
	b.WriteString(digestMetaStyle.Render("  " + d.DateLabel))
	b.WriteString("\n")

	summary := fmt.Sprintf("scanned %d, kept %d", d.Scanned, d.Selected)
	if d.Focus != "" {
		summary += " in " + d.Focus
	}
	b.WriteString(digestMetaStyle.Render(summary))
	b.WriteString("\n\n")

	if len(d.Cards) == 0 {
		b.WriteString("Nothing cleared the relevance bar. Widen the subject keywords or add sources.\n")
		return b.String()
	}

	for _, card := range d.Cards {
		head := fmt.Sprintf("%d. %s", card.Index, cardTitleStyle.Render(card.Record.Title))
		b.WriteString(head)
		b.WriteString("\n")

		meta := fmt.Sprintf("   %s  %s  %s",
			cardScoreStyle.Render(fmt.Sprintf("%.2f", card.Record.RelevanceScore)),
			cardCategoryStyle.Render(string(card.Category)),
			digestMetaStyle.Render(fmt.Sprintf("%s, %d min read", card.Record.SourceLabel, card.ReadingTime)),
		)
		b.WriteString(meta)
		b.WriteString("\n")

		if card.Excerpt != "" {
			b.WriteString("   " + card.Excerpt + "\n")
		}
		b.WriteString("   " + cardLinkStyle.Render(card.Record.URL) + "\n\n")
	}

	if d.Sources != "" {
		b.WriteString(digestMetaStyle.Render("sources  ") + d.Sources + "\n")
	}
	if len(d.Trending) > 0 {
		b.WriteString(digestMetaStyle.Render("trending ") + strings.Join(d.Trending, ", ") + "\n")
	}

	return b.String()
}
