package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/prepmine/internal/cache"
	"github.com/matheuskafuri/prepmine/internal/classify"
	"github.com/matheuskafuri/prepmine/internal/miner"
	"github.com/matheuskafuri/prepmine/internal/open"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFocus
	modeHelp
)

// App is the interactive browser over the mined-content cache.
type App struct {
	db   *cache.Cache
	rows []row // everything loaded from the cache
	view []row // after the category filter

	cursor int
	focus  focusPane
	mode   mode

	width  int
	height int

	searchInput textinput.Model
	focusBar    focusBar

	strongOnly    bool
	minScore      float64
	previewScroll int
	currentDate   string
	err           error
}

// RunOpts holds parameters for launching the browser.
type RunOpts struct {
	DB       *cache.Cache
	MinScore float64           // threshold applied while strong-only is on
	Focus    classify.Category // initial category filter, empty for all
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search mined pages..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	if opts.MinScore <= 0 {
		opts.MinScore = miner.DefaultMinScore
	}

	return &App{
		db:          opts.DB,
		searchInput: ti,
		focusBar:    newFocusBar(opts.Focus),
		minScore:    opts.MinScore,
		currentDate: time.Now().Format("Jan 2"),
		mode:        modeNormal,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadRecordsCmd()
}

// loadRecordsCmd captures current query state into the closure to avoid races.
func (a *App) loadRecordsCmd() tea.Cmd {
	opts := cache.QueryOpts{
		Search: a.searchInput.Value(),
	}
	if a.strongOnly {
		opts.MinScore = a.minScore
	}
	db := a.db
	return func() tea.Msg {
		records, err := db.Records(opts)
		if err != nil {
			return loadErrMsg{err: err}
		}
		return recordsLoadedMsg{records: records}
	}
}

func openCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := open.URL(url); err != nil {
			return loadErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case recordsLoadedMsg:
		a.rows = make([]row, len(msg.records))
		for i, rec := range msg.records {
			a.rows[i] = row{rec: rec, cat: classify.Classify(rec.Title, rec.Body)}
		}
		a.applyFilter()
		return a, nil

	case loadErrMsg:
		a.err = msg.err
		return a, nil
	}

	return a, nil
}

func (a *App) applyFilter() {
	a.view = filterRows(a.rows, a.focusBar.active)
	if a.cursor >= len(a.view) {
		a.cursor = max(0, len(a.view)-1)
	}
	a.previewScroll = 0
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFocus:
		return a.handleFocusKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	// Normal mode
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.view)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if len(a.view) > 0 && a.cursor < len(a.view) {
			return a, openCmd(a.view[a.cursor].rec.URL)
		}
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "f":
		a.mode = modeFocus
		a.focusBar.focusMode = true
		return a, nil
	case "s":
		a.strongOnly = !a.strongOnly
		a.cursor = 0
		return a, a.loadRecordsCmd()
	case "r":
		return a, a.loadRecordsCmd()
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		return a, a.loadRecordsCmd()
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		return a, a.loadRecordsCmd()
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) handleFocusKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.focusBar.focusMode = false
		return a, nil
	case "left", "h":
		if a.focusBar.cursor > 0 {
			a.focusBar.cursor--
		}
		return a, nil
	case "right", "l":
		if a.focusBar.cursor < len(a.focusBar.categories) {
			a.focusBar.cursor++
		}
		return a, nil
	case " ", "enter":
		a.focusBar.selectCurrent()
		a.cursor = 0
		a.applyFilter()
		return a, nil
	case "a", "0":
		a.focusBar.clear()
		a.cursor = 0
		a.applyFilter()
		return a, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx < len(a.focusBar.categories) {
			a.focusBar.selectCategory(a.focusBar.categories[idx])
			a.cursor = 0
			a.applyFilter()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  prepmine")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}

	// Layout calculations
	headerHeight := 1
	focusHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - focusHeight - statusHeight - 4 // borders

	listWidth := int(float64(a.width) * 0.35)
	previewWidth := a.width - listWidth - 1 // gap

	if contentHeight < 3 {
		contentHeight = 3
	}

	// Header
	headerLeft := headerStyle.Render("prepmine")
	headerRight := headerDateStyle.Render(a.currentDate)
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Category bar, replaced by the search input while searching
	bar := a.focusBar.render(a.width)
	if a.mode == modeSearch {
		bar = a.searchInput.View()
	}

	// List pane
	innerListW := listWidth - 4 // border + padding
	listContent := renderList(a.view, a.cursor, contentHeight, innerListW)

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	// Preview pane
	var selected *row
	if len(a.view) > 0 && a.cursor < len(a.view) {
		selected = &a.view[a.cursor]
	}
	innerPreviewW := previewWidth - 4
	previewContent := renderPreview(selected, innerPreviewW, contentHeight, a.previewScroll)

	var previewPane string
	if a.focus == focusPreview {
		previewPane = previewPaneActiveStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	} else {
		previewPane = previewPaneStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(
		len(a.view),
		a.focusBar.activeLabel(),
		a.strongOnly,
		a.width,
		a.mode == modeSearch,
	)

	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bar, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("prepmine")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through mined pages\n" +
		"  tab           Switch focus between list and preview\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open page in browser\n" +
		"  /             Search title, source, and body\n" +
		"  f             Pick a focus category\n" +
		"  s             Toggle strong-only (hide weak matches)\n" +
		"  r             Reload from the cache\n\n" +
		dim.Render("Focus Mode") + "\n" +
		"  ←/→, h/l     Move between categories\n" +
		"  space/enter   Select category\n" +
		"  a, 0          Show all categories\n" +
		"  1-7           Select category by number\n" +
		"  esc, f        Exit focus mode\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the cache browser.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
