package pager

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.search.active {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, m.maybeFetch()

	case key.Matches(msg, m.keys.Search):
		return m, m.startSearch()

	case key.Matches(msg, m.keys.NextMatch):
		m.nextSearchMatch()
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.previousSearchMatch()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.search.regex != nil {
			m.clearSearch()
			m.refreshViewport()
		}
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		m.follow = false

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()

	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
		m.follow = false

	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
		m.follow = false

	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfPageDown()
		m.follow = false

	case key.Matches(msg, m.keys.HalfPageUp):
		m.viewport.HalfPageUp()
		m.follow = false

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
		m.follow = false

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
		m.follow = false

	default:
		return m, nil
	}

	// Scrolling may have brought the end of the buffer into reach.
	return m, m.maybeFetch()
}

// renderStatus renders the status bar below the viewport.
func (m Model) renderStatus() string {
	styles := m.formatter.Styles()
	bar := styles.StatusBar.Width(m.width)
	inner := max(m.width-2, 1) // padding

	if m.search.active {
		return bar.Render(ansi.Truncate(m.search.input.View(), inner, "…"))
	}

	if m.search.regex != nil && len(m.search.matches) > 0 {
		status := fmt.Sprintf("/%s - %d/%d - Press n for next, N for previous, Esc to clear",
			m.search.query, m.search.idx+1, len(m.search.matches))
		return bar.Render(ansi.Truncate(status, inner, "…"))
	}
	if m.search.regex != nil {
		return bar.Render(styles.Danger.Render(ansi.Truncate("Pattern not found: "+m.search.query, inner, "…")))
	}

	snap := m.stats.Snapshot()
	var parts []string
	if m.sourceName != "" {
		parts = append(parts, m.sourceName)
	}

	follow := "off"
	if m.follow {
		follow = "on"
	}
	records := fmt.Sprintf("%d records", len(m.records))
	if m.dropped > 0 {
		records += fmt.Sprintf(" (+%d dropped)", m.dropped)
	}
	parts = append(parts,
		records,
		fmt.Sprintf("read %d lines, %d unstructured, %d filtered", snap.LinesRead, snap.Unstructured, snap.Filtered()),
		"follow "+follow,
	)

	switch {
	case m.err != nil:
		parts = append(parts, "ERROR "+m.err.Error())
	case m.done:
		parts = append(parts, "(end)")
	case m.fetching:
		parts = append(parts, "loading...")
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	parts = append(parts, "? for help")

	status := ansi.Truncate(strings.Join(parts, "  •  "), inner, "…")
	if m.err != nil {
		return bar.Render(styles.Danger.Render(status))
	}
	return bar.Render(status)
}

// renderHelp renders the key binding overlay centered over the pager.
func (m Model) renderHelp() string {
	styles := m.formatter.Styles()

	var b strings.Builder
	b.WriteString(styles.Accent.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.Rule.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")
	for _, binding := range m.keys.helpBindings() {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("%s %s\n",
			styles.Warning.Render(fmt.Sprintf("%-12s", h.Key)),
			styles.Text.Render(h.Desc)))
	}
	b.WriteString("\n")
	b.WriteString(styles.Info.Render("Press any key to close"))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		styles.HelpBox.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(styles.Backdrop),
	)
}
