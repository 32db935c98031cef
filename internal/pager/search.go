package pager

import (
	"regexp"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type searchState struct {
	active  bool
	query   string
	regex   *regexp.Regexp
	input   textinput.Model
	matches []int // display line indexes
	idx     int
}

// handleSearchInput handles keyboard input while the search prompt is open.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := m.search.input.Value()
		if query == "" {
			m.search.active = false
			m.search.input.Blur()
			return m, nil
		}

		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			// Stay in search mode so the pattern can be fixed.
			m.notice = "Invalid pattern: " + query
			return m, nil
		}

		m.notice = ""
		m.search.regex = re
		m.search.query = query
		m.search.active = false
		m.search.input.Blur()

		m.findSearchMatches()
		if len(m.search.matches) > 0 {
			m.search.idx = 0
			m.scrollToSearchMatch()
		}
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.search.active = false
		m.search.input.Blur()
		m.search.input.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	return m, cmd
}

func (m *Model) startSearch() tea.Cmd {
	m.search.active = true
	m.search.input.SetValue("")
	return m.search.input.Focus()
}

func (m *Model) clearSearch() {
	m.search.regex = nil
	m.search.query = ""
	m.search.matches = nil
	m.search.idx = 0
}

// findSearchMatches collects the display lines matching the current pattern.
// The current match index is kept when it is still in range.
func (m *Model) findSearchMatches() {
	m.search.matches = m.search.matches[:0]
	if m.search.regex == nil {
		return
	}
	for i, line := range m.plain {
		if m.search.regex.MatchString(line) {
			m.search.matches = append(m.search.matches, i)
		}
	}
	if m.search.idx >= len(m.search.matches) {
		m.search.idx = 0
	}
}

func (m *Model) nextSearchMatch() {
	if len(m.search.matches) == 0 {
		return
	}
	m.search.idx = (m.search.idx + 1) % len(m.search.matches)
	m.scrollToSearchMatch()
	m.refreshViewport()
}

func (m *Model) previousSearchMatch() {
	if len(m.search.matches) == 0 {
		return
	}
	m.search.idx = (m.search.idx - 1 + len(m.search.matches)) % len(m.search.matches)
	m.scrollToSearchMatch()
	m.refreshViewport()
}

// scrollToSearchMatch centers the current match when possible. Following
// stops so the match stays in view.
func (m *Model) scrollToSearchMatch() {
	if len(m.search.matches) == 0 || m.search.idx >= len(m.search.matches) {
		return
	}
	target := m.search.matches[m.search.idx]
	m.follow = false
	m.viewport.SetYOffset(max(target-m.viewport.Height/2, 0))
}
