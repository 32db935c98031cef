// Package pager shows formatted records in an interactive terminal viewport.
//
// Records are pulled from the pipeline lazily: a producer goroutine owns the
// record sequence and hands records over a bounded channel, and the model
// asks for another batch only while the viewport is near the end of what has
// been loaded (or continuously when following). A record error stops
// pulling; Run returns it once the user leaves the pager.
package pager

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/bmo-log-parse/internal/format"
	"github.com/five82/bmo-log-parse/internal/prefs"
	"github.com/five82/bmo-log-parse/internal/record"
	"github.com/five82/bmo-log-parse/internal/state"
)

const (
	// logBufferLimit caps the records kept in memory for endless inputs.
	logBufferLimit = 2000
	fetchBatch     = 200
)

// Options configure the pager.
type Options struct {
	Context   context.Context
	Records   iter.Seq2[record.Record, error]
	Formatter *format.Formatter
	Stats     *state.Store
	PrefsPath string // empty uses default ~/.config/bmo-log-parse/prefs.toml
	Follow    bool
	Source    string // input name shown in the status bar
}

type item struct {
	rec record.Record
	err error
}

// Messages

type batchMsg struct {
	records []record.Record
	err     error
	done    bool
}

// Model is the bubbletea model of the pager.
type Model struct {
	source     <-chan item
	formatter  *format.Formatter
	stats      *state.Store
	prefsPath  string
	sourceName string
	keys       keyMap

	viewport viewport.Model
	width    int
	height   int
	ready    bool
	showHelp bool

	records  []record.Record
	rendered []string // formatted records, parallel to records
	lines    []string
	plain    []string // lines without escape codes, for search
	dropped  int

	follow   bool
	fetching bool
	done     bool
	err      error
	notice   string

	search searchState
}

// New creates a pager model and starts the producer for opts.Records.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := opts.Formatter
	if formatter == nil {
		formatter = format.New(format.Options{})
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	ch := make(chan item, fetchBatch)
	go produce(ctx, opts.Records, ch)

	ti := textinput.New()
	ti.Placeholder = "Search records..."
	ti.CharLimit = 100
	ti.Prompt = "/"

	return Model{
		source:     ch,
		formatter:  formatter,
		stats:      opts.Stats,
		prefsPath:  prefsPath,
		sourceName: opts.Source,
		keys:       defaultKeyMap(),
		follow:     opts.Follow,
		fetching:   true, // Init issues the first fetch
		search:     searchState{input: ti},
	}
}

// produce forwards records until the sequence ends, an error is sent, or ctx
// is cancelled. ch is closed on return.
func produce(ctx context.Context, records iter.Seq2[record.Record, error], ch chan<- item) {
	defer close(ch)
	if records == nil {
		return
	}
	for rec, err := range records {
		select {
		case ch <- item{rec: rec, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// fetchCmd waits for one record and then takes whatever else is ready, up to
// limit records.
func fetchCmd(source <-chan item, limit int) tea.Cmd {
	return func() tea.Msg {
		var msg batchMsg
		take := func(it item, ok bool) bool {
			switch {
			case !ok:
				msg.done = true
				return false
			case it.err != nil:
				msg.err = it.err
				return false
			}
			msg.records = append(msg.records, it.rec)
			return true
		}

		it, ok := <-source
		if !take(it, ok) {
			return msg
		}
		for len(msg.records) < limit {
			select {
			case it, ok := <-source:
				if !take(it, ok) {
					return msg
				}
			default:
				return msg
			}
		}
		return msg
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return fetchCmd(m.source, fetchBatch)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.width, m.viewportHeight())
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = m.viewportHeight()
		}
		m.refreshViewport()
		return m, m.maybeFetch()

	case batchMsg:
		m.fetching = false
		m.appendRecords(msg.records)
		if msg.err != nil {
			m.err = msg.err
		}
		if msg.done {
			m.done = true
		}
		m.rebuild()
		return m, m.maybeFetch()
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.viewport.View() + "\n" + m.renderStatus()
}

// Err returns the record error that stopped the pager, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) viewportHeight() int {
	return max(m.height-1, 1) // status bar
}

// maybeFetch requests the next batch when the loaded lines no longer reach
// two screens past the current position.
func (m *Model) maybeFetch() tea.Cmd {
	if m.fetching || m.done || m.err != nil {
		return nil
	}
	if !m.follow {
		if !m.ready && len(m.lines) >= fetchBatch {
			return nil
		}
		if m.ready && len(m.lines) >= m.viewport.YOffset+2*m.viewport.Height {
			return nil
		}
	}
	m.fetching = true
	return fetchCmd(m.source, fetchBatch)
}

func (m *Model) appendRecords(recs []record.Record) {
	for _, r := range recs {
		m.records = append(m.records, r)
		m.rendered = append(m.rendered, m.formatter.Format(r))
		m.stats.RecordEmitted()
	}
	if over := len(m.records) - logBufferLimit; over > 0 {
		m.records = m.records[over:]
		m.rendered = m.rendered[over:]
		m.dropped += over
	}
}

// rebuild splits the rendered records into display lines.
func (m *Model) rebuild() {
	m.lines = m.lines[:0]
	m.plain = m.plain[:0]
	for _, r := range m.rendered {
		for _, line := range strings.Split(r, "\n") {
			m.lines = append(m.lines, line)
			m.plain = append(m.plain, ansi.Strip(line))
		}
	}
	if m.search.regex != nil {
		m.findSearchMatches()
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	content := m.lines
	if m.search.regex != nil && len(m.search.matches) > 0 {
		content = append([]string(nil), m.lines...)
		target := m.search.matches[m.search.idx]
		content[target] = m.formatter.Styles().Match.Render(m.plain[target])
	}
	m.viewport.SetContent(strings.Join(content, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) cycleTheme() {
	name := format.NextTheme(m.formatter.Theme().Name)
	m.formatter.SetTheme(format.GetTheme(name))
	for i, r := range m.records {
		m.rendered[i] = m.formatter.Format(r)
	}
	m.rebuild()

	m.notice = "Theme: " + name
	if m.prefsPath != "" {
		if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: name}); err != nil {
			m.notice = fmt.Sprintf("Theme: %s (not saved: %v)", name, err)
		}
	}
}

// Run starts the pager and blocks until the user quits or ctx is cancelled.
// It returns the record error that stopped loading, if any.
func Run(opts Options) error {
	if opts.Records == nil {
		return fmt.Errorf("pager requires a record source")
	}
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	opts.Context = ctx

	p := tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInputTTY(),
	)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
			return parent.Err()
		}
		return fmt.Errorf("run pager: %w", err)
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
