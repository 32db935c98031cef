package pager

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/five82/bmo-log-parse/internal/format"
	"github.com/five82/bmo-log-parse/internal/prefs"
	"github.com/five82/bmo-log-parse/internal/record"
	"github.com/five82/bmo-log-parse/internal/state"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testRecords(msgs ...string) []record.Record {
	recs := make([]record.Record, len(msgs))
	for i, msg := range msgs {
		recs[i] = record.Record{
			Line:      i + 1,
			Timestamp: baseTime.Add(time.Duration(i) * time.Second),
			Message:   msg,
		}
	}
	return recs
}

func numbered(n int) []record.Record {
	msgs := make([]string, n)
	for i := range msgs {
		msgs[i] = fmt.Sprintf("record %d", i+1)
	}
	return testRecords(msgs...)
}

func seqOf(recs []record.Record, tail error) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
		if tail != nil {
			yield(record.Record{}, tail)
		}
	}
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	opts.Context = ctx
	if opts.PrefsPath == "" {
		opts.PrefsPath = filepath.Join(t.TempDir(), "prefs.toml")
	}
	if opts.Formatter == nil {
		opts.Formatter = format.New(format.Options{})
	}
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 10})
	return next.(Model)
}

// drive runs cmd and every command it leads to until none is left.
func drive(m Model, cmd tea.Cmd) Model {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m
}

func load(m Model) Model {
	return drive(m, m.Init())
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPagerLoadsLazily(t *testing.T) {
	stats := &state.Store{}
	m := load(newTestModel(t, Options{Records: seqOf(numbered(1000), nil), Stats: stats}))

	if m.done {
		t.Fatal("expected loading to pause before the end of the input")
	}
	if len(m.records) >= 1000 {
		t.Fatalf("expected a partial load, got %d records", len(m.records))
	}
	if len(m.lines) < 2*m.viewport.Height {
		t.Fatalf("expected at least two screens of lines, got %d", len(m.lines))
	}

	for i := 0; i < 1000 && !m.done; i++ {
		var cmd tea.Cmd
		m, cmd = press(m, runes("G"))
		m = drive(m, cmd)
	}

	if !m.done {
		t.Fatal("expected scrolling to the bottom to load everything")
	}
	if len(m.records) != 1000 {
		t.Fatalf("expected 1000 records, got %d", len(m.records))
	}
	if got := stats.Snapshot().Emitted; got != 1000 {
		t.Fatalf("expected 1000 emitted records, got %d", got)
	}
}

func TestPagerFollowLoadsEverything(t *testing.T) {
	m := load(newTestModel(t, Options{Records: seqOf(numbered(300), nil), Follow: true}))

	if !m.done || len(m.records) != 300 {
		t.Fatalf("expected all 300 records, got %d (done=%v)", len(m.records), m.done)
	}
	if !m.viewport.AtBottom() {
		t.Fatal("expected follow mode to keep the viewport at the bottom")
	}
	if !strings.Contains(m.View(), "record 300") {
		t.Fatal("expected the last record to be visible")
	}
}

func TestPagerBufferLimit(t *testing.T) {
	m := load(newTestModel(t, Options{Records: seqOf(numbered(2500), nil), Follow: true}))

	if len(m.records) != logBufferLimit {
		t.Fatalf("expected %d buffered records, got %d", logBufferLimit, len(m.records))
	}
	if m.dropped != 500 {
		t.Fatalf("expected 500 dropped records, got %d", m.dropped)
	}
	if m.records[0].Line != 501 {
		t.Fatalf("expected oldest buffered record from line 501, got %d", m.records[0].Line)
	}
	if len(m.rendered) != len(m.records) {
		t.Fatalf("rendered records out of step: %d vs %d", len(m.rendered), len(m.records))
	}
}

func TestPagerRecordErrorStopsLoading(t *testing.T) {
	parseErr := &record.ParseError{Line: 6, Column: 9, Text: "{bad}", Msg: "invalid character"}
	m := load(newTestModel(t, Options{Records: seqOf(numbered(5), parseErr), Follow: true}))

	var got *record.ParseError
	if !errors.As(m.Err(), &got) || got.Line != 6 {
		t.Fatalf("expected the parse error, got %v", m.Err())
	}
	if len(m.records) != 5 {
		t.Fatalf("expected records before the error to be shown, got %d", len(m.records))
	}
	if cmd := m.maybeFetch(); cmd != nil {
		t.Fatal("expected no further fetches after an error")
	}
	if !strings.Contains(m.renderStatus(), "ERROR") {
		t.Fatalf("expected error in status bar, got %q", m.renderStatus())
	}
}

func TestPagerSearch(t *testing.T) {
	recs := testRecords("alpha one", "beta", "gamma", "Alpha two", "delta")
	m := load(newTestModel(t, Options{Records: seqOf(recs, nil), Follow: true}))

	m, _ = press(m, runes("/"))
	if !m.search.active {
		t.Fatal("expected search prompt to open")
	}
	m, _ = press(m, runes("ALPHA"))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.search.active {
		t.Fatal("expected search prompt to close")
	}
	if len(m.search.matches) != 2 || m.search.matches[0] != 0 || m.search.matches[1] != 3 {
		t.Fatalf("expected matches on lines 0 and 3, got %v", m.search.matches)
	}
	if m.follow {
		t.Fatal("expected jumping to a match to stop following")
	}
	if status := m.renderStatus(); !strings.Contains(status, "/ALPHA - 1/2") {
		t.Fatalf("unexpected status %q", status)
	}

	m, _ = press(m, runes("n"))
	if m.search.idx != 1 {
		t.Fatalf("expected second match, got %d", m.search.idx)
	}
	m, _ = press(m, runes("n"))
	if m.search.idx != 0 {
		t.Fatalf("expected wrap to first match, got %d", m.search.idx)
	}
	m, _ = press(m, runes("N"))
	if m.search.idx != 1 {
		t.Fatalf("expected wrap back to last match, got %d", m.search.idx)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.search.regex != nil || len(m.search.matches) != 0 {
		t.Fatal("expected esc to clear the search")
	}
}

func TestPagerSearchNotFound(t *testing.T) {
	m := load(newTestModel(t, Options{Records: seqOf(testRecords("alpha"), nil), Follow: true}))

	m, _ = press(m, runes("/"))
	m, _ = press(m, runes("zzz"))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if status := m.renderStatus(); !strings.Contains(status, "Pattern not found: zzz") {
		t.Fatalf("unexpected status %q", status)
	}
}

func TestPagerInvalidPatternKeepsPromptOpen(t *testing.T) {
	m := load(newTestModel(t, Options{Records: seqOf(testRecords("alpha"), nil), Follow: true}))

	m, _ = press(m, runes("/"))
	m, _ = press(m, runes("("))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.search.active {
		t.Fatal("expected prompt to stay open for an invalid pattern")
	}
	if m.notice != "Invalid pattern: (" {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestPagerCycleThemeSavesPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m := load(newTestModel(t, Options{
		Records:   seqOf(testRecords("alpha"), nil),
		PrefsPath: path,
		Formatter: format.New(format.Options{
			Highlight: true,
			Theme:     format.GetTheme("Classic"),
			Profile:   termenv.TrueColor,
		}),
	}))

	before := m.rendered[0]
	m, _ = press(m, runes("T"))

	if got := m.formatter.Theme().Name; got != "Nightfox" {
		t.Fatalf("expected Nightfox, got %q", got)
	}
	if m.rendered[0] == before {
		t.Fatal("expected records to be re-rendered with the new theme")
	}
	saved, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("load prefs: %v", err)
	}
	if saved.Theme != "Nightfox" {
		t.Fatalf("expected saved theme Nightfox, got %q", saved.Theme)
	}
	if m.notice != "Theme: Nightfox" {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestPagerToggleFollow(t *testing.T) {
	m := load(newTestModel(t, Options{Records: seqOf(testRecords("alpha"), nil)}))

	m, _ = press(m, runes("F"))
	if !m.follow {
		t.Fatal("expected follow on")
	}
	m, _ = press(m, runes("k"))
	if m.follow {
		t.Fatal("expected scrolling up to stop following")
	}
}

func TestPagerHelpOverlay(t *testing.T) {
	m := load(newTestModel(t, Options{Records: seqOf(testRecords("alpha"), nil)}))

	m, _ = press(m, runes("?"))
	view := m.View()
	if !strings.Contains(view, "Toggle follow") {
		t.Fatalf("expected help overlay, got %q", view)
	}
	if !strings.Contains(view, "╭") || !strings.Contains(view, "Keyboard Shortcuts") {
		t.Fatalf("expected help in a bordered box, got %q", view)
	}
	m, _ = press(m, runes("x"))
	if m.showHelp {
		t.Fatal("expected any key to close help")
	}
}

func TestPagerQuit(t *testing.T) {
	m := load(newTestModel(t, Options{Records: seqOf(testRecords("alpha"), nil)}))

	_, cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestProduceStopsOnCancel(t *testing.T) {
	endless := func(yield func(record.Record, error) bool) {
		for i := 0; ; i++ {
			if !yield(record.Record{Line: i + 1}, nil) {
				return
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan item)
	done := make(chan struct{})
	go func() {
		produce(ctx, endless, ch)
		close(done)
	}()

	<-ch
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not stop after cancel")
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
}

func TestRunRequiresRecords(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("expected error without a record source")
	}
}
