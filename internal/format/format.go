// Package format renders records as display text, optionally highlighted
// with a theme.
package format

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/five82/bmo-log-parse/internal/record"
)

// TimestampLayout renders UTC timestamps truncated to the millisecond.
const TimestampLayout = "2006-01-02T15:04:05.000"

// Options configures a Formatter.
type Options struct {
	Highlight bool
	// Verbose shows the verbose error text in place of the context when a
	// record has one.
	Verbose bool
	Theme   Theme
	// Profile is the color profile used when highlighting. Ascii is raised to
	// ANSI since highlighting was asked for explicitly.
	Profile termenv.Profile
}

// Formatter renders records. It is not safe for concurrent use while
// SetTheme is being called.
type Formatter struct {
	opts     Options
	renderer *lipgloss.Renderer
	styles   Styles
}

// New returns a Formatter for opts.
func New(opts Options) *Formatter {
	if opts.Theme.Name == "" {
		opts.Theme = GetTheme(DefaultTheme)
	}
	if opts.Profile == termenv.Ascii {
		opts.Profile = termenv.ANSI
	}
	f := &Formatter{opts: opts, renderer: NewRenderer(opts.Profile)}
	f.styles = opts.Theme.Styles(f.renderer)
	return f
}

// SetTheme switches the highlight theme.
func (f *Formatter) SetTheme(t Theme) {
	f.opts.Theme = t
	f.styles = t.Styles(f.renderer)
}

// Theme returns the current theme.
func (f *Formatter) Theme() Theme {
	return f.opts.Theme
}

// Styles returns the styles of the current theme.
func (f *Formatter) Styles() Styles {
	return f.styles
}

// Format renders r as "<timestamp> <message>[ {k: v, ...}]" followed by the
// error summary and the context on their own lines. The result has no
// trailing newline unless the context itself ends with one.
func (f *Formatter) Format(r record.Record) string {
	ts := r.Timestamp.UTC().Format(TimestampLayout)
	fields := formatFields(r.ExtraFields)
	extra := trailer(r, f.opts.Verbose)

	if !f.opts.Highlight {
		var b strings.Builder
		b.WriteString(ts)
		b.WriteString(" ")
		b.WriteString(r.Message)
		b.WriteString(fields)
		if r.ErrorSummary != "" {
			b.WriteString("\n")
			b.WriteString(r.ErrorSummary)
		}
		if extra != "" {
			b.WriteString("\n")
			b.WriteString(extra)
		}
		return b.String()
	}

	frame, message := f.styles.Muted, f.styles.Text
	if r.IsError() {
		frame, message = f.styles.Danger, f.styles.Alert
	}

	var b strings.Builder
	b.WriteString(renderLines(frame, ts+" "))
	b.WriteString(renderLines(message, r.Message))
	b.WriteString(renderLines(frame, fields))
	if r.ErrorSummary != "" {
		b.WriteString("\n")
		b.WriteString(renderLines(f.styles.Alert, r.ErrorSummary))
	}
	if extra != "" {
		b.WriteString("\n")
		b.WriteString(renderLines(f.styles.Faint, extra))
	}
	return b.String()
}

// trailer picks the block shown below the record line.
func trailer(r record.Record, verbose bool) string {
	if verbose && r.VerboseError != "" {
		return r.VerboseError
	}
	return r.Context
}

// formatFields renders the residual fields as " {k: v, ...}" with values as
// compact JSON, so strings stay quoted and structures stay visible.
func formatFields(fields []record.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" {")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.Write(f.Value)
	}
	b.WriteString("}")
	return b.String()
}

// renderLines styles every non-empty line of s separately. lipgloss pads
// multi-line blocks to a common width, which would alter the text.
func renderLines(style lipgloss.Style, s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
