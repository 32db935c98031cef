package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/five82/bmo-log-parse/internal/filter"
	"github.com/five82/bmo-log-parse/internal/format"
	"github.com/five82/bmo-log-parse/internal/logtail"
	"github.com/five82/bmo-log-parse/internal/pager"
	"github.com/five82/bmo-log-parse/internal/prefs"
	"github.com/five82/bmo-log-parse/internal/record"
	"github.com/five82/bmo-log-parse/internal/state"
)

// ErrNoInput is returned when the input would be an interactive terminal.
var ErrNoInput = errors.New("no input found")

// Mode selects what Run produces from the filtered records.
type Mode int

const (
	ModeRecords Mode = iota
	ModeListNames
	ModeListNamespaces
)

// Options configure a run.
type Options struct {
	Input  string   // path, or "-" / empty for stdin
	Stdin  *os.File // nil uses os.Stdin
	Stdout io.Writer

	Filter filter.Options
	Mode   Mode

	Tail           int
	Follow         bool
	FollowInterval time.Duration
	SkipInvalid    bool

	Verbose   bool
	Highlight bool
	Profile   termenv.Profile
	Pager     bool   // page records interactively; ignored by the list modes
	Theme     string // empty falls back to saved prefs, then the default theme
	PrefsPath string // empty uses default ~/.config/bmo-log-parse/prefs.toml

	Log *logrus.Logger
}

// Run reads the input, filters it and writes the result to opts.Stdout or the
// pager. It returns the first record error, a write error, or ctx.Err() when
// interrupted.
func Run(ctx context.Context, opts Options) error {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	in, err := openInput(opts.Input, opts.Stdin)
	if err != nil {
		return err
	}
	defer func() { _ = in.file.Close() }()

	follow := opts.Follow
	if follow && !in.regular {
		log.WithField("input", in.name).Warn("--follow needs a regular file; reading to the end instead")
		follow = false
	}
	log.WithFields(logrus.Fields{
		"input":  in.name,
		"tail":   opts.Tail,
		"follow": follow,
	}).Debug("reading input")

	stats := &state.Store{}
	defer logStats(log, stats)

	lines := logtail.Lines(ctx, in.file, logtail.Options{
		Tail:     opts.Tail,
		Follow:   follow,
		Interval: opts.FollowInterval,
	})
	records := record.Read(ctx, lines, stats)
	if opts.SkipInvalid {
		records = skipInvalid(records, log)
	}
	records = filter.Apply(records, filter.Build(opts.Filter))

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	switch opts.Mode {
	case ModeListNames:
		return writeList(ctx, filter.Distinct(records, filter.ResourceName), out)
	case ModeListNamespaces:
		return writeList(ctx, filter.Distinct(records, filter.ResourceNamespace), out)
	}

	formatter := format.New(format.Options{
		Highlight: opts.Highlight,
		Verbose:   opts.Verbose,
		Theme:     format.GetTheme(resolveTheme(opts.Theme, opts.PrefsPath, log)),
		Profile:   opts.Profile,
	})

	if opts.Pager {
		err := pager.Run(pager.Options{
			Context:   ctx,
			Records:   records,
			Formatter: formatter,
			Stats:     stats,
			PrefsPath: opts.PrefsPath,
			Follow:    follow,
			Source:    in.name,
		})
		if err == nil {
			err = ctx.Err()
		}
		return err
	}

	return writeRecords(ctx, records, formatter, out, stats, follow || !isRegular(out))
}

type input struct {
	file    *os.File
	name    string
	regular bool
}

func openInput(path string, stdin *os.File) (input, error) {
	if path == "" || path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		if term.IsTerminal(int(stdin.Fd())) {
			return input{}, ErrNoInput
		}
		return input{file: stdin, name: "stdin", regular: isRegular(stdin)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return input{}, fmt.Errorf("open input: %w", err)
	}
	return input{file: f, name: path, regular: isRegular(f)}, nil
}

func isRegular(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode().IsRegular()
}

// resolveTheme picks the configured theme, then the saved one, then the
// default.
func resolveTheme(name, prefsPath string, log *logrus.Logger) string {
	if name != "" {
		return name
	}
	saved, err := prefs.Load(prefsPath)
	if err != nil {
		log.WithError(err).Debug("load prefs")
	}
	if saved.Theme != "" && format.HasTheme(saved.Theme) {
		return saved.Theme
	}
	return format.DefaultTheme
}

// skipInvalid logs record errors as warnings and drops them. Other errors end
// the sequence as usual.
func skipInvalid(in iter.Seq2[record.Record, error], log *logrus.Logger) iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		for rec, err := range in {
			var parseErr *record.ParseError
			var formatErr *record.FormatError
			switch {
			case errors.As(err, &parseErr):
				log.WithFields(logrus.Fields{
					"line":   parseErr.Line,
					"column": parseErr.Column,
				}).Warn(parseErr.Msg)
				continue
			case errors.As(err, &formatErr):
				log.WithFields(logrus.Fields{
					"line":  formatErr.Line,
					"field": formatErr.Field,
				}).Warn(formatErr.Msg)
				continue
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

// writeRecords formats records to w. Output is buffered and flushed after
// every record when flushEach is set; prior output is flushed before an error
// is returned.
func writeRecords(ctx context.Context, records iter.Seq2[record.Record, error], f *format.Formatter, w io.Writer, stats *state.Store, flushEach bool) error {
	bw := bufio.NewWriter(w)
	for rec, err := range records {
		if err != nil {
			if flushErr := bw.Flush(); flushErr != nil {
				return fmt.Errorf("write output: %w", flushErr)
			}
			return err
		}
		if _, err := bw.WriteString(f.Format(rec) + "\n"); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		stats.RecordEmitted()
		if flushEach {
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return ctx.Err()
}

func writeList(ctx context.Context, values iter.Seq2[string, error], w io.Writer) error {
	bw := bufio.NewWriter(w)
	for v, err := range values {
		if err != nil {
			if flushErr := bw.Flush(); flushErr != nil {
				return fmt.Errorf("write output: %w", flushErr)
			}
			return err
		}
		if _, err := fmt.Fprintln(bw, v); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return ctx.Err()
}

func logStats(log *logrus.Logger, stats *state.Store) {
	snap := stats.Snapshot()
	log.WithFields(logrus.Fields{
		"lines":        snap.LinesRead,
		"unstructured": snap.Unstructured,
		"records":      snap.Records,
		"invalid":      snap.Invalid,
		"filtered":     snap.Filtered(),
		"emitted":      snap.Emitted,
	}).Debug("pipeline statistics")
}
