// Package cli implements the bmo-log-parse command line: flags, configuration
// precedence, logging setup and the mapping of errors to exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/bmo-log-parse/internal/app"
	"github.com/five82/bmo-log-parse/internal/config"
	"github.com/five82/bmo-log-parse/internal/filter"
	"github.com/five82/bmo-log-parse/internal/format"
	"github.com/five82/bmo-log-parse/internal/record"
)

const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

// anySubLogger is the value of -c/-p/-w given without a sub-logger.
const anySubLogger = "*"

type streams struct {
	in  *os.File
	out io.Writer
	err io.Writer
}

type flags struct {
	controller  string
	provisioner string
	webhook     string

	errorsOnly bool
	name       string
	namespace  string
	start      timeValue
	end        timeValue

	verbose        bool
	listNames      bool
	listNamespaces bool

	follow      bool
	tail        int
	skipInvalid bool
	noPager     bool
	color       string
	theme       string
	configPath  string
	debug       bool
}

// Execute runs the command with args and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	return execute(ctx, args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func execute(ctx context.Context, args []string, s streams) int {
	log := newLogger(s.err)
	cmd := newRootCommand(s, log)
	cmd.SetArgs(args)
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)
	return exitCode(cmd.ExecuteContext(ctx), s.err)
}

func newLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.Out = w
	log.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	log.Level = logrus.WarnLevel
	return log
}

func newRootCommand(s streams, log *logrus.Logger) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "bmo-log-parse [logfile]",
		Short: "Make baremetal-operator logs human-readable",
		Long: `Make baremetal-operator logs human-readable.

Reads the log from logfile, or from stdin when logfile is "-" or omitted.
Structured entries are shown one per line; other lines are skipped.

The logger filters take an optional sub-logger, which must be attached
with "=", e.g. -c=bmh or --webhook-only=baremetalhost.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if f.debug {
				log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options(cmd, args, s, log)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.controller, "controller-only", "c", "", "Include only controller module logs, optionally for one reconciler (-c=SUB)")
	fs.StringVarP(&f.provisioner, "provisioner-only", "p", "", "Include only provisioner module logs, optionally for one sub-logger (-p=SUB)")
	fs.StringVarP(&f.webhook, "webhook-only", "w", "", "Include only webhook logs, optionally for one webhook (-w=SUB)")
	for _, name := range []string{"controller-only", "provisioner-only", "webhook-only"} {
		fs.Lookup(name).NoOptDefVal = anySubLogger
	}

	fs.BoolVar(&f.errorsOnly, "error", false, "Include only logs at ERROR level")
	fs.StringVarP(&f.name, "name", "n", "", "Filter by a particular resource name")
	fs.StringVar(&f.namespace, "namespace", "", "Filter by a particular resource namespace")
	fs.VarP(&f.start, "start", "s", "Skip ahead to a given time (inclusive)")
	fs.VarP(&f.end, "end", "e", "Stop reading at a given time (inclusive)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Show verbose error text instead of stack traces")
	fs.BoolVar(&f.listNames, "list-names", false, "List the names of resources in the log")
	fs.BoolVar(&f.listNamespaces, "list-namespaces", false, "List the namespaces of resources in the log")

	fs.BoolVarP(&f.follow, "follow", "f", false, "Keep reading as the log file grows")
	fs.IntVar(&f.tail, "tail", 0, "Only read the last N lines of the input")
	fs.BoolVar(&f.skipInvalid, "skip-invalid", false, "Warn about invalid records and keep going")
	fs.BoolVar(&f.noPager, "no-pager", false, "Write to stdout even when it is a terminal")
	fs.StringVar(&f.color, "color", config.ColorAuto, "Highlight output: auto, always or never")
	fs.StringVar(&f.theme, "theme", "", "Highlight theme: "+strings.Join(format.ThemeNames(), ", "))
	fs.StringVar(&f.configPath, "config", "", "Config file (default "+config.DefaultPath+")")
	fs.BoolVar(&f.debug, "debug", false, "Log diagnostics to stderr")

	cmd.MarkFlagsMutuallyExclusive("controller-only", "provisioner-only", "webhook-only")
	cmd.MarkFlagsMutuallyExclusive("list-names", "list-namespaces")

	return cmd
}

// options resolves flags over the config file into app options.
func (f *flags) options(cmd *cobra.Command, args []string, s streams, log *logrus.Logger) (app.Options, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return app.Options{}, err
	}
	configPath := f.configPath
	if configPath == "" {
		configPath = config.DefaultPath
	}
	log.WithField("path", configPath).Debug("config resolved")

	color := cfg.Color
	if cmd.Flags().Changed("color") {
		color = strings.ToLower(strings.TrimSpace(f.color))
		if err := config.ValidateColor(color); err != nil {
			return app.Options{}, err
		}
	}

	theme := cfg.Theme
	if cmd.Flags().Changed("theme") {
		theme = strings.TrimSpace(f.theme)
	}
	if theme != "" && !format.HasTheme(theme) {
		return app.Options{}, fmt.Errorf("unknown theme %q (available: %s)", theme, strings.Join(format.ThemeNames(), ", "))
	}

	if f.tail < 0 {
		return app.Options{}, fmt.Errorf("--tail must not be negative, got %d", f.tail)
	}

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}

	mode := app.ModeRecords
	switch {
	case f.listNames:
		mode = app.ModeListNames
	case f.listNamespaces:
		mode = app.ModeListNamespaces
	}

	terminal := isTerminal(s.out)

	return app.Options{
		Input:  input,
		Stdin:  s.in,
		Stdout: s.out,
		Filter: filter.Options{
			Start:      f.start.t,
			End:        f.end.t,
			ErrorsOnly: f.errorsOnly,
			Logger:     f.loggerFilter(),
			Name:       f.name,
			Namespace:  f.namespace,
			Aliases:    cfg.Aliases,
		},
		Mode:           mode,
		Tail:           f.tail,
		Follow:         f.follow,
		FollowInterval: cfg.FollowInterval,
		SkipInvalid:    f.skipInvalid,
		Verbose:        f.verbose || cfg.Verbose,
		Highlight:      highlight(color, terminal),
		Profile:        termenv.EnvColorProfile(),
		Pager:          cfg.Pager && !f.noPager && terminal && mode == app.ModeRecords,
		Theme:          theme,
		Log:            log,
	}, nil
}

func (f *flags) loggerFilter() *filter.LoggerFilter {
	selections := []struct {
		value string
		class record.LoggerClass
	}{
		{f.controller, record.Controller},
		{f.provisioner, record.Provisioner},
		{f.webhook, record.Webhook},
	}
	for _, sel := range selections {
		if sel.value == "" {
			continue
		}
		sub := sel.value
		if sub == anySubLogger {
			sub = ""
		}
		return &filter.LoggerFilter{Class: sel.class, Sub: sub}
	}
	return nil
}

func highlight(mode string, terminal bool) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return terminal && !termenv.EnvNoColor()
	}
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// exitCode reports err on w and maps it to an exit status. A closed output
// pipe is a normal end.
func exitCode(err error, w io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, syscall.EPIPE):
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, app.ErrNoInput):
		report(w, "No input found.")
		return exitError
	}

	var parseErr *record.ParseError
	var formatErr *record.FormatError
	if errors.As(err, &parseErr) || errors.As(err, &formatErr) {
		report(w, err.Error())
	} else {
		report(w, "bmo-log-parse: "+err.Error())
	}
	return exitError
}

// report writes a one-line diagnostic, in the warning color on a terminal.
func report(w io.Writer, message string) {
	if isTerminal(w) {
		renderer := format.NewRenderer(termenv.ANSI)
		message = format.GetTheme(format.DefaultTheme).Styles(renderer).Warning.Render(message)
	}
	_, _ = fmt.Fprintln(w, message)
}
