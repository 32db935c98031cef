// Package filter composes record stages into a lazy pipeline.
package filter

import (
	"iter"
	"strings"
	"time"

	"github.com/five82/bmo-log-parse/internal/record"
)

// Kind is how a stage applies its predicate to the stream.
type Kind int

const (
	// KeepIf passes records matching the predicate.
	KeepIf Kind = iota
	// DropWhile drops records until the predicate first fails, then passes
	// everything.
	DropWhile
	// TakeWhile passes records until the predicate first fails, then stops
	// pulling from upstream.
	TakeWhile
)

// Stage is one named step of the pipeline.
type Stage struct {
	Name      string
	Kind      Kind
	Predicate func(record.Record) bool
}

// Records is a record stream with in-band errors.
type Records = iter.Seq2[record.Record, error]

// Apply returns the stream transformed by s. Errors pass through untouched.
func (s Stage) Apply(in Records) Records {
	return func(yield func(record.Record, error) bool) {
		dropping := s.Kind == DropWhile
		for rec, err := range in {
			if err != nil {
				if !yield(rec, err) {
					return
				}
				continue
			}
			switch s.Kind {
			case KeepIf:
				if !s.Predicate(rec) {
					continue
				}
			case DropWhile:
				if dropping {
					if s.Predicate(rec) {
						continue
					}
					dropping = false
				}
			case TakeWhile:
				if !s.Predicate(rec) {
					return
				}
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Apply runs in through every stage in order.
func Apply(in Records, stages []Stage) Records {
	for _, s := range stages {
		in = s.Apply(in)
	}
	return in
}

// LoggerFilter restricts records to one logger class and, optionally, one
// sub-logger.
type LoggerFilter struct {
	Class record.LoggerClass
	Sub   string
}

// Options selects the stages Build produces. Zero values disable a stage.
type Options struct {
	Start      time.Time
	End        time.Time
	ErrorsOnly bool
	Logger     *LoggerFilter
	Name       string
	Namespace  string
	// Aliases extends DefaultAliases for sub-logger names.
	Aliases map[string]string
}

// DefaultAliases are the short sub-logger names accepted by -c, -p and -w.
var DefaultAliases = map[string]string{
	"bmh":       "baremetalhost",
	"ppimg":     "preprovisioningimage",
	"hfs":       "hostfirmwaresettings",
	"hfc":       "hostfirmwarecomponents",
	"bmcevent":  "bmceventsubscription",
	"dataimage": "dataimage",
	"hup":       "hostupdatepolicy",
}

// Build returns the stages for opts in their fixed order: start bound, error
// severity, logger, name, namespace, end bound.
func Build(opts Options) []Stage {
	var stages []Stage

	if !opts.Start.IsZero() {
		start := opts.Start
		stages = append(stages, Stage{
			Name:      "start",
			Kind:      DropWhile,
			Predicate: func(r record.Record) bool { return r.Timestamp.Before(start) },
		})
	}
	if opts.ErrorsOnly {
		stages = append(stages, Stage{
			Name:      "error",
			Kind:      KeepIf,
			Predicate: record.Record.IsError,
		})
	}
	if opts.Logger != nil {
		class := opts.Logger.Class
		sub := ResolveAlias(opts.Logger.Sub, opts.Aliases)
		stages = append(stages, Stage{
			Name: "logger",
			Kind: KeepIf,
			Predicate: func(r record.Record) bool {
				return r.Logger == class && (sub == "" || r.SubLogger == sub)
			},
		})
	}
	if opts.Name != "" {
		name := opts.Name
		stages = append(stages, Stage{
			Name:      "name",
			Kind:      KeepIf,
			Predicate: func(r record.Record) bool { return r.Name == name },
		})
	}
	if opts.Namespace != "" {
		namespace := opts.Namespace
		stages = append(stages, Stage{
			Name:      "namespace",
			Kind:      KeepIf,
			Predicate: func(r record.Record) bool { return r.Namespace == namespace },
		})
	}
	if !opts.End.IsZero() {
		end := opts.End
		stages = append(stages, Stage{
			Name:      "end",
			Kind:      TakeWhile,
			Predicate: func(r record.Record) bool { return !r.Timestamp.After(end) },
		})
	}
	return stages
}

// ResolveAlias lower-cases sub and expands it through extra, then
// DefaultAliases.
func ResolveAlias(sub string, extra map[string]string) string {
	sub = strings.ToLower(sub)
	if full, ok := extra[sub]; ok {
		return strings.ToLower(full)
	}
	if full, ok := DefaultAliases[sub]; ok {
		return full
	}
	return sub
}
