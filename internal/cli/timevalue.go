package cli

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// timeLayouts are tried in order. Layouts without a zone parse as UTC, and a
// fractional second is accepted after any seconds field.
var timeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// timeValue is a pflag.Value for the --start and --end bounds.
type timeValue struct {
	t time.Time
}

var _ pflag.Value = (*timeValue)(nil)

func (v *timeValue) String() string {
	if v.t.IsZero() {
		return ""
	}
	return v.t.Format(time.RFC3339Nano)
}

func (v *timeValue) Set(s string) error {
	t, err := parseTime(s)
	if err != nil {
		return err
	}
	v.t = t
	return nil
}

func (v *timeValue) Type() string {
	return "time"
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want YYYY-MM-DD[THH:MM[:SS[.ffffff]]][Z|±HH:MM]", s)
}
