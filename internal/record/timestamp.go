package record

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

var errUnsupportedTimestamp = errors.New("unsupported timestamp encoding")

// naive layouts are interpreted as UTC. Fractional seconds are accepted by
// time.Parse without being spelled out in the layout.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts epoch seconds (number or numeric string) and
// RFC 3339 strings with or without a zone.
func parseTimestamp(v *fastjson.Value) (time.Time, error) {
	switch v.Type() {
	case fastjson.TypeNumber:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, errUnsupportedTimestamp
		}
		return fromEpoch(f)
	case fastjson.TypeString:
		return parseTimestampString(string(v.GetStringBytes()))
	default:
		return time.Time{}, errUnsupportedTimestamp
	}
}

func parseTimestampString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errUnsupportedTimestamp
}

// maxEpochSeconds bounds epoch values to the int64 seconds range.
const maxEpochSeconds = 1 << 63

// fromEpoch converts fractional epoch seconds, rounded to the microsecond.
func fromEpoch(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= maxEpochSeconds || f < -maxEpochSeconds {
		return time.Time{}, errUnsupportedTimestamp
	}
	sec, frac := math.Modf(f)
	usec := math.Round(frac * 1e6)
	return time.Unix(int64(sec), int64(usec)*int64(time.Microsecond)).UTC(), nil
}
