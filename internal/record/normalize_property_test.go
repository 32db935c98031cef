package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// optionalKeys is the pool the property below draws payload fields from.
var optionalKeys = []string{
	"logger", "stacktrace", "error", "errorVerbose",
	"reconciler group", "reconciler kind", "controllerGroup", "controllerKind", "reconcileID",
	"baremetalhost", "BareMetalHost", "hostfirmwaresettings", "DataImage", "HostUpdatePolicy",
	"Request.Name", "Request.Namespace", "name", "namespace", "request", "host", "controller",
	"data", "addr", "provisioningState", "existingFinalizers",
}

// TestNormalize_ExtraFieldsExcludeConsumed checks, for payloads built from
// random subsets of known keys, that ExtraFields holds exactly the keys that
// were not consumed.
func TestNormalize_ExtraFieldsExcludeConsumed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("consumed keys never appear in ExtraFields", prop.ForAll(
		func(mask uint32, level bool, value string) bool {
			payload := map[string]any{
				"level": "info",
				"ts":    1589380774.1207273,
				"msg":   "m",
			}
			if level {
				payload["level"] = "error"
			}
			var want []string
			for i, key := range optionalKeys {
				if mask&(1<<i) == 0 {
					continue
				}
				payload[key] = "ns/x" + value
				if _, ok := alwaysConsumed[key]; !ok {
					want = append(want, key)
				}
			}
			// None of the generated loggers is a provisioner, so the first
			// typed resource field present is always the one consumed.
			want = remove(want, firstResourceField(payload))

			raw, err := json.Marshal(payload)
			if err != nil {
				t.Logf("marshal: %v", err)
				return false
			}
			rec, err := normalizeErr(string(raw))
			if err != nil {
				t.Logf("Normalize(%s): %v", raw, err)
				return false
			}

			got := extraKeys(rec)
			sort.Strings(got)
			sort.Strings(want)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Logf("payload %s: extra keys mismatch (-want +got):\n%s", raw, diff)
				return false
			}
			return true
		},
		gen.UInt32Range(0, uint32(1)<<len(optionalKeys)-1),
		gen.Bool(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func firstResourceField(payload map[string]any) string {
	for _, f := range resourceFields {
		if _, ok := payload[f]; ok {
			return f
		}
	}
	return ""
}

func remove(keys []string, drop string) []string {
	if drop == "" {
		return keys
	}
	out := keys[:0]
	for _, k := range keys {
		if k != drop {
			out = append(out, k)
		}
	}
	return out
}

// TestNormalize_TimestampEncodingsAgree checks that epoch, "Z" and offset
// encodings of one instant normalize to the same timestamp.
func TestNormalize_TimestampEncodingsAgree(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("epoch, Z and offset encodings agree", prop.ForAll(
		func(sec, usec int64, offsetMinutes int) bool {
			instant := time.Unix(sec, usec*int64(time.Microsecond)).UTC()
			zone := time.FixedZone("", offsetMinutes*60)
			encodings := []string{
				fmt.Sprintf("%d.%06d", sec, usec),
				fmt.Sprintf("%q", instant.Format("2006-01-02T15:04:05.000000Z07:00")),
				fmt.Sprintf("%q", instant.In(zone).Format("2006-01-02T15:04:05.000000Z07:00")),
			}
			for _, ts := range encodings {
				rec, err := normalizeErr(`{"level":"info","ts":` + ts + `,"msg":""}`)
				if err != nil {
					t.Logf("ts %s: %v", ts, err)
					return false
				}
				if !rec.Timestamp.Equal(instant) {
					t.Logf("ts %s = %v, want %v", ts, rec.Timestamp, instant)
					return false
				}
			}
			return true
		},
		gen.Int64Range(946684800, 2000000000),
		gen.Int64Range(0, 999999),
		gen.IntRange(-12*60, 14*60),
	))

	properties.TestingRun(t)
}
