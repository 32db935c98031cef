package record

import (
	"encoding/json"
	"fmt"

	"github.com/valyala/fastjson"
	"sigs.k8s.io/yaml"
)

const (
	keyLevel        = "level"
	keyTimestamp    = "ts"
	keyLogger       = "logger"
	keyMessage      = "msg"
	keyStacktrace   = "stacktrace"
	keyError        = "error"
	keyErrorVerbose = "errorVerbose"
	keyData         = "data"
	keyController   = "controller"

	introspectionMessage = "received introspection data"
)

// alwaysConsumed are removed from ExtraFields whether or not they were used.
var alwaysConsumed = map[string]struct{}{
	keyLevel:        {},
	keyTimestamp:    {},
	keyLogger:       {},
	keyMessage:      {},
	keyStacktrace:   {},
	keyError:        {},
	keyErrorVerbose: {},

	"reconciler group": {},
	"reconciler kind":  {},
	"controllerGroup":  {},
	"controllerKind":   {},
	"reconcileID":      {},
}

// Normalize builds a Record from a decoded payload object. o is not modified.
func Normalize(lineNo int, o *fastjson.Object) (Record, error) {
	rec := Record{Line: lineNo}

	level := o.Get(keyLevel)
	if level == nil || level.Type() != fastjson.TypeString {
		return Record{}, missingField(lineNo, keyLevel)
	}
	rec.Severity = parseSeverity(string(level.GetStringBytes()))

	ts := o.Get(keyTimestamp)
	if ts == nil {
		return Record{}, missingField(lineNo, keyTimestamp)
	}
	t, err := parseTimestamp(ts)
	if err != nil {
		return Record{}, &FormatError{
			Line:  lineNo,
			Field: keyTimestamp,
			Msg:   fmt.Sprintf("%v: %s", err, ts.String()),
		}
	}
	rec.Timestamp = t

	msg := o.Get(keyMessage)
	if msg == nil {
		return Record{}, missingField(lineNo, keyMessage)
	}
	rec.Message = text(msg)

	rec.RawLogger = stringField(o, keyLogger)
	rec.Logger, rec.SubLogger = classifyLogger(rec.RawLogger, stringField(o, keyController))

	stacktrace := o.Get(keyStacktrace)
	id := resolveIdentity(o, rec.Logger, stacktrace != nil)
	rec.Name, rec.Namespace = id.name, id.namespace

	if rec.IsError() {
		if v := o.Get(keyError); v != nil {
			rec.ErrorSummary = text(v)
		}
	}
	if v := o.Get(keyErrorVerbose); v != nil {
		rec.VerboseError = text(v)
	}

	dataUsed := false
	if stacktrace != nil {
		rec.Context = text(stacktrace)
	} else if data := o.Get(keyData); data != nil && rec.Message == introspectionMessage {
		rec.Context = blockYAML(data)
		dataUsed = true
	}

	o.Visit(func(key []byte, v *fastjson.Value) {
		k := string(key)
		if _, ok := alwaysConsumed[k]; ok {
			return
		}
		if k == id.consumed || (dataUsed && k == keyData) {
			return
		}
		rec.ExtraFields = append(rec.ExtraFields, Field{
			Key:   k,
			Value: json.RawMessage(v.MarshalTo(nil)),
		})
	})

	return rec, nil
}

func parseSeverity(level string) Severity {
	switch level {
	case "error", "dpanic", "panic", "fatal":
		return SeverityError
	default:
		return SeverityInfo
	}
}

func missingField(lineNo int, key string) *FormatError {
	return &FormatError{
		Line:  lineNo,
		Field: key,
		Msg:   fmt.Sprintf("missing %q field", key),
	}
}

// text returns string values as-is and anything else as compact JSON.
func text(v *fastjson.Value) string {
	if v.Type() == fastjson.TypeString {
		return string(v.GetStringBytes())
	}
	return v.String()
}

// blockYAML renders a structured value as block-style YAML with sorted keys.
func blockYAML(v *fastjson.Value) string {
	out, err := yaml.JSONToYAML(v.MarshalTo(nil))
	if err != nil {
		return v.String()
	}
	return string(out)
}
