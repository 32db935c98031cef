package record

import (
	"encoding/json"
	"time"
)

// Severity is the coarse level of a record.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// LoggerClass groups raw logger names into subsystems.
type LoggerClass int

const (
	Unclassified LoggerClass = iota
	Command
	Runtime
	Controller
	Provisioner
	Webhook
)

func (c LoggerClass) String() string {
	switch c {
	case Command:
		return "command"
	case Runtime:
		return "runtime"
	case Controller:
		return "controller"
	case Provisioner:
		return "provisioner"
	case Webhook:
		return "webhook"
	default:
		return "unclassified"
	}
}

// Field is a residual payload field. Value holds the compact JSON encoding.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Record is one normalized log entry. Empty strings mean absent.
type Record struct {
	Line      int
	Severity  Severity
	Timestamp time.Time

	Logger    LoggerClass
	SubLogger string
	RawLogger string

	Message   string
	Name      string
	Namespace string

	ErrorSummary string
	VerboseError string
	Context      string

	ExtraFields []Field
}

// IsError reports whether the record was logged at error severity.
func (r Record) IsError() bool {
	return r.Severity == SeverityError
}

// Field returns the raw JSON value of a residual field.
func (r Record) Field(key string) (json.RawMessage, bool) {
	for _, f := range r.ExtraFields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}
