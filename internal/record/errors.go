package record

import "fmt"

// ParseError reports a structured payload that is not valid JSON.
type ParseError struct {
	Line   int
	Column int
	Text   string
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Record parse error: %s (at line %d, column %d): %s", e.Msg, e.Line, e.Column, e.Text)
}

// FormatError reports valid JSON that cannot be normalized, such as a payload
// without a "msg" field or with an unsupported "ts" encoding.
type FormatError struct {
	Line  int
	Field string
	Msg   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Record format error: %s (at line %d)", e.Msg, e.Line)
}
