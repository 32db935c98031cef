package record

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fastjson"
)

// Decoder turns recognized lines into records. It is safe for concurrent use.
type Decoder struct {
	parsers fastjson.ParserPool
}

// Decode recognizes, parses and normalizes one line. ok is false for lines
// without a structured payload; those are not errors.
func (d *Decoder) Decode(lineNo int, line string) (rec Record, ok bool, err error) {
	payload, offset, ok := Recognize(line)
	if !ok {
		return Record{}, false, nil
	}

	p := d.parsers.Get()
	defer d.parsers.Put(p)

	v, err := p.Parse(payload)
	if err != nil {
		return Record{}, true, syntaxError(lineNo, line, payload, offset, err)
	}
	o, err := v.Object()
	if err != nil {
		return Record{}, true, &FormatError{Line: lineNo, Msg: "payload is not an object"}
	}
	rec, err = Normalize(lineNo, o)
	return rec, true, err
}

// syntaxError locates the fault with encoding/json, which reports a byte
// offset. fastjson only describes the problem.
func syntaxError(lineNo int, line, payload string, offset int, parseErr error) *ParseError {
	pe := &ParseError{
		Line:   lineNo,
		Column: offset + 1,
		Text:   line,
		Msg:    parseErr.Error(),
	}
	var se *json.SyntaxError
	if err := json.Unmarshal([]byte(payload), new(any)); errors.As(err, &se) {
		pe.Column = offset + int(se.Offset)
		pe.Msg = se.Error()
	}
	return pe
}
