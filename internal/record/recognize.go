package record

import "regexp"

var payloadLine = regexp.MustCompile(
	`^(?:20\d{2}-[01]\d-[0-3]\d` + // date
		`T[0-2]\d:[0-5]\d:[0-6]\d(?:\.\d+)?` + // time
		`(?:Z|[+-]\d{2}:\d{2})` + // zone
		`(?: \w+ [A-Z])?` + // container runtime stream and tag
		` )?` +
		`(\{.*\})\r?$`)

// Recognize reports whether line carries a structured payload and returns it
// with its byte offset within line.
func Recognize(line string) (payload string, offset int, ok bool) {
	m := payloadLine.FindStringSubmatchIndex(line)
	if m == nil {
		return "", 0, false
	}
	return line[m[2]:m[3]], m[2], true
}
