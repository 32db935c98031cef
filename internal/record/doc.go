// Package record extracts structured log records from baremetal-operator log
// streams and normalizes them into a single canonical shape.
//
// # Pipeline
//
// Each input line goes through three steps:
//
//  1. Recognize decides whether the line carries a JSON payload. Bare payloads
//     are accepted, as are payloads behind an ISO-8601 timestamp prefix added
//     by must-gather or by the container runtime ("stderr F" style tokens).
//     Anything else is unstructured noise and is skipped without error.
//  2. Decoder parses the payload with fastjson. A malformed payload becomes a
//     *ParseError that carries the line number and the column of the fault
//     within the original line.
//  3. Normalize maps the decoded object onto a Record. Missing mandatory
//     fields (level, ts, msg) and unsupported timestamp encodings become a
//     *FormatError.
//
// Read ties the steps together over a sequence of lines. Errors are yielded in
// band; records yielded before an error stay valid and iteration continues
// until the consumer stops it.
//
// # Schema variants
//
// The operator changed its logging conventions several times. Normalize
// accepts all of them:
//
//   - ts as epoch seconds (number or numeric string) or as an RFC 3339 string
//     with any sub-second precision. Epoch values are rounded to the
//     microsecond; every timestamp is stored in UTC.
//   - logger names are classified by the segment before the first ".", using
//     a fixed table. Records with no logger but a "controller" field are
//     treated as controller output.
//   - resource identity comes from the first matching field in a fixed
//     priority list: typed resource fields ("baremetalhost",
//     "BareMetalHost", ...) holding "ns/name" or {"namespace","name"}, then
//     "Request.Name", then "name". Provisioner output uses "host" in the
//     "ns~name" form instead. A "request" field is the fallback for records
//     carrying a stack trace. Explicit "namespace" or "Request.Namespace"
//     fields override the parsed namespace.
//   - stacktrace becomes Context verbatim. Introspection data is rendered as
//     block YAML.
//
// Fields consumed into named attributes, together with reconciler
// bookkeeping noise, never appear in ExtraFields. Generic identity hints such
// as "name" or "request" are read but stay visible.
package record
