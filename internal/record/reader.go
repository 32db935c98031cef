package record

import (
	"context"
	"iter"

	"github.com/five82/bmo-log-parse/internal/logtail"
	"github.com/five82/bmo-log-parse/internal/state"
)

// Read decodes records from lines. Unstructured lines are skipped. Record
// errors are yielded in place of the offending record and reading continues;
// an error from lines ends the sequence. stats may be nil.
func Read(ctx context.Context, lines iter.Seq2[logtail.Line, error], stats *state.Store) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		var dec Decoder
		for line, err := range lines {
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				yield(Record{}, err)
				return
			}
			rec, ok, err := dec.Decode(line.No, line.Text)
			stats.LineRead(ok)
			if !ok {
				continue
			}
			stats.RecordDecoded(err)
			if !yield(rec, err) {
				return
			}
		}
	}
}
