package filter

import (
	"iter"

	"github.com/five82/bmo-log-parse/internal/record"
)

// Distinct yields each non-empty key(r) once, in first-seen order. Errors
// from in are passed through.
func Distinct(in Records, key func(record.Record) string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		seen := make(map[string]struct{})
		for rec, err := range in {
			if err != nil {
				if !yield("", err) {
					return
				}
				continue
			}
			k := key(rec)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !yield(k, nil) {
				return
			}
		}
	}
}

// ResourceName is the Distinct key for --list-names.
func ResourceName(r record.Record) string { return r.Name }

// ResourceNamespace is the Distinct key for --list-namespaces.
func ResourceNamespace(r record.Record) string { return r.Namespace }
