// Package app provides the orchestration layer for bmo-log-parse.
//
// # Overview
//
// This package wires the line source, record reader, filter pipeline and
// output together. It is the composition root: the cli package resolves flags
// and configuration into Options, and Run does the rest.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Open input, build the pipeline
//	└──────┬───────┘
//	       │
//	       ├─────> logtail.Lines()    Lines, optionally tailed and followed
//	       ├─────> record.Read()      Recognize, decode and normalize
//	       ├─────> skipInvalid()      Only with --skip-invalid
//	       ├─────> filter.Apply()     Start, error, logger, name, namespace, end
//	       └─────> output             Formatted records, the pager, or a
//	                                  distinct name/namespace list
//
// Every stage is a lazy iter.Seq2; nothing is read ahead of what the output
// consumes, so the end bound stops reading and an interrupt stops between
// records.
//
// # Error Handling
//
// Run returns, and does not print:
//
//   - ErrNoInput when the input is stdin and stdin is a terminal
//   - *record.ParseError and *record.FormatError for the first bad record,
//     after all earlier output has been flushed
//   - write errors wrapped with "write output", including EPIPE when the
//     reader of the output goes away
//   - ctx.Err() when the context was cancelled mid-stream
//
// With SkipInvalid, record errors are logged as warnings instead.
//
// # Statistics
//
// A state.Store counts lines, records and emitted output for the run. The
// pager shows it in its status bar; Run logs it at debug level on return.
package app
