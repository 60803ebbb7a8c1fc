// Package diag defines the record of a contract violation detected by the
// safety layer.
//
// # Purpose
//
//   - Give every violation a stable code, a severity and enough context (the
//     native call, the object, the goroutine) to find the offending code path.
//   - Decouple detection from storage: package ir emits through a Reporter and
//     never knows whether diagnostics end up in a Bag, a log or nowhere.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning, Error (severity.go).
//   - Code – numeric identifier grouped by family (codes.go); the string form
//     is stable and used in scenario files and metrics labels.
//   - Message – short human oriented text.
//   - Call / Object – the native call that was refused and the handle it
//     targeted, rendered as "operation#12".
//   - Context – UUID of the owning context.
//   - Goroutine – id of the goroutine that issued the call, 0 when unknown.
//   - Notes – optional extra context.
//
// # Emitting diagnostics
//
// Producers either call Reporter.Report directly or chain a ReportBuilder:
//
//	diag.ReportError(r, diag.RaceUnsynchronizedMutation, "mutation inside parallel region").
//		WithCall("OperationSetAttribute").
//		WithObject("operation#4").
//		Emit()
//
// BagReporter aggregates into a Bag, which is safe for concurrent use since
// parallel regions report from many goroutines. DedupReporter drops repeats of
// the same violation at the same call site.
//
// Keep the data model deterministic: FormatShort sorts its output so the CLI
// and golden tests can compare diagnostics textually.
package diag
