package ingest

import "fmt"

// Ingester streams raw flow tuples from some source. Each emitted row is one
// CSV record in the order stime, dur, saddr, daddr, proto, dport, das,
// sbytes, dbytes. Ingest returns the relative paths of the source files it
// fully consumed.
type Ingester interface {
	Ingest(emit func(row []string)) ([]string, error)
}

// SourceFailure reports a source file whose extraction aborted abnormally.
// The whole run fails: a partially read file must never be marked processed.
type SourceFailure struct {
	File     string
	ExitCode int
}

func (e *SourceFailure) Error() string {
	return fmt.Sprintf("source file %s: extraction exited with code %d", e.File, e.ExitCode)
}
