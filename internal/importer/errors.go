// Package importer wires the tokenizer, classifier, batch grouper, and
// scheduler into cybolt's three import entry points: RunSerial,
// RunBatchedParallel, and RunParse (the dry-run diagnostic mode).
package importer

import "errors"

// Sentinel errors, wrapped by the import entry points so callers can tell the
// error category apart with errors.Is. cmd/cybolt exits with code 1 for any
// error, whatever its category.
var (
	ErrConfiguration = errors.New("importer: configuration error")
	ErrConnection    = errors.New("importer: connection error")
	ErrIO            = errors.New("importer: io error")
)
