package index

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownID is returned when an id was never registered in an
	// IdentifierMap.
	ErrUnknownID = errors.New("unknown id")

	// ErrUnknownTerm is returned by lookups for terms absent from the index.
	ErrUnknownTerm = errors.New("unknown term")

	// ErrAlreadyFinalized is returned for any append after Finalize. This is
	// a programmer error, not a recoverable condition.
	ErrAlreadyFinalized = errors.New("writer already finalized")

	// ErrFormat is returned when a .dict or .postings file is malformed:
	// wrong magic or version, truncated data, or a codec mismatch between
	// the configuration and what is recorded on disk.
	ErrFormat = errors.New("malformed index file")

	// ErrMergeConsistency is returned when term ids are observed out of
	// order, either within one index pair or across the inputs of a merge.
	// It always indicates a bug in whatever produced the files.
	ErrMergeConsistency = errors.New("merge consistency violation")

	// ErrDocumentUnreadable marks a document that could not be read or
	// decoded. It is the only error class the engine recovers from: the
	// document is skipped, counted, and parsing continues.
	ErrDocumentUnreadable = errors.New("document unreadable")
)

// ParseError records one skipped document.
type ParseError struct {
	Doc string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Doc, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrDocumentUnreadable
}
