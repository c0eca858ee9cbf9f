package index

import (
	"bufio"
	"fmt"
	"os"
)

// PostingsWriter appends encoded postings lists to a .postings file and
// records each term's byte location in an in-memory dictionary. Finalize
// flushes the dictionary and string tables to the companion .dict file;
// after that every Append fails with ErrAlreadyFinalized.
//
// The caller must append terms in strictly ascending term-id order, each
// with an already sorted and deduplicated postings list.
type PostingsWriter struct {
	base   string
	codec  PostingsCodec
	file   *os.File
	writer *bufio.Writer
	offset uint64

	entries    []DictionaryEntry
	lastTermID uint32
	appended   bool
	finalized  bool

	// Written into the .dict string tables at Finalize. Nil for
	// block-scoped writers, whose pairs never leave the build.
	terms *IdentifierMap
	docs  *IdentifierMap

	encodeBuffer []byte
}

// NewPostingsWriter opens base+".postings" for appending, truncating any
// existing file: an index pair at base is replaced, never accumulated
// into. terms and docs may be nil, in which case the .dict carries empty
// string tables.
func NewPostingsWriter(base string, codec PostingsCodec, terms, docs *IdentifierMap) (*PostingsWriter, error) {
	file, err := os.OpenFile(base+".postings", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}

	return &PostingsWriter{
		base:         base,
		codec:        codec,
		file:         file,
		writer:       bufio.NewWriter(file),
		terms:        terms,
		docs:         docs,
		encodeBuffer: make([]byte, 0, 4096),
	}, nil
}

func (w *PostingsWriter) Append(termID uint32, docIDs []uint32) error {
	if w.finalized {
		return fmt.Errorf("%w: append term %d to %s", ErrAlreadyFinalized, termID, w.base)
	}

	if w.appended && termID <= w.lastTermID {
		return fmt.Errorf("%w: %s: term %d appended after term %d", ErrMergeConsistency, w.base, termID, w.lastTermID)
	}

	encoded, err := w.codec.Encode(w.encodeBuffer[:0], docIDs)
	if err != nil {
		return err
	}

	w.encodeBuffer = encoded

	if _, err := w.writer.Write(encoded); err != nil {
		return err
	}

	w.entries = append(w.entries, DictionaryEntry{
		TermID: termID,
		Offset: w.offset,
		Count:  uint32(len(docIDs)),
		Length: uint32(len(encoded)),
	})

	w.offset += uint64(len(encoded))
	w.lastTermID = termID
	w.appended = true

	return nil
}

// Finalize flushes the .postings file and writes the .dict file. It may
// be called at most once.
func (w *PostingsWriter) Finalize() error {
	if w.finalized {
		return fmt.Errorf("%w: finalize %s", ErrAlreadyFinalized, w.base)
	}

	w.finalized = true

	if err := w.writer.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}

	if err := w.file.Close(); err != nil {
		return err
	}

	var terms, docs []string

	if w.terms != nil {
		terms = w.terms.Keys()
	}

	if w.docs != nil {
		docs = w.docs.Keys()
	}

	return writeDictFile(w.base+".dict", w.codec.ID(), terms, docs, w.entries)
}

// Abort closes the writer and removes whatever it wrote. No-op after
// Finalize.
func (w *PostingsWriter) Abort() error {
	if w.finalized {
		return nil
	}

	w.finalized = true

	_ = w.file.Close()

	return os.Remove(w.base + ".postings")
}

// Entries returns the dictionary built so far.
func (w *PostingsWriter) Entries() []DictionaryEntry {
	return w.entries
}
