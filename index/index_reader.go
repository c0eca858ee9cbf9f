package index

import (
	"fmt"
	"slices"
)

// InvertedIndexReader opens a finalized index pair for random lookup by
// term. The .dict file, including both string tables, is loaded into
// memory; the .postings file is memory-mapped and decoded one list per
// lookup.
type InvertedIndexReader struct {
	base     string
	codec    PostingsCodec
	terms    *IdentifierMap
	docs     *IdentifierMap
	entries  []DictionaryEntry
	postings *FileReader
}

// OpenInvertedIndexReader opens the pair at base. If codec is nil the
// codec recorded in the .dict header is used; otherwise a mismatch
// between the configured and on-disk codec is a format error.
func OpenInvertedIndexReader(base string, codec PostingsCodec) (*InvertedIndexReader, error) {
	dict, err := readDictFile(base + ".dict")
	if err != nil {
		return nil, err
	}

	diskCodec, err := codecByID(dict.Codec)
	if err != nil {
		return nil, err
	}

	if codec == nil {
		codec = diskCodec
	} else if codec.ID() != dict.Codec {
		return nil, fmt.Errorf("%w: %s.dict: encoded with codec %s, configured codec %s",
			ErrFormat, base, diskCodec.Name(), codec.Name())
	}

	postings, err := newFileReader(base + ".postings")
	if err != nil {
		return nil, err
	}

	return &InvertedIndexReader{
		base:     base,
		codec:    codec,
		terms:    newIdentifierMapFromKeys(dict.Terms),
		docs:     newIdentifierMapFromKeys(dict.Docs),
		entries:  dict.Entries,
		postings: postings,
	}, nil
}

// Lookup returns the postings list for term: the ascending, duplicate-free
// doc ids of every document containing it.
func (r *InvertedIndexReader) Lookup(term string) ([]uint32, error) {
	termID, exists := r.terms.Lookup(term)
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}

	position, found := slices.BinarySearchFunc(r.entries, termID, func(entry DictionaryEntry, id uint32) int {
		if entry.TermID < id {
			return -1
		}
		if entry.TermID > id {
			return 1
		}
		return 0
	})
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}

	entry := r.entries[position]

	if entry.Offset+uint64(entry.Length) > r.postings.Size() {
		return nil, fmt.Errorf("%w: %s.postings: term %d points past end of file", ErrFormat, r.base, entry.TermID)
	}

	return r.codec.Decode(r.postings.Slice(entry.Offset, entry.Offset+uint64(entry.Length)), entry.Count)
}

// DocName translates an internal doc id back to the document's external
// name, the downstream boundary used by a query-serving layer.
func (r *InvertedIndexReader) DocName(docID uint32) (string, error) {
	return r.docs.KeyOf(docID)
}

// TermName translates an internal term id back to the term string.
func (r *InvertedIndexReader) TermName(termID uint32) (string, error) {
	return r.terms.KeyOf(termID)
}

func (r *InvertedIndexReader) TermCount() int {
	return r.terms.Len()
}

func (r *InvertedIndexReader) DocCount() int {
	return r.docs.Len()
}

// Codec reports the postings codec the pair was written with.
func (r *InvertedIndexReader) Codec() PostingsCodec {
	return r.codec
}

// Entries returns a copy of the dictionary, ordered by term id.
func (r *InvertedIndexReader) Entries() []DictionaryEntry {
	entries := make([]DictionaryEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

func (r *InvertedIndexReader) Close() error {
	return r.postings.Close()
}
