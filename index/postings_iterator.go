package index

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// PostingsIterator streams (term id, postings list) entries out of a
// finalized index pair in ascending term-id order. Only the dictionary is
// held in memory; one postings list is decoded per step. An iterator is
// not restartable; reopen the pair to iterate again.
type PostingsIterator struct {
	base   string
	codec  PostingsCodec
	file   *os.File
	reader *bufio.Reader
	offset uint64

	entries []DictionaryEntry
	pos     int

	termID   uint32
	postings []uint32
	err      error

	readBuffer []byte
}

// OpenPostingsIterator opens the pair at base. If codec is nil the codec
// recorded in the .dict header is used; otherwise a mismatch between the
// configured and on-disk codec is a format error.
func OpenPostingsIterator(base string, codec PostingsCodec) (*PostingsIterator, error) {
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

	file, err := os.Open(base + ".postings")
	if err != nil {
		return nil, err
	}

	return &PostingsIterator{
		base:       base,
		codec:      codec,
		file:       file,
		reader:     bufio.NewReader(file),
		entries:    dict.Entries,
		readBuffer: make([]byte, 0, 4096),
	}, nil
}

// Next advances to the next term. It returns false when the iterator is
// exhausted or has failed; check Err after the loop.
func (it *PostingsIterator) Next() bool {
	if it.err != nil || it.pos >= len(it.entries) {
		return false
	}

	entry := it.entries[it.pos]
	it.pos++

	// Entries are written back to back, so a sequential read must land
	// exactly on the recorded offset.
	if entry.Offset != it.offset {
		it.err = fmt.Errorf("%w: %s.postings: term %d recorded at offset %d, reader at %d",
			ErrFormat, it.base, entry.TermID, entry.Offset, it.offset)
		return false
	}

	if cap(it.readBuffer) < int(entry.Length) {
		it.readBuffer = make([]byte, entry.Length)
	}

	buffer := it.readBuffer[:entry.Length]

	if _, err := io.ReadFull(it.reader, buffer); err != nil {
		it.err = fmt.Errorf("%w: %s.postings: term %d truncated at offset %d: %v",
			ErrFormat, it.base, entry.TermID, entry.Offset, err)
		return false
	}

	postings, err := it.codec.Decode(buffer, entry.Count)
	if err != nil {
		it.err = fmt.Errorf("%s.postings: term %d at offset %d: %w", it.base, entry.TermID, entry.Offset, err)
		return false
	}

	it.offset += uint64(entry.Length)
	it.termID = entry.TermID
	it.postings = postings

	return true
}

// TermID returns the current term id. Valid after a true Next.
func (it *PostingsIterator) TermID() uint32 {
	return it.termID
}

// Postings returns the current postings list. The slice is valid until
// the next call to Next.
func (it *PostingsIterator) Postings() []uint32 {
	return it.postings
}

func (it *PostingsIterator) Err() error {
	return it.err
}

func (it *PostingsIterator) Close() error {
	return it.file.Close()
}
