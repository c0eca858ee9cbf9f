package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// DictionaryEntry locates one term's postings list in the companion
// .postings file.
type DictionaryEntry struct {
	TermID uint32
	Offset uint64
	Count  uint32
	Length uint32
}

/*
.dict file:
  - Header:
	- [0] magic (uint32)
	- [4] version (uint32)
	- [8] codec id (uint32)
	- [12] term count (uint32)
	- [16] doc count (uint32)
	- [20] entry count (uint32)
  - Term string table: term count x (length uint32, bytes), in id order
  - Doc string table: doc count x (length uint32, bytes), in id order
  - Entries: entry count x (term id uint32, offset uint64, count uint32,
    length uint32), ascending by term id

All integers are big-endian. Block-scoped pairs carry empty string tables;
the final pair embeds both tables, which is how the identifier maps are
persisted alongside the index.
*/
const (
	dictMagic   uint32 = 0x49525458
	dictVersion uint32 = 1

	dictHeaderSize = 24
	dictEntrySize  = 20
)

type dictFile struct {
	Codec   CodecID
	Terms   []string
	Docs    []string
	Entries []DictionaryEntry
}

func writeDictFile(path string, codec CodecID, terms, docs []string, entries []DictionaryEntry) error {
	// An existing file at path is deliberately truncated: rebuilding an
	// index replaces the stale pair instead of accumulating into it.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)

	header := make([]byte, 0, dictHeaderSize)
	header = binary.BigEndian.AppendUint32(header, dictMagic)
	header = binary.BigEndian.AppendUint32(header, dictVersion)
	header = binary.BigEndian.AppendUint32(header, uint32(codec))
	header = binary.BigEndian.AppendUint32(header, uint32(len(terms)))
	header = binary.BigEndian.AppendUint32(header, uint32(len(docs)))
	header = binary.BigEndian.AppendUint32(header, uint32(len(entries)))

	if _, err := writer.Write(header); err != nil {
		_ = file.Close()
		return err
	}

	writeTable := func(table []string) error {
		for _, key := range table {
			if err := binary.Write(writer, binary.BigEndian, uint32(len(key))); err != nil {
				return err
			}

			if _, err := writer.WriteString(key); err != nil {
				return err
			}
		}

		return nil
	}

	if err := writeTable(terms); err != nil {
		_ = file.Close()
		return err
	}

	if err := writeTable(docs); err != nil {
		_ = file.Close()
		return err
	}

	buffer := make([]byte, 0, dictEntrySize)

	for _, entry := range entries {
		buffer = buffer[:0]
		buffer = binary.BigEndian.AppendUint32(buffer, entry.TermID)
		buffer = binary.BigEndian.AppendUint64(buffer, entry.Offset)
		buffer = binary.BigEndian.AppendUint32(buffer, entry.Count)
		buffer = binary.BigEndian.AppendUint32(buffer, entry.Length)

		if _, err := writer.Write(buffer); err != nil {
			_ = file.Close()
			return err
		}
	}

	if err := writer.Flush(); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

func readDictFile(path string) (*dictFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	offset := 0

	readUint32 := func() (uint32, error) {
		if offset+4 > len(data) {
			return 0, fmt.Errorf("%w: %s: truncated at offset %d", ErrFormat, path, offset)
		}

		value := binary.BigEndian.Uint32(data[offset:])
		offset += 4
		return value, nil
	}

	magic, err := readUint32()
	if err != nil {
		return nil, err
	}

	if magic != dictMagic {
		return nil, fmt.Errorf("%w: %s: bad magic 0x%08x", ErrFormat, path, magic)
	}

	version, err := readUint32()
	if err != nil {
		return nil, err
	}

	if version != dictVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrFormat, path, version)
	}

	codec, err := readUint32()
	if err != nil {
		return nil, err
	}

	termCount, err := readUint32()
	if err != nil {
		return nil, err
	}

	docCount, err := readUint32()
	if err != nil {
		return nil, err
	}

	entryCount, err := readUint32()
	if err != nil {
		return nil, err
	}

	readTable := func(count uint32) ([]string, error) {
		table := make([]string, 0, count)

		for i := uint32(0); i < count; i++ {
			length, err := readUint32()
			if err != nil {
				return nil, err
			}

			if offset+int(length) > len(data) {
				return nil, fmt.Errorf("%w: %s: truncated at offset %d", ErrFormat, path, offset)
			}

			table = append(table, string(data[offset:offset+int(length)]))
			offset += int(length)
		}

		return table, nil
	}

	terms, err := readTable(termCount)
	if err != nil {
		return nil, err
	}

	docs, err := readTable(docCount)
	if err != nil {
		return nil, err
	}

	if offset+int(entryCount)*dictEntrySize > len(data) {
		return nil, fmt.Errorf("%w: %s: truncated dictionary at offset %d", ErrFormat, path, offset)
	}

	entries := make([]DictionaryEntry, 0, entryCount)
	previousTermID := uint32(0)

	for i := uint32(0); i < entryCount; i++ {
		entry := DictionaryEntry{
			TermID: binary.BigEndian.Uint32(data[offset:]),
			Offset: binary.BigEndian.Uint64(data[offset+4:]),
			Count:  binary.BigEndian.Uint32(data[offset+12:]),
			Length: binary.BigEndian.Uint32(data[offset+16:]),
		}
		offset += dictEntrySize

		if i > 0 && entry.TermID <= previousTermID {
			return nil, fmt.Errorf("%w: %s: term %d out of order in dictionary", ErrMergeConsistency, path, entry.TermID)
		}

		previousTermID = entry.TermID
		entries = append(entries, entry)
	}

	if offset != len(data) {
		return nil, fmt.Errorf("%w: %s: %d trailing bytes at offset %d", ErrFormat, path, len(data)-offset, offset)
	}

	return &dictFile{
		Codec:   CodecID(codec),
		Terms:   terms,
		Docs:    docs,
		Entries: entries,
	}, nil
}
