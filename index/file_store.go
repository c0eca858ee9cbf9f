package index

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// FileReader memory-maps a finalized file for random access.
type FileReader struct {
	data mmap.MMap
	file *os.File
}

func newFileReader(filename string) (*FileReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	// A zero-length file cannot be mapped; an empty index has an empty
	// postings file.
	if info.Size() == 0 {
		return &FileReader{file: file}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &FileReader{
		data: data,
		file: file,
	}, nil
}

func (reader *FileReader) Size() uint64 {
	return uint64(len(reader.data))
}

func (reader *FileReader) Slice(start, end uint64) []byte {
	return reader.data[start:end]
}

func (reader *FileReader) Close() error {
	if reader.data != nil {
		if err := reader.data.Unmap(); err != nil {
			_ = reader.file.Close()
			return err
		}
	}

	return reader.file.Close()
}
