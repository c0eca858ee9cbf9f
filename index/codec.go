package index

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// CodecID identifies the postings encoding recorded in a .dict header. An
// index pair is written with exactly one codec; mixing codecs within one
// pair is not representable.
type CodecID uint32

const (
	CodecFixed32 CodecID = 1
	CodecVarint  CodecID = 2
	CodecRoaring CodecID = 3
)

// PostingsCodec encodes one postings list (strictly ascending doc ids, no
// duplicates) to bytes and back.
type PostingsCodec interface {
	ID() CodecID
	Name() string

	// Encode appends the encoded list to dst and returns the result.
	Encode(dst []byte, docIDs []uint32) ([]byte, error)

	// Decode decodes exactly count doc ids from data.
	Decode(data []byte, count uint32) ([]uint32, error)
}

func CodecByName(name string) (PostingsCodec, error) {
	switch name {
	case "fixed32":
		return Fixed32Codec{}, nil
	case "varint":
		return VarintCodec{}, nil
	case "roaring":
		return RoaringCodec{}, nil
	}

	return nil, fmt.Errorf("unknown postings codec %q", name)
}

func codecByID(id CodecID) (PostingsCodec, error) {
	switch id {
	case CodecFixed32:
		return Fixed32Codec{}, nil
	case CodecVarint:
		return VarintCodec{}, nil
	case CodecRoaring:
		return RoaringCodec{}, nil
	}

	return nil, fmt.Errorf("%w: unknown postings codec id %d", ErrFormat, id)
}

// Fixed32Codec writes each doc id as a fixed-width little-endian uint32.
type Fixed32Codec struct{}

func (Fixed32Codec) ID() CodecID  { return CodecFixed32 }
func (Fixed32Codec) Name() string { return "fixed32" }

func (Fixed32Codec) Encode(dst []byte, docIDs []uint32) ([]byte, error) {
	for _, docID := range docIDs {
		dst = binary.LittleEndian.AppendUint32(dst, docID)
	}

	return dst, nil
}

func (Fixed32Codec) Decode(data []byte, count uint32) ([]uint32, error) {
	if uint32(len(data)) != count*4 {
		return nil, fmt.Errorf("%w: fixed32 postings: %d bytes for %d doc ids", ErrFormat, len(data), count)
	}

	docIDs := make([]uint32, count)
	for i := range docIDs {
		docIDs[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	return docIDs, nil
}

// VarintCodec writes the first doc id and then the gaps between
// consecutive doc ids, each as an unsigned varint.
type VarintCodec struct{}

func (VarintCodec) ID() CodecID  { return CodecVarint }
func (VarintCodec) Name() string { return "varint" }

func (VarintCodec) Encode(dst []byte, docIDs []uint32) ([]byte, error) {
	previous := uint32(0)

	for i, docID := range docIDs {
		delta := docID
		if i > 0 {
			delta = docID - previous
		}

		dst = binary.AppendUvarint(dst, uint64(delta))
		previous = docID
	}

	return dst, nil
}

func (VarintCodec) Decode(data []byte, count uint32) ([]uint32, error) {
	docIDs := make([]uint32, count)
	reader := bytes.NewReader(data)

	previous := uint32(0)

	for i := range docIDs {
		delta, err := binary.ReadUvarint(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: varint postings truncated at doc %d of %d", ErrFormat, i, count)
		}

		docID := previous + uint32(delta)
		if i == 0 {
			docID = uint32(delta)
		}

		docIDs[i] = docID
		previous = docID
	}

	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: varint postings: %d trailing bytes", ErrFormat, reader.Len())
	}

	return docIDs, nil
}

// RoaringCodec stores each postings list as a serialized roaring bitmap.
type RoaringCodec struct{}

func (RoaringCodec) ID() CodecID  { return CodecRoaring }
func (RoaringCodec) Name() string { return "roaring" }

func (RoaringCodec) Encode(dst []byte, docIDs []uint32) ([]byte, error) {
	bitmap := roaring.BitmapOf(docIDs...)

	encoded, err := bitmap.ToBytes()
	if err != nil {
		return nil, err
	}

	return append(dst, encoded...), nil
}

func (RoaringCodec) Decode(data []byte, count uint32) ([]uint32, error) {
	bitmap := roaring.NewBitmap()

	if err := bitmap.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: roaring postings: %v", ErrFormat, err)
	}

	if bitmap.GetCardinality() != uint64(count) {
		return nil, fmt.Errorf("%w: roaring postings: %d doc ids, dictionary says %d", ErrFormat, bitmap.GetCardinality(), count)
	}

	return bitmap.ToArray(), nil
}
