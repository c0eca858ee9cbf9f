package index_test

import (
	"fmt"
	"testing"

	"github.com/CraftOldWang/information-retrieval/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codecs = []index.PostingsCodec{
	index.Fixed32Codec{},
	index.VarintCodec{},
	index.RoaringCodec{},
}

func TestCodecsRoundTrip(t *testing.T) {
	lists := [][]uint32{
		{},
		{7},
		{0, 1, 3, 5, 1_000_000},
	}

	for _, codec := range codecs {
		for _, docIDs := range lists {
			t.Run(fmt.Sprintf("%s/%d", codec.Name(), len(docIDs)), func(t *testing.T) {
				encoded, err := codec.Encode(nil, docIDs)
				require.NoError(t, err)

				decoded, err := codec.Decode(encoded, uint32(len(docIDs)))
				require.NoError(t, err)
				assert.Equal(t, docIDs, decoded)
			})
		}
	}
}

func TestCodecsRejectCorruptData(t *testing.T) {
	// Three bytes is not a whole little-endian uint32.
	_, err := index.Fixed32Codec{}.Decode([]byte{1, 2, 3}, 1)
	assert.ErrorIs(t, err, index.ErrFormat)

	// A truncated varint stream runs out before the promised count.
	_, err = index.VarintCodec{}.Decode([]byte{0x03}, 2)
	assert.ErrorIs(t, err, index.ErrFormat)

	_, err = index.RoaringCodec{}.Decode([]byte{0xde, 0xad}, 1)
	assert.ErrorIs(t, err, index.ErrFormat)
}

func TestCodecByName(t *testing.T) {
	codec, err := index.CodecByName("roaring")
	require.NoError(t, err)
	assert.Equal(t, index.CodecRoaring, codec.ID())

	_, err = index.CodecByName("gzip")
	assert.Error(t, err)
}
