package decoder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrMurad1/riegeli/chunks"
	"github.com/AmrMurad1/riegeli/decoder"
)

func simpleChunk(t *testing.T, records [][]byte) chunks.Chunk {
	t.Helper()
	data, numRecords, decodedSize := chunks.EncodeSimple(records)
	header := chunks.ChunkHeader{
		ChunkType:       chunks.ChunkTypeSimple,
		DataSize:        uint64(len(data)),
		DataHash:        chunks.HashData(data),
		NumRecords:      numRecords,
		DecodedDataSize: decodedSize,
	}
	return chunks.Chunk{Header: header, Data: data}
}

func TestChunkDecoderReadsRecordsInOrder(t *testing.T) {
	chunk := simpleChunk(t, [][]byte{[]byte("a"), []byte("bc"), []byte("")})
	d, err := decoder.NewChunkDecoder(chunk)
	require.NoError(t, err)
	assert.True(t, d.Healthy())
	assert.Equal(t, uint64(3), d.NumRecords())
	assert.Equal(t, uint64(0), d.Index())

	var got []string
	for {
		record, ok := d.ReadRecord()
		if !ok {
			break
		}
		got = append(got, string(record))
	}
	assert.True(t, d.Healthy())
	assert.Equal(t, []string{"a", "bc", ""}, got)
	assert.Equal(t, d.NumRecords(), d.Index())
}

func TestChunkDecoderSetIndex(t *testing.T) {
	chunk := simpleChunk(t, [][]byte{[]byte("a"), []byte("bc"), []byte("def")})
	d, err := decoder.NewChunkDecoder(chunk)
	require.NoError(t, err)

	d.SetIndex(2)
	assert.Equal(t, uint64(2), d.Index())
	record, ok := d.ReadRecord()
	require.True(t, ok)
	assert.Equal(t, "def", string(record))

	// Clamped to NumRecords when out of range.
	d.SetIndex(100)
	assert.Equal(t, d.NumRecords(), d.Index())
	_, ok = d.ReadRecord()
	assert.False(t, ok)
	assert.True(t, d.Healthy())
}

func TestChunkDecoderRejectsBadDataHash(t *testing.T) {
	chunk := simpleChunk(t, [][]byte{[]byte("a")})
	chunk.Header.DataHash ^= 0xFF

	_, err := decoder.NewChunkDecoder(chunk)
	assert.Error(t, err)
}

func TestChunkDecoderUnknownChunkTypeYieldsNoRecords(t *testing.T) {
	chunk := chunks.Chunk{Header: chunks.ChunkHeader{ChunkType: chunks.ChunkTypePadding, DataHash: chunks.HashData(nil)}}

	d, err := decoder.NewChunkDecoder(chunk)
	require.NoError(t, err)
	assert.True(t, d.Healthy())
	assert.Equal(t, uint64(0), d.NumRecords())
	_, ok := d.ReadRecord()
	assert.False(t, ok)
}

func TestChunkDecoderRejectsInconsistentNumRecords(t *testing.T) {
	bad, _, _ := chunks.EncodeSimple([][]byte{[]byte("x")})
	badHeader := chunks.ChunkHeader{
		ChunkType:       chunks.ChunkTypeSimple,
		DataSize:        uint64(len(bad)),
		DataHash:        chunks.HashData(bad),
		NumRecords:      2, // claims two records but the payload only has one
		DecodedDataSize: 1,
	}
	badChunk := chunks.Chunk{Header: badHeader, Data: bad}
	badDecoder, err := decoder.NewChunkDecoder(badChunk)
	require.Error(t, err)
	assert.Nil(t, badDecoder)
}
