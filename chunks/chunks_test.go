package chunks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrMurad1/riegeli/chunks"
)

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := chunks.BlockHeader{PreviousChunk: 100, NextChunk: 0}
	buf := h.Encode()
	assert.Len(t, buf, chunks.BlockHeaderSize)

	got, err := chunks.DecodeBlockHeader(buf)
	require.NoError(t, err)
	assert.True(t, got.Valid())
	assert.Equal(t, h.PreviousChunk, got.PreviousChunk)
	assert.Equal(t, h.NextChunk, got.NextChunk)
}

func TestBlockHeaderDetectsCorruption(t *testing.T) {
	h := chunks.BlockHeader{PreviousChunk: 5, NextChunk: 9}
	buf := h.Encode()
	buf[8] ^= 0xFF // flip a byte inside previous_chunk
	got, err := chunks.DecodeBlockHeader(buf)
	require.NoError(t, err)
	assert.False(t, got.Valid())
}

func TestChunkHeaderRoundTripAndFileSignature(t *testing.T) {
	h := chunks.FileSignatureHeader()
	buf := h.Encode()
	assert.Len(t, buf, chunks.ChunkHeaderSize)

	got, err := chunks.DecodeChunkHeader(buf)
	require.NoError(t, err)
	assert.True(t, got.Valid())
	assert.True(t, got.IsValidFileSignature())
}

func TestChunkHeaderNumRecordsPacking(t *testing.T) {
	h := chunks.ChunkHeader{
		ChunkType:       chunks.ChunkTypeSimple,
		DataSize:        10,
		NumRecords:      chunks.MaxNumRecords,
		DecodedDataSize: 3,
	}
	h.DataHash = chunks.HashData([]byte("abc"))
	buf := h.Encode()
	got, err := chunks.DecodeChunkHeader(buf)
	require.NoError(t, err)
	assert.True(t, got.Valid())
	assert.Equal(t, uint64(chunks.MaxNumRecords), got.NumRecords)
}

func TestSimpleCodecRoundTrip(t *testing.T) {
	records := [][]byte{[]byte("a"), []byte("bc"), []byte("")}
	data, numRecords, decodedSize := chunks.EncodeSimple(records)
	assert.Equal(t, uint64(3), numRecords)
	assert.Equal(t, uint64(3), decodedSize)

	header := chunks.ChunkHeader{
		ChunkType:       chunks.ChunkTypeSimple,
		DataSize:        uint64(len(data)),
		DataHash:        chunks.HashData(data),
		NumRecords:      numRecords,
		DecodedDataSize: decodedSize,
	}

	limits, values, err := chunks.SimpleCodec{}.Parse(header, data)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 3}, limits)
	assert.Equal(t, "abc", string(values))
}

func TestChunkEndWithinOneBlock(t *testing.T) {
	start := uint64(chunks.BlockHeaderSize)
	end := chunks.ChunkEnd(100, start)
	assert.Equal(t, start+100, end)
}

func TestChunkEndCrossesBlockBoundary(t *testing.T) {
	start := chunks.BlockSize - 10
	dataSize := uint64(20)
	end := chunks.ChunkEnd(dataSize, uint64(start))
	// 10 bytes finish block 0, then the block-1 header is skipped, then 10
	// more bytes of payload are consumed inside block 1.
	want := uint64(chunks.BlockSize) + chunks.BlockHeaderSize + 10
	assert.Equal(t, want, end)
}

func TestPositionZeroIsAPossibleChunkBoundary(t *testing.T) {
	// Position 0 sits inside block 0's own header region by the general
	// rule, but it is the universal start-of-stream boundary: no chunk
	// precedes it, so there is nothing for that header to straddle.
	assert.True(t, chunks.IsPossibleChunkBoundary(0))
	assert.False(t, chunks.IsPossibleChunkBoundary(10))
}

func TestChunkEndFromStreamStart(t *testing.T) {
	// The first chunk of a stream always starts right after block 0's
	// header, even though its nominal start position is 0.
	end := chunks.ChunkEnd(chunks.ChunkHeaderSize, 0)
	assert.Equal(t, uint64(chunks.BlockHeaderSize+chunks.ChunkHeaderSize), end)
}

func TestChunkEndLandingExactlyOnBlockBoundary(t *testing.T) {
	start := uint64(chunks.BlockHeaderSize)
	dataSize := uint64(chunks.BlockSize - chunks.BlockHeaderSize) // fills block 0 exactly
	end := chunks.ChunkEnd(dataSize, start)
	// Position BlockSize is offset 0 of block 1, inside its header region,
	// so it can never be a chunk boundary; the header must still be
	// skipped even though the chunk's data ends exactly on the boundary.
	want := uint64(chunks.BlockSize) + chunks.BlockHeaderSize
	assert.Equal(t, want, end)
	assert.True(t, chunks.IsPossibleChunkBoundary(end))
}
