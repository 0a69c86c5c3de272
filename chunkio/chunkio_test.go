package chunkio_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrMurad1/riegeli/bytesio"
	"github.com/AmrMurad1/riegeli/chunkio"
	"github.com/AmrMurad1/riegeli/chunks"
)

func buildRecordChunk(records [][]byte) (chunks.ChunkHeader, []byte) {
	data, numRecords, decodedSize := chunks.EncodeSimple(records)
	header := chunks.ChunkHeader{
		ChunkType:       chunks.ChunkTypeSimple,
		NumRecords:      numRecords,
		DecodedDataSize: decodedSize,
	}
	return header, data
}

func writeChunks(t *testing.T, chain *bytesio.Chain, recordSets [][][]byte) []uint64 {
	t.Helper()
	byteWriter := bytesio.NewChainWriter(chain, true)
	writer := chunkio.NewChunkWriter(byteWriter, true, zerolog.Nop())
	require.True(t, writer.WriteFileSignature(), writer.Message())

	boundaries := []uint64{writer.Pos()}
	for _, records := range recordSets {
		header, data := buildRecordChunk(records)
		require.True(t, writer.WriteChunk(header, data), writer.Message())
		boundaries = append(boundaries, writer.Pos())
	}
	require.NoError(t, writer.Close())
	return boundaries
}

func TestFileSignatureAndSimpleChunkRoundTrip(t *testing.T) {
	chain := bytesio.NewChain()
	writeChunks(t, chain, [][][]byte{{[]byte("a"), []byte("bc"), []byte("")}})

	byteReader := bytesio.NewChainReader(chain)
	reader := chunkio.NewChunkReader(byteReader, true, zerolog.Nop())
	require.True(t, reader.CheckFileFormat(), reader.Message())

	sig, ok := reader.ReadChunk()
	require.True(t, ok, reader.Message())
	assert.Equal(t, chunks.ChunkTypeFileSignature, sig.Header.ChunkType)

	chunk, ok := reader.ReadChunk()
	require.True(t, ok, reader.Message())
	assert.Equal(t, uint64(3), chunk.Header.NumRecords)
	assert.True(t, chunk.DataHashValid())

	limits, values, err := chunks.SimpleCodec{}.Parse(chunk.Header, chunk.Data)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 3}, limits)
	assert.Equal(t, "abc", string(values))

	require.NoError(t, reader.Close())
}

func TestMultipleChunksSequentialRead(t *testing.T) {
	chain := bytesio.NewChain()
	recordSets := [][][]byte{
		{[]byte("one")},
		{[]byte("two"), []byte("three")},
		{[]byte("four"), []byte("five"), []byte("six")},
	}
	writeChunks(t, chain, recordSets)

	byteReader := bytesio.NewChainReader(chain)
	reader := chunkio.NewChunkReader(byteReader, true, zerolog.Nop())

	_, ok := reader.ReadChunk() // file signature
	require.True(t, ok, reader.Message())

	for i, records := range recordSets {
		chunk, ok := reader.ReadChunk()
		require.True(t, ok, "chunk %d: %s", i, reader.Message())
		assert.Equal(t, uint64(len(records)), chunk.Header.NumRecords)
		assert.True(t, chunk.DataHashValid())
	}

	_, ok = reader.ReadChunk()
	assert.False(t, ok)
	assert.True(t, reader.Healthy(), "clean EOF should not fail the reader: %s", reader.Message())
}

func TestChunkStraddlesBlockBoundary(t *testing.T) {
	chain := bytesio.NewChain()
	big := make([]byte, chunks.BlockSize+1000)
	for i := range big {
		big[i] = byte(i)
	}
	recordSets := [][][]byte{{big}, {[]byte("after")}}
	writeChunks(t, chain, recordSets)

	byteReader := bytesio.NewChainReader(chain)
	reader := chunkio.NewChunkReader(byteReader, true, zerolog.Nop())

	_, ok := reader.ReadChunk() // file signature
	require.True(t, ok, reader.Message())

	bigChunk, ok := reader.ReadChunk()
	require.True(t, ok, reader.Message())
	require.Equal(t, uint64(1), bigChunk.Header.NumRecords)
	require.True(t, bigChunk.DataHashValid())
	_, values, err := chunks.SimpleCodec{}.Parse(bigChunk.Header, bigChunk.Data)
	require.NoError(t, err)
	assert.Equal(t, big, values)

	afterChunk, ok := reader.ReadChunk()
	require.True(t, ok, reader.Message())
	_, values, err = chunks.SimpleCodec{}.Parse(afterChunk.Header, afterChunk.Data)
	require.NoError(t, err)
	assert.Equal(t, "after", string(values))

	require.NoError(t, reader.Close())
}

func TestDataHashCorruptionRecovers(t *testing.T) {
	chain := bytesio.NewChain()
	recordSets := [][][]byte{
		{[]byte("first")},
		{[]byte("second")},
		{[]byte("third")},
	}
	writeChunks(t, chain, recordSets)

	flat := chain.Bytes()
	// Flip the last non-zero byte of the stream, which lies inside the final
	// chunk's data region, without disturbing any header hash.
	corruptAt := -1
	for i := len(flat) - 1; i >= chunks.BlockHeaderSize+chunks.ChunkHeaderSize; i-- {
		if flat[i] != 0 {
			corruptAt = i
			break
		}
	}
	require.NotEqual(t, -1, corruptAt)
	flat[corruptAt] ^= 0xFF

	corrupted := bytesio.NewChain(flat)
	byteReader := bytesio.NewChainReader(corrupted)
	reader := chunkio.NewChunkReader(byteReader, true, zerolog.Nop())

	_, ok := reader.ReadChunk() // file signature
	require.True(t, ok, reader.Message())

	readOK := 0
	var lastErr bool
	for i := 0; i < len(recordSets); i++ {
		_, ok := reader.ReadChunk()
		if ok {
			readOK++
			continue
		}
		lastErr = true
		var skipped uint64
		require.True(t, reader.Recover(&skipped))
	}
	assert.True(t, lastErr, "expected at least one corrupted chunk")
	assert.Less(t, readOK, len(recordSets))
}

func TestSeekToChunkContainingAndAfter(t *testing.T) {
	chain := bytesio.NewChain()
	recordSets := [][][]byte{
		{[]byte("a"), []byte("b"), []byte("c")}, // chunk 1
		{[]byte("d"), []byte("e")},               // chunk 2
		{[]byte("f"), []byte("g"), []byte("h"), []byte("i")}, // chunk 3
	}
	boundaries := writeChunks(t, chain, recordSets)
	// boundaries[0] is after the file signature chunk, i.e. chunk 1's start;
	// boundaries[i+1] is chunk i+1's end == chunk i+2's start.
	chunk1Start, chunk2Start, chunk3Start, fileEnd := boundaries[0], boundaries[1], boundaries[2], boundaries[3]

	byteReader := bytesio.NewChainReader(chain)
	reader := chunkio.NewChunkReader(byteReader, true, zerolog.Nop())
	_, ok := reader.ReadChunk() // file signature
	require.True(t, ok, reader.Message())

	// A position strictly inside chunk 2's byte range resolves to chunk 2's
	// boundary for "containing", and to chunk 3's boundary for "after".
	mid := chunk2Start + (chunk3Start-chunk2Start)/2

	require.True(t, reader.SeekToChunkContaining(mid), reader.Message())
	assert.Equal(t, chunk2Start, reader.Pos())
	chunk, ok := reader.ReadChunk()
	require.True(t, ok, reader.Message())
	assert.Equal(t, uint64(2), chunk.Header.NumRecords)

	require.True(t, reader.SeekToChunkAfter(mid), reader.Message())
	assert.Equal(t, chunk3Start, reader.Pos())

	require.True(t, reader.SeekToChunkContaining(chunk1Start), reader.Message())
	assert.Equal(t, chunk1Start, reader.Pos())

	require.True(t, reader.SeekToChunkAfter(fileEnd), reader.Message())
	assert.Equal(t, fileEnd, reader.Pos())

	require.NoError(t, reader.Close())
}
