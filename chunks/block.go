// Package chunks implements the on-disk data model shared by the chunk
// reader and writer: block headers, chunk headers, the Chunk value itself,
// and the block-layout helper predicates used throughout the framing
// layer.
package chunks

import (
	"encoding/binary"
	"fmt"

	"github.com/AmrMurad1/riegeli/rhash"
)

// BlockSize is the fixed size B of an aligned block, in bytes.
const BlockSize = 64 << 10 // 65536

// BlockHeaderSize is the fixed size of a block header.
const BlockHeaderSize = 24

// BlockHeader anchors the chunk layout for recovery. It occupies the first
// BlockHeaderSize bytes of every block.
//
// Wire layout (little-endian): stored_header_hash(u64) ||
// previous_chunk(u64) || next_chunk(u64).
type BlockHeader struct {
	PreviousChunk     uint64
	NextChunk         uint64
	StoredHeaderHash  uint64
}

// ComputedHeaderHash returns the domain-separated hash the header should
// carry, computed from PreviousChunk and NextChunk.
func (h BlockHeader) ComputedHeaderHash() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.PreviousChunk)
	binary.LittleEndian.PutUint64(buf[8:16], h.NextChunk)
	return rhash.Hash64(rhash.DomainBlockHeader, buf[:])
}

// Valid reports whether StoredHeaderHash matches ComputedHeaderHash.
func (h BlockHeader) Valid() bool { return h.StoredHeaderHash == h.ComputedHeaderHash() }

// Encode serializes h to its BlockHeaderSize-byte wire form, computing and
// filling in StoredHeaderHash.
func (h BlockHeader) Encode() []byte {
	h.StoredHeaderHash = h.ComputedHeaderHash()
	buf := make([]byte, BlockHeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.StoredHeaderHash)
	binary.LittleEndian.PutUint64(buf[8:16], h.PreviousChunk)
	binary.LittleEndian.PutUint64(buf[16:24], h.NextChunk)
	return buf
}

// DecodeBlockHeader parses a BlockHeaderSize-byte wire form. It does not
// validate the hash; callers check Valid().
func DecodeBlockHeader(buf []byte) (BlockHeader, error) {
	if len(buf) != BlockHeaderSize {
		return BlockHeader{}, fmt.Errorf("chunks: block header must be %d bytes, got %d", BlockHeaderSize, len(buf))
	}
	return BlockHeader{
		StoredHeaderHash: binary.LittleEndian.Uint64(buf[0:8]),
		PreviousChunk:    binary.LittleEndian.Uint64(buf[8:16]),
		NextChunk:        binary.LittleEndian.Uint64(buf[16:24]),
	}, nil
}

// IsBlockBoundary reports whether pos is aligned to BlockSize.
func IsBlockBoundary(pos uint64) bool { return pos%BlockSize == 0 }

// RemainingInBlock returns the number of bytes from pos to the start of
// the next block.
func RemainingInBlock(pos uint64) uint64 { return BlockSize - pos%BlockSize }

// RemainingInBlockHeader returns the number of bytes from pos to the end
// of the block header covering pos's block, or 0 if pos is already past
// that header.
func RemainingInBlockHeader(pos uint64) uint64 {
	offset := pos % BlockSize
	if offset >= BlockHeaderSize {
		return 0
	}
	return BlockHeaderSize - offset
}

// IsPossibleChunkBoundary rejects positions that fall within a block's
// header region. Position 0 is the sole
// exception: it is the universal start-of-stream boundary, even though it
// sits at offset 0 of block 0's own header, because no chunk precedes it
// whose payload could have been misread as straddling that header.
func IsPossibleChunkBoundary(pos uint64) bool {
	if pos == 0 {
		return true
	}
	return pos%BlockSize >= BlockHeaderSize
}

// DistanceWithoutOverhead returns the number of chunk-payload bytes
// between base (assumed to be a chunk boundary) and pos, i.e. pos-base
// minus the size of any block headers crossed in (base, pos].
func DistanceWithoutOverhead(base, pos uint64) uint64 {
	if base == 0 {
		// Position 0 precedes block 0's own header, which every other
		// chunk boundary has already moved past by construction.
		base = BlockHeaderSize
	}
	if pos <= base {
		return 0
	}
	raw := pos - base
	firstBlock := base / BlockSize
	lastBlock := pos / BlockSize
	headers := lastBlock - firstBlock
	return raw - headers*BlockHeaderSize
}

// ChunkEnd returns the physical stream position just past a chunk's data,
// given the chunk started at start and dataSize is the chunk's full length
// (its ChunkHeaderSize-byte header plus its data), accounting for any block
// headers straddled along the way.
func ChunkEnd(dataSize uint64, start uint64) uint64 {
	pos := start
	if pos == 0 {
		// The very first chunk of a stream starts right after block 0's
		// header, never at raw offset 0.
		pos = BlockHeaderSize
	}
	remaining := dataSize
	for remaining > 0 {
		room := RemainingInBlock(pos)
		if room > remaining {
			pos += remaining
			remaining = 0
			continue
		}
		// The chunk's payload reaches or crosses this block boundary: any
		// remaining bytes continue past it, so the next block's header
		// (which is never part of a chunk's data, even when a chunk ends
		// exactly on the boundary) must be skipped too.
		pos += room
		remaining -= room
		pos += BlockHeaderSize
	}
	return pos
}
