// Package chunkio implements the chunk reader and writer: positional
// reads/writes of chunks, header and data hash validation, block-header
// interleaving, and resynchronization after corruption.
package chunkio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AmrMurad1/riegeli/bytesio"
	"github.com/AmrMurad1/riegeli/chunks"
)

// RecoverableKind identifies which recovery strategy applies after a
// ChunkReader failure.
type RecoverableKind int

const (
	RecoverableNone RecoverableKind = iota
	// RecoverableFindChunk means the reader must scan forward for the next
	// plausible chunk boundary (header corruption, invalid boundary).
	RecoverableFindChunk
	// RecoverableHaveChunk means the chunk's header was valid but its data
	// was not; recovery resumes right after the believed-present chunk.
	RecoverableHaveChunk
	// RecoverableReportSkippedBytes means the reader was closed holding a
	// truncated chunk tail; recovery only reports the skipped byte count.
	RecoverableReportSkippedBytes
)

// ChunkReader reads chunks by position, validating both hashes,
// interleaving block-header reads transparently, and supporting
// resynchronization after corruption.
type ChunkReader struct {
	byteReader *bytesio.Reader
	owned      bool
	logger     zerolog.Logger

	pos    uint64 // current chunk boundary
	header chunks.ChunkHeader
	data   []byte

	blockHeader chunks.BlockHeader

	currentChunkIsIncomplete bool
	recoverableKind          RecoverableKind
	recoverablePos           uint64

	healthy bool
	message string
	closed  bool
}

// NewChunkReader wraps byteReader (already positioned where reading
// should start) in a ChunkReader. If owned is true, Close also closes
// byteReader.
func NewChunkReader(byteReader *bytesio.Reader, owned bool, logger zerolog.Logger) *ChunkReader {
	r := &ChunkReader{
		byteReader: byteReader,
		owned:      owned,
		logger:     logger,
		pos:        byteReader.Pos(),
		healthy:    true,
	}
	if !chunks.IsPossibleChunkBoundary(r.pos) {
		r.recoverableKind = RecoverableFindChunk
		r.recoverablePos = r.pos
		r.fail(fmt.Sprintf("invalid chunk boundary: %d", r.pos))
	}
	return r
}

func (r *ChunkReader) fail(msg string) bool {
	r.healthy = false
	r.message = msg
	r.logger.Warn().Str("message", msg).Uint64("pos", r.pos).Msg("riegeli: chunk reader failed")
	return false
}

// Healthy reports whether the reader has not failed.
func (r *ChunkReader) Healthy() bool { return r.healthy }

// Message returns the last failure's description.
func (r *ChunkReader) Message() string { return r.message }

// Pos returns the current chunk boundary position.
func (r *ChunkReader) Pos() uint64 { return r.pos }

// CurrentChunkIsIncomplete reports whether the reader stopped mid-chunk at
// EOF (only meaningful once !Healthy() after Close, as Truncated).
func (r *ChunkReader) CurrentChunkIsIncomplete() bool { return r.currentChunkIsIncomplete }

// readingFailed classifies a byte-reader failure: EOF observed after some
// progress marks the chunk as incomplete rather than failing immediately;
// a true I/O failure propagates as non-recoverable.
func (r *ChunkReader) readingFailed() bool {
	if r.byteReader.Healthy() {
		if r.byteReader.Pos() > r.pos {
			r.currentChunkIsIncomplete = true
		}
		return false
	}
	return r.fail(r.byteReader.Message())
}

// CheckFileFormat verifies that a valid file-signature chunk header can be
// read at the current position.
func (r *ChunkReader) CheckFileFormat() bool {
	return r.pullChunkHeader()
}

// ReadChunk reads and validates the chunk at the current boundary,
// advancing past it on success.
func (r *ChunkReader) ReadChunk() (chunks.Chunk, bool) {
	if !r.pullChunkHeader() {
		return chunks.Chunk{}, false
	}
	for uint64(len(r.data)) < r.header.DataSize {
		posBefore := r.byteReader.Pos()
		if !r.readBlockHeader() {
			return chunks.Chunk{}, false
		}
		if chunks.IsBlockBoundary(posBefore) && r.blockHeader.PreviousChunk != posBefore-r.pos {
			r.recoverableKind = RecoverableFindChunk
			r.recoverablePos = r.byteReader.Pos()
			return chunks.Chunk{}, r.fail(fmt.Sprintf(
				"invalid riegeli/records file: chunk boundary is %d but block header at %d implies a different previous chunk boundary",
				r.pos, posBefore))
		}
		want := r.header.DataSize - uint64(len(r.data))
		room := chunks.RemainingInBlock(r.byteReader.Pos())
		n := want
		if room < n {
			n = room
		}
		var ok bool
		r.data, ok = r.byteReader.ReadAppend(r.data, int(n))
		if !ok {
			return chunks.Chunk{}, r.readingFailed()
		}
	}

	// The data loop above already advanced past every block header
	// straddled along the way, so the physical position it landed on is
	// the chunk's end; no need to recompute it from scratch.
	chunkEnd := r.byteReader.Pos()
	computedHash := chunks.HashData(r.data)
	if computedHash != r.header.DataHash {
		// RecoverableHaveChunk, not RecoverableFindChunk: the header hash was
		// valid, so the next chunk is believed present right after this one.
		r.recoverableKind = RecoverableHaveChunk
		r.recoverablePos = chunkEnd
		return chunks.Chunk{}, r.fail(fmt.Sprintf(
			"corrupted riegeli/records file: chunk data hash mismatch (computed 0x%016x, stored 0x%016x), chunk at %d with length %d",
			computedHash, r.header.DataHash, r.pos, chunkEnd-r.pos))
	}

	chunk := chunks.Chunk{Header: r.header, Data: r.data}
	r.pos = chunkEnd
	r.header = chunks.ChunkHeader{}
	r.data = nil
	return chunk, true
}

// pullChunkHeader ensures the chunk header at the current boundary has
// been fully read into r.header, seeking back first if a previous
// recovery left the byte reader positioned elsewhere.
func (r *ChunkReader) pullChunkHeader() bool {
	if !r.healthy {
		return false
	}
	r.currentChunkIsIncomplete = false
	if r.byteReader.Pos() < r.pos {
		if !r.byteReader.Seek(r.pos) {
			return r.readingFailed()
		}
	}
	headerRead := chunks.DistanceWithoutOverhead(r.pos, r.byteReader.Pos())
	if headerRead < chunks.ChunkHeaderSize {
		return r.readChunkHeader()
	}
	return true
}

func (r *ChunkReader) readChunkHeader() bool {
	var buf [chunks.ChunkHeaderSize]byte
	filled := 0
	for {
		posBefore := r.byteReader.Pos()
		if !r.readBlockHeader() {
			return false
		}
		if chunks.IsBlockBoundary(posBefore) && r.blockHeader.PreviousChunk != posBefore-r.pos {
			r.recoverableKind = RecoverableFindChunk
			r.recoverablePos = r.byteReader.Pos()
			return r.fail(fmt.Sprintf(
				"invalid riegeli/records file: chunk boundary is %d but block header at %d implies a different previous chunk boundary",
				r.pos, posBefore))
		}
		headerRead := int(chunks.DistanceWithoutOverhead(r.pos, r.byteReader.Pos()))
		remaining := chunks.ChunkHeaderSize - headerRead
		room := int(chunks.RemainingInBlock(r.byteReader.Pos()))
		toRead := remaining
		if room < toRead {
			toRead = room
		}
		if !r.byteReader.Read(buf[filled : filled+toRead]) {
			return r.readingFailed()
		}
		filled += toRead
		if toRead >= remaining {
			break
		}
	}

	header, err := chunks.DecodeChunkHeader(buf[:])
	if err != nil {
		return r.fail(err.Error())
	}
	if !header.Valid() {
		r.recoverableKind = RecoverableFindChunk
		r.recoverablePos = r.byteReader.Pos()
		return r.fail(fmt.Sprintf(
			"corrupted riegeli/records file: chunk header hash mismatch (computed 0x%016x, stored 0x%016x), chunk at %d",
			header.ComputedHeaderHash(), header.StoredHeaderHash, r.pos))
	}
	if r.pos == 0 && !header.IsValidFileSignature() {
		r.recoverableKind = RecoverableFindChunk
		r.recoverablePos = r.byteReader.Pos()
		return r.fail("invalid riegeli/records file: missing file signature")
	}
	r.header = header
	return true
}

func (r *ChunkReader) readBlockHeader() bool {
	remaining := chunks.RemainingInBlockHeader(r.byteReader.Pos())
	if remaining == 0 {
		return true
	}
	var buf [chunks.BlockHeaderSize]byte
	offset := chunks.BlockHeaderSize - int(remaining)
	if !r.byteReader.Read(buf[offset:]) {
		return r.readingFailed()
	}
	blockHeader, err := chunks.DecodeBlockHeader(buf[:])
	if err != nil {
		return r.fail(err.Error())
	}
	if !blockHeader.Valid() {
		r.recoverableKind = RecoverableFindChunk
		r.recoverablePos = r.byteReader.Pos()
		blockStart := r.byteReader.Pos() - r.byteReader.Pos()%chunks.BlockSize
		return r.fail(fmt.Sprintf(
			"corrupted riegeli/records file: block header hash mismatch (computed 0x%016x, stored 0x%016x), block at %d",
			blockHeader.ComputedHeaderHash(), blockHeader.StoredHeaderHash, blockStart))
	}
	r.blockHeader = blockHeader
	r.logger.Debug().Uint64("pos", r.byteReader.Pos()).Msg("riegeli: read block header")
	return true
}

// Seek repositions the reader to pos, which must be a possible chunk
// boundary (not inside a block header region).
func (r *ChunkReader) Seek(pos uint64) bool {
	if !r.healthy {
		return false
	}
	r.pos = pos
	r.data = nil
	r.header = chunks.ChunkHeader{}
	r.currentChunkIsIncomplete = false
	if !r.byteReader.Seek(pos) {
		if !r.byteReader.Healthy() {
			return r.fail(r.byteReader.Message())
		}
	}
	if !chunks.IsPossibleChunkBoundary(pos) {
		r.recoverableKind = RecoverableFindChunk
		r.recoverablePos = pos
		return r.fail(fmt.Sprintf("invalid chunk boundary: %d", pos))
	}
	return true
}

// SeekToChunkContaining seeks to the boundary of the chunk whose half-open
// byte range [start, end) contains pos, using block-header back/forward
// pointers to avoid a linear scan from the beginning of the file.
func (r *ChunkReader) SeekToChunkContaining(pos uint64) bool {
	return r.seekToChunk(pos, true)
}

// SeekToChunkAfter seeks to the smallest chunk boundary >= pos.
func (r *ChunkReader) SeekToChunkAfter(pos uint64) bool {
	return r.seekToChunk(pos, false)
}

func (r *ChunkReader) seekToChunk(target uint64, containing bool) bool {
	if !r.healthy {
		return false
	}
	r.data = nil
	r.header = chunks.ChunkHeader{}
	r.currentChunkIsIncomplete = false

	blockBegin := target - target%chunks.BlockSize
	if blockBegin > 0 {
		if size, ok := r.byteReader.Size(); ok {
			maxBlockBegin := uint64(0)
			if size > chunks.BlockHeaderSize {
				maxBlockBegin = size - chunks.BlockHeaderSize
			}
			maxBlockBegin -= maxBlockBegin % chunks.BlockSize
			if blockBegin > maxBlockBegin {
				blockBegin = maxBlockBegin
			}
		}
	}

	positioned := false
	if r.pos <= target {
		if r.pos == target {
			return true
		}
		if !r.pullChunkHeader() {
			return false
		}
		chunkEnd := chunks.ChunkEnd(chunks.ChunkHeaderSize+r.header.DataSize, r.pos)
		if containing && chunkEnd > target {
			return true
		}
		if !containing && chunkEnd >= target {
			r.pos = chunkEnd
			return true
		}
		if chunkEnd >= blockBegin {
			r.pos = chunkEnd
			positioned = true
		}
		// Otherwise the current chunk ends well before target's block;
		// fall through to the block-header-guided search below.
	}

	if !positioned {
		r.pos = blockBegin
		if !r.byteReader.Seek(r.pos) {
			if !r.byteReader.Healthy() {
				return r.fail(r.byteReader.Message())
			}
			return false
		}
		if !r.readBlockHeader() {
			return false
		}
		if r.blockHeader.PreviousChunk != 0 {
			// If PreviousChunk were 0, a chunk boundary already coincides
			// with the block boundary and the scan below can start here.
			nextChunk := r.blockHeader.NextChunk
			if nextChunk == 0 {
				nextChunk = chunks.BlockSize
			}
			r.pos = blockBegin + nextChunk
			if containing && r.pos > target {
				if r.blockHeader.PreviousChunk > blockBegin {
					r.recoverableKind = RecoverableFindChunk
					r.recoverablePos = r.byteReader.Pos()
					return r.fail(fmt.Sprintf(
						"invalid riegeli/records file: block header at %d implies a negative previous chunk boundary", blockBegin))
				}
				r.pos = blockBegin - r.blockHeader.PreviousChunk
			}
			if !chunks.IsPossibleChunkBoundary(r.pos) {
				r.recoverableKind = RecoverableFindChunk
				r.recoverablePos = r.byteReader.Pos()
				return r.fail(fmt.Sprintf(
					"invalid riegeli/records file: block header at %d implies an invalid chunk boundary: %d", blockBegin, r.pos))
			}
		}
	}

	for {
		if !containing && r.pos >= target {
			return true
		}
		if !r.byteReader.Seek(r.pos) {
			if !r.byteReader.Healthy() {
				return r.fail(r.byteReader.Message())
			}
			return false
		}
		if !r.readChunkHeader() {
			return false
		}
		chunkEnd := chunks.ChunkEnd(chunks.ChunkHeaderSize+r.header.DataSize, r.pos)
		if containing && chunkEnd > target {
			return true
		}
		if !containing && chunkEnd >= target {
			r.pos = chunkEnd
			return true
		}
		r.pos = chunkEnd
	}
}

// Recover re-enters a healthy state after a recoverable failure, advancing
// pos to a plausible next chunk boundary and accumulating skippedBytes.
// It returns false if recovery is not applicable.
func (r *ChunkReader) Recover(skippedBytes *uint64) bool {
	if r.recoverableKind == RecoverableNone {
		return false
	}
	for {
		kind := r.recoverableKind
		recoverablePos := r.recoverablePos
		r.recoverableKind = RecoverableNone
		r.recoverablePos = 0
		r.healthy = true
		r.message = ""

		if kind == RecoverableReportSkippedBytes {
			// recoverablePos holds a byte count here, not a position: the
			// reader was closed mid-chunk with no further stream to scan.
			if skippedBytes != nil {
				*skippedBytes += recoverablePos
			}
			return true
		}

		if kind == RecoverableFindChunk {
			recoverablePos += chunks.RemainingInBlock(recoverablePos)
		}
		if skippedBytes != nil {
			*skippedBytes += recoverablePos - r.pos
		}
		r.pos = recoverablePos
		r.data = nil
		r.header = chunks.ChunkHeader{}
		if kind == RecoverableHaveChunk {
			return true
		}

		// RecoverableFindChunk: scan forward from the next block boundary.
		if !r.byteReader.Seek(r.pos) {
			if r.byteReader.Healthy() {
				return true
			}
			return r.fail(r.byteReader.Message())
		}
		if !r.readBlockHeader() {
			if r.recoverableKind != RecoverableNone {
				continue
			}
			return true
		}
		if r.blockHeader.PreviousChunk == 0 {
			return true
		}
		nextChunk := r.blockHeader.NextChunk
		if nextChunk == 0 {
			nextChunk = chunks.BlockSize
		}
		if skippedBytes != nil {
			*skippedBytes += nextChunk
		}
		r.pos += nextChunk
		if r.blockHeader.NextChunk == 0 || !chunks.IsPossibleChunkBoundary(r.pos) {
			r.recoverableKind = RecoverableFindChunk
			r.recoverablePos = r.pos
			continue
		}
		return true
	}
}

// Close releases the byte reader (if owned) and reports a Truncated
// failure if the reader was healthy but sitting on an incomplete chunk.
func (r *ChunkReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.recoverableKind = RecoverableNone
	r.recoverablePos = 0
	if r.healthy && r.currentChunkIsIncomplete {
		skipped := r.byteReader.Pos() - r.pos
		r.recoverableKind = RecoverableReportSkippedBytes
		r.recoverablePos = skipped
		r.fail(fmt.Sprintf("truncated riegeli/records file: incomplete chunk at %d with length %d", r.pos, skipped))
	}
	var err error
	if r.owned {
		if cerr := r.byteReader.Close(); cerr != nil && r.healthy {
			err = cerr
		}
	}
	return err
}
