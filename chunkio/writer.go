package chunkio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AmrMurad1/riegeli/bytesio"
	"github.com/AmrMurad1/riegeli/chunks"
)

// ChunkWriter writes chunks by position, interleaving block headers
// transparently and computing every hash the reader will later verify.
type ChunkWriter struct {
	byteWriter *bytesio.Writer
	owned      bool
	logger     zerolog.Logger

	pos uint64 // current chunk boundary

	healthy bool
	message string
	closed  bool
}

// NewChunkWriter wraps byteWriter (already positioned where writing should
// start) in a ChunkWriter. If owned is true, Close also closes byteWriter.
func NewChunkWriter(byteWriter *bytesio.Writer, owned bool, logger zerolog.Logger) *ChunkWriter {
	pos := byteWriter.Pos()
	w := &ChunkWriter{
		byteWriter: byteWriter,
		owned:      owned,
		logger:     logger,
		pos:        pos,
		healthy:    true,
	}
	if !chunks.IsPossibleChunkBoundary(pos) {
		w.fail(fmt.Sprintf("invalid chunk boundary: %d", pos))
	}
	return w
}

func (w *ChunkWriter) fail(msg string) bool {
	w.healthy = false
	w.message = msg
	w.logger.Warn().Str("message", msg).Uint64("pos", w.pos).Msg("riegeli: chunk writer failed")
	return false
}

// Healthy reports whether the writer has not failed.
func (w *ChunkWriter) Healthy() bool { return w.healthy }

// Message returns the last failure's description.
func (w *ChunkWriter) Message() string { return w.message }

// Pos returns the current chunk boundary position.
func (w *ChunkWriter) Pos() uint64 { return w.pos }

// WriteChunk writes header and data as one chunk, filling in
// header.DataHash and header.StoredHeaderHash from the actual bytes
// (callers only need to set ChunkType, NumRecords and DecodedDataSize).
func (w *ChunkWriter) WriteChunk(header chunks.ChunkHeader, data []byte) bool {
	if !w.healthy {
		return false
	}
	header.DataSize = uint64(len(data))
	header.DataHash = chunks.HashData(data)

	payload := header.Encode()
	payload = append(payload, data...)

	chunkStart := w.pos
	chunkEnd := chunks.ChunkEnd(uint64(len(payload)), chunkStart)

	remaining := payload
	for len(remaining) > 0 {
		if chunks.IsBlockBoundary(w.byteWriter.Pos()) {
			if !w.writeBlockHeader(chunkStart, chunkEnd) {
				return false
			}
		}
		room := int(chunks.RemainingInBlock(w.byteWriter.Pos()))
		n := len(remaining)
		if n > room {
			n = room
		}
		if !w.byteWriter.Write(remaining[:n]) {
			return w.fail(w.byteWriter.Message())
		}
		remaining = remaining[n:]
	}

	w.pos = chunkEnd
	w.logger.Debug().Uint64("pos", chunkStart).Uint64("size", uint64(len(payload))).Str("type", header.ChunkType.String()).Msg("riegeli: wrote chunk")
	return true
}

// writeBlockHeader emits the header for the block starting at the writer's
// current (block-boundary) position, given the chunk currently being
// written started at chunkStart and will end at chunkEnd.
func (w *ChunkWriter) writeBlockHeader(chunkStart, chunkEnd uint64) bool {
	blockStart := w.byteWriter.Pos()
	blockEnd := blockStart + chunks.BlockSize

	blockHeader := chunks.BlockHeader{
		PreviousChunk: blockStart - chunkStart,
	}
	if chunkEnd < blockEnd {
		blockHeader.NextChunk = chunkEnd - blockStart
	} else {
		// The chunk's payload does not end within this block; 0 means
		// "no chunk boundary inside this block".
		blockHeader.NextChunk = 0
	}
	if !w.byteWriter.Write(blockHeader.Encode()) {
		return w.fail(w.byteWriter.Message())
	}
	return true
}

// WriteFileSignature writes the mandatory first chunk of a valid stream.
// It must be called first, with the writer positioned at stream offset 0.
func (w *ChunkWriter) WriteFileSignature() bool {
	return w.WriteChunk(chunks.FileSignatureHeader(), nil)
}

// Flush drains buffered bytes and requests the given durability level from
// the underlying byte writer.
func (w *ChunkWriter) Flush(level bytesio.FlushLevel) bool {
	if !w.healthy {
		return false
	}
	if !w.byteWriter.Flush(level) {
		return w.fail(w.byteWriter.Message())
	}
	return true
}

// Close flushes at FromObject level, then releases the byte writer (if
// owned).
func (w *ChunkWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.healthy {
		w.Flush(bytesio.FromObject)
	}
	var err error
	if w.owned {
		if cerr := w.byteWriter.Close(); cerr != nil && w.healthy {
			err = cerr
		}
	}
	return err
}
