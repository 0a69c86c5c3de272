// Package decoder implements ChunkDecoder, which exposes the records
// carried by a single validated chunk.
package decoder

import (
	"fmt"

	"github.com/AmrMurad1/riegeli/chunks"
)

// ChunkDecoder iterates the records of one chunk in order.
type ChunkDecoder struct {
	limits []int
	values []byte
	index  uint64

	healthy bool
	message string
}

// NewChunkDecoder parses chunk's payload using the RecordCodec registered
// for its ChunkType. An unrecognized chunk type (padding, or a future
// codec this build does not implement) yields a decoder with zero records
// rather than an error, matching the framing layer's policy of forwarding
// opaque chunk types without interpreting them.
func NewChunkDecoder(chunk chunks.Chunk) (*ChunkDecoder, error) {
	if !chunk.DataHashValid() {
		return nil, fmt.Errorf("decoder: chunk data hash mismatch")
	}
	codec, ok := chunks.CodecFor(chunk.Header.ChunkType)
	if !ok {
		return &ChunkDecoder{healthy: true}, nil
	}
	limits, values, err := codec.Parse(chunk.Header, chunk.Data)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	return &ChunkDecoder{limits: limits, values: values, healthy: true}, nil
}

// Healthy reports whether the decoder has not failed.
func (d *ChunkDecoder) Healthy() bool { return d.healthy }

// Message returns the last failure's description.
func (d *ChunkDecoder) Message() string { return d.message }

// NumRecords returns the total number of records in the chunk.
func (d *ChunkDecoder) NumRecords() uint64 { return uint64(len(d.limits)) }

// Index returns the index of the record the next ReadRecord call will
// return.
func (d *ChunkDecoder) Index() uint64 { return d.index }

// SetIndex repositions the decoder to i, clamped to [0, NumRecords()].
func (d *ChunkDecoder) SetIndex(i uint64) {
	if i > d.NumRecords() {
		i = d.NumRecords()
	}
	d.index = i
}

func (d *ChunkDecoder) fail(msg string) bool {
	d.healthy = false
	d.message = msg
	return false
}

// ReadRecord copies the next record's bytes and advances the index. It
// returns false at end of chunk (Healthy() remains true) or on failure.
func (d *ChunkDecoder) ReadRecord() ([]byte, bool) {
	if !d.healthy {
		return nil, false
	}
	if d.index >= uint64(len(d.limits)) {
		return nil, false
	}
	end := d.limits[d.index]
	start := 0
	if d.index > 0 {
		start = d.limits[d.index-1]
	}
	if start > end || end > len(d.values) {
		return nil, d.fail(fmt.Sprintf("decoder: invalid record bounds [%d,%d) into %d value bytes", start, end, len(d.values)))
	}
	record := d.values[start:end]
	d.index++
	return record, true
}

// Recover skips the record that just failed to parse, allowing decoding to
// resume with the next one. It returns false if there is nothing to skip.
func (d *ChunkDecoder) Recover() bool {
	if d.index >= uint64(len(d.limits)) {
		return false
	}
	return d.recover(1)
}

func (d *ChunkDecoder) recover(n uint64) bool {
	d.healthy = true
	d.message = ""
	d.index += n
	if d.index > uint64(len(d.limits)) {
		d.index = uint64(len(d.limits))
	}
	return true
}
