package chunks

import "github.com/AmrMurad1/riegeli/rhash"

// Chunk is a validated header paired with exactly DataSize bytes of
// payload.
type Chunk struct {
	Header ChunkHeader
	Data   []byte
}

// HashData computes the domain-separated content hash of data, matching
// the value a ChunkHeader's DataHash field must carry.
func HashData(data []byte) uint64 { return rhash.Hash64(rhash.DomainChunkData, data) }

// DataHashValid reports whether c.Header.DataHash matches the actual hash
// of c.Data.
func (c Chunk) DataHashValid() bool { return c.Header.DataHash == HashData(c.Data) }

// RecordCodec is the interface a chunk payload parser implements: given a
// validated chunk, it produces the sorted end-offset vector and flat value
// buffer the decoder exposes records from. The framing layer only depends
// on this interface, never on a specific codec's wire format.
type RecordCodec interface {
	// Parse decodes data (already hash-verified and decompressed) into the
	// record limits and flat value buffer it describes.
	Parse(header ChunkHeader, data []byte) (limits []int, values []byte, err error)
}

// CodecFor resolves the RecordCodec responsible for a given chunk type, or
// reports ok=false for an opaque/unknown chunk type the framing layer must
// forward without interpreting.
func CodecFor(t ChunkType) (codec RecordCodec, ok bool) {
	switch t {
	case ChunkTypeSimple:
		return SimpleCodec{}, true
	default:
		return nil, false
	}
}
