package chunks

import (
	"encoding/binary"
	"fmt"

	"github.com/AmrMurad1/riegeli/rhash"
)

// ChunkHeaderSize is the fixed size of a chunk header:
// stored_header_hash(8) + data_size(8) + data_hash(8) + chunk_type(1) +
// num_records packed into 7 bytes + decoded_data_size(8) = 40 bytes.
const ChunkHeaderSize = 8 + 8 + 8 + 1 + 7 + 8

// ChunkType identifies the shape of a chunk's payload. Values beyond the
// two the framing layer understands (FileSignature and, for testing,
// Simple) are preserved and forwarded opaquely: the framing layer must not
// assume anything about a chunk_type it does not recognize.
type ChunkType uint8

const (
	ChunkTypeFileSignature ChunkType = 0x73 // 's'
	ChunkTypePadding       ChunkType = 0x70 // 'p'
	ChunkTypeSimple        ChunkType = 0x72 // 'r'
	ChunkTypeTransposed    ChunkType = 0x74 // 't'
)

func (t ChunkType) String() string {
	switch t {
	case ChunkTypeFileSignature:
		return "file-signature"
	case ChunkTypePadding:
		return "padding"
	case ChunkTypeSimple:
		return "simple"
	case ChunkTypeTransposed:
		return "transposed"
	default:
		return fmt.Sprintf("chunk-type(0x%02x)", uint8(t))
	}
}

// ChunkHeader is the fixed-size, self-hashed, self-describing header that
// precedes every chunk's data.
type ChunkHeader struct {
	DataSize         uint64
	DataHash         uint64
	ChunkType        ChunkType
	NumRecords       uint64 // packed on the wire into 7 bytes; max 2^56-1
	DecodedDataSize  uint64
	StoredHeaderHash uint64
}

// MaxNumRecords is the largest value NumRecords can hold given its 7-byte
// wire packing.
const MaxNumRecords = 1<<56 - 1

// ComputedHeaderHash returns the domain-separated hash the header should
// carry, computed over every field except StoredHeaderHash itself.
func (h ChunkHeader) ComputedHeaderHash() uint64 {
	buf := h.encodeFieldsWithoutHash()
	return rhash.Hash64(rhash.DomainChunkHeader, buf)
}

// Valid reports whether StoredHeaderHash matches ComputedHeaderHash.
func (h ChunkHeader) Valid() bool { return h.StoredHeaderHash == h.ComputedHeaderHash() }

func (h ChunkHeader) encodeFieldsWithoutHash() []byte {
	buf := make([]byte, ChunkHeaderSize-8)
	binary.LittleEndian.PutUint64(buf[0:8], h.DataSize)
	binary.LittleEndian.PutUint64(buf[8:16], h.DataHash)
	buf[16] = byte(h.ChunkType)
	putUint56LE(buf[17:24], h.NumRecords)
	binary.LittleEndian.PutUint64(buf[24:32], h.DecodedDataSize)
	return buf
}

// Encode serializes h to its ChunkHeaderSize-byte wire form, computing and
// filling in StoredHeaderHash.
func (h ChunkHeader) Encode() []byte {
	h.StoredHeaderHash = h.ComputedHeaderHash()
	rest := h.encodeFieldsWithoutHash()
	buf := make([]byte, ChunkHeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.StoredHeaderHash)
	copy(buf[8:], rest)
	return buf
}

// DecodeChunkHeader parses a ChunkHeaderSize-byte wire form. It does not
// validate the hash or NumRecords range; callers check Valid() and range
// separately, keeping framing (this package) apart from higher-level
// validation.
func DecodeChunkHeader(buf []byte) (ChunkHeader, error) {
	if len(buf) != ChunkHeaderSize {
		return ChunkHeader{}, fmt.Errorf("chunks: chunk header must be %d bytes, got %d", ChunkHeaderSize, len(buf))
	}
	return ChunkHeader{
		StoredHeaderHash: binary.LittleEndian.Uint64(buf[0:8]),
		DataSize:         binary.LittleEndian.Uint64(buf[8:16]),
		DataHash:         binary.LittleEndian.Uint64(buf[16:24]),
		ChunkType:        ChunkType(buf[24]),
		NumRecords:       getUint56LE(buf[25:32]),
		DecodedDataSize:  binary.LittleEndian.Uint64(buf[32:40]),
	}, nil
}

// IsValidFileSignature reports whether h satisfies the constraints a
// file's first chunk header must: chunk_type == FileSignature and every
// length/count field zero.
func (h ChunkHeader) IsValidFileSignature() bool {
	return h.ChunkType == ChunkTypeFileSignature &&
		h.DataSize == 0 && h.NumRecords == 0 && h.DecodedDataSize == 0
}

// FileSignatureHeader returns the mandatory first chunk header of a valid
// stream.
func FileSignatureHeader() ChunkHeader {
	return ChunkHeader{ChunkType: ChunkTypeFileSignature}
}

func putUint56LE(dst []byte, v uint64) {
	for i := 0; i < 7; i++ {
		dst[i] = byte(v)
		v >>= 8
	}
}

func getUint56LE(src []byte) uint64 {
	var v uint64
	for i := 6; i >= 0; i-- {
		v = v<<8 | uint64(src[i])
	}
	return v
}
