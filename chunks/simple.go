package chunks

import (
	"fmt"

	"github.com/AmrMurad1/riegeli/varint"
)

// SimpleCodec is the plain-concatenation record codec: a chunk's data is
// the varint-encoded length of each record followed by the concatenation
// of all record bytes. A transposed/columnar codec for proto-typed
// records is not implemented; SimpleCodec is what exercises RecordCodec
// end to end.
type SimpleCodec struct{}

// EncodeSimple builds the chunk-data payload (pre-compression) for
// records, along with the NumRecords and DecodedDataSize a ChunkHeader
// referencing it must carry.
func EncodeSimple(records [][]byte) (data []byte, numRecords uint64, decodedDataSize uint64) {
	var lengths []byte
	var values []byte
	for _, r := range records {
		lengths = varint.Append(lengths, uint64(len(r)))
		values = append(values, r...)
	}
	data = append(lengths, values...)
	return data, uint64(len(records)), uint64(len(values))
}

// Parse implements RecordCodec.
func (SimpleCodec) Parse(header ChunkHeader, data []byte) (limits []int, values []byte, err error) {
	if header.NumRecords > MaxNumRecords {
		return nil, nil, fmt.Errorf("chunks: num_records %d exceeds wire maximum", header.NumRecords)
	}
	limits = make([]int, 0, header.NumRecords)
	cursor := 0
	total := 0
	for i := uint64(0); i < header.NumRecords; i++ {
		length, n, ok := varint.Decode(data[cursor:])
		if !ok {
			return nil, nil, fmt.Errorf("chunks: malformed record length at record %d", i)
		}
		cursor += n
		total += int(length)
		limits = append(limits, total)
	}
	values = data[cursor:]
	if len(values) != total {
		return nil, nil, fmt.Errorf("chunks: record lengths sum to %d but %d value bytes remain", total, len(values))
	}
	if uint64(total) != header.DecodedDataSize {
		return nil, nil, fmt.Errorf("chunks: decoded_data_size %d does not match %d bytes of values", header.DecodedDataSize, total)
	}
	return limits, values, nil
}
