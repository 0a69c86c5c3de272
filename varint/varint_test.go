package varint_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrMurad1/riegeli/varint"
)

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 129, 200, 255, 256, 300, 1 << 20, 1<<63 - 1, 1<<64 - 1}
	for _, v := range values {
		buf := varint.Append(nil, v)
		got, n, ok := varint.Decode(buf)
		require.True(t, ok)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)

		r := bufio.NewReader(bytes.NewReader(buf))
		got2, err := varint.ReadFrom(r)
		require.NoError(t, err)
		assert.Equal(t, v, got2)
	}
}

func TestDecodeRejectsOverlong(t *testing.T) {
	// A continuation byte followed by a terminating zero byte is overlong.
	_, _, ok := varint.Decode([]byte{0x80, 0x00})
	assert.False(t, ok)
}

func TestDecodeRejectsOutOfRangeTopByte(t *testing.T) {
	buf := make([]byte, varint.MaxLen64)
	for i := 0; i < varint.MaxLen64-1; i++ {
		buf[i] = 0xFF
	}
	buf[varint.MaxLen64-1] = 0xFF // sets bits beyond 64 bits of range
	_, _, ok := varint.Decode(buf)
	assert.False(t, ok)
}

func TestDecodeEmpty(t *testing.T) {
	_, _, ok := varint.Decode(nil)
	assert.False(t, ok)
}

func TestLength64(t *testing.T) {
	assert.Equal(t, 1, varint.Length64(0))
	assert.Equal(t, 1, varint.Length64(127))
	assert.Equal(t, 2, varint.Length64(128))
	assert.Equal(t, varint.MaxLen64, varint.Length64(1<<64-1))
}
