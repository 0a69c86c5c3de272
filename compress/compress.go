// Package compress implements the thin compression adapters the chunk
// framing layer composes over: none, Brotli and Zstd. Each is a writer
// wrapping another writer and a matching reader; the package also
// implements the length-prefixing convention chunk data uses so that a
// decoder can preallocate exactly and validate decoded_data_size.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/AmrMurad1/riegeli/varint"
)

// Type selects a compression codec.
type Type uint8

const (
	None Type = iota
	BrotliType
	ZstdType
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case BrotliType:
		return "brotli"
	case ZstdType:
		return "zstd"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Options configures a codec. Level and WindowLog are passed to the Brotli
// and Zstd codecs (Zstd maps any positive level to one higher-compression
// setting); None ignores them. SizeHint is kept in Options but is not passed
// to either codec. Options are built with chainable setters.
type Options struct {
	level     int
	windowLog int
	sizeHint  uint64
}

// DefaultOptions returns the zero-value tuning (codec default level/window,
// no size hint).
func DefaultOptions() Options { return Options{} }

func (o Options) WithLevel(level int) Options {
	o.level = level
	return o
}

func (o Options) WithWindowLog(windowLog int) Options {
	o.windowLog = windowLog
	return o
}

func (o Options) WithSizeHint(sizeHint uint64) Options {
	o.sizeHint = sizeHint
	return o
}

// NewWriter wraps dst with typ's compressor. Close must be called to flush
// the codec's finish frame; it does not close dst.
func NewWriter(dst io.Writer, typ Type, opts Options) (io.WriteCloser, error) {
	switch typ {
	case None:
		return nopWriteCloser{dst}, nil
	case BrotliType:
		level := opts.level
		if level == 0 {
			level = brotli.DefaultCompression
		}
		w := brotli.NewWriterOptions(dst, brotli.WriterOptions{Quality: level, LGWin: opts.windowLog})
		return w, nil
	case ZstdType:
		zopts := []zstd.EOption{}
		if opts.level > 0 {
			// The generic level knob (shared with Brotli's 0-11 scale) does
			// not map onto zstd's four-speed enum; a positive level asks
			// for its higher-compression tier, zero keeps the codec default.
			zopts = append(zopts, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		}
		if opts.windowLog != 0 {
			zopts = append(zopts, zstd.WithWindowSize(1<<uint(opts.windowLog)))
		}
		w, err := zstd.NewWriter(dst, zopts...)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd writer: %w", err)
		}
		return w, nil
	default:
		return nil, fmt.Errorf("compress: unknown compression type %v", typ)
	}
}

// NewReader wraps src with typ's decompressor.
func NewReader(src io.Reader, typ Type) (io.ReadCloser, error) {
	switch typ {
	case None:
		return io.NopCloser(src), nil
	case BrotliType:
		return io.NopCloser(brotli.NewReader(src)), nil
	case ZstdType:
		d, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd reader: %w", err)
		}
		return readCloserFunc{d, d.Close}, nil
	default:
		return nil, fmt.Errorf("compress: unknown compression type %v", typ)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type readCloserFunc struct {
	io.Reader
	closeFn func()
}

func (r readCloserFunc) Close() error {
	r.closeFn()
	return nil
}

// EncodeChunkData compresses raw per the chunk-data framing convention: if
// typ != None, the result is varint(len(raw)) || compressed(raw); if
// typ == None, the result is raw unchanged.
func EncodeChunkData(raw []byte, typ Type, opts Options) ([]byte, error) {
	if typ == None {
		return raw, nil
	}
	var compressed bytes.Buffer
	w, err := NewWriter(&compressed, typ, opts.WithSizeHint(uint64(len(raw))))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("compress: encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: encode: close: %w", err)
	}
	out := varint.Append(nil, uint64(len(raw)))
	out = append(out, compressed.Bytes()...)
	return out, nil
}

// DecodeChunkData reverses EncodeChunkData, validating that the
// decompressed length matches the size prefix (or, for None, that it
// matches wantDecodedSize supplied by the caller from the chunk header).
func DecodeChunkData(data []byte, typ Type, wantDecodedSize uint64) ([]byte, error) {
	if typ == None {
		if uint64(len(data)) != wantDecodedSize {
			return nil, fmt.Errorf("compress: decoded_data_size mismatch: header says %d, got %d bytes", wantDecodedSize, len(data))
		}
		return data, nil
	}
	decodedSize, n, ok := varint.Decode(data)
	if !ok {
		return nil, fmt.Errorf("compress: malformed size prefix")
	}
	if decodedSize != wantDecodedSize {
		return nil, fmt.Errorf("compress: decoded_data_size mismatch: header says %d, prefix says %d", wantDecodedSize, decodedSize)
	}
	r, err := NewReader(bytes.NewReader(data[n:]), typ)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]byte, 0, decodedSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.CopyN(buf, r, int64(decodedSize)); err != nil {
		return nil, fmt.Errorf("compress: decode: %w", err)
	}
	// Confirm the compressed stream doesn't have trailing garbage beyond
	// what decodedSize promised: even one extra decompressed byte is an
	// error.
	var extra [1]byte
	if k, _ := r.Read(extra[:]); k != 0 {
		return nil, fmt.Errorf("compress: decode: %d extra bytes beyond decoded_data_size", k)
	}
	return buf.Bytes(), nil
}
