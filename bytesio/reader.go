// Package bytesio implements the buffered byte reader/writer abstraction
// the framing layer is built on: a reader exposes a contiguous
// [start, limit) view with a cursor and a monotonically increasing stream
// position; a writer exposes the writable dual. Concrete backends (file,
// in-memory chain, limiting wrapper) refill or drain the view in larger
// units; the hot path of short reads/writes never leaves this package.
package bytesio

import (
	"errors"
	"io"
)

// ErrOverflow describes a length or position computation that would
// overflow 64 bits. No function in this package returns it: Reader and
// Writer do not check their position arithmetic for overflow.
var ErrOverflow = errors.New("bytesio: integer overflow")

// errNotSupported is returned by backend capability methods that a given
// backend does not implement (e.g. SeekTo on a streaming reader).
var errNotSupported = errors.New("bytesio: operation not supported by this backend")

// ReadBackend is implemented by concrete byte sources. Fill is called when
// the reader's view is exhausted and more data is needed; it should return
// the next contiguous slice of the stream starting at pos, or io.EOF if the
// stream has no more data there. Implementations own their own I/O; the
// Reader never calls Fill concurrently with itself.
type ReadBackend interface {
	// Fill returns up to len(p) bytes read starting at the given absolute
	// stream position, or (0, io.EOF) at end of stream.
	Fill(pos uint64, p []byte) (n int, err error)
	// SupportsRandomAccess reports whether SeekTo is meaningful.
	SupportsRandomAccess() bool
	// SeekTo repositions the backend. Only called when SupportsRandomAccess
	// is true.
	SeekTo(pos uint64) error
	// Size reports the total stream size, if known.
	Size() (uint64, bool)
	Close() error
}

// Reader is a buffered byte reader over a ReadBackend, exposing Pull,
// Read, Seek, Size, Healthy, Message, Close, plus an inlined
// ReadByte/Peek hot path.
type Reader struct {
	backend ReadBackend
	buf     []byte
	cursor  int
	n       int    // valid bytes in buf
	bufPos  uint64 // absolute stream position of buf[0]

	healthy bool
	message string
	closed  bool
}

// NewReader wraps backend in a Reader starting at stream position 0.
func NewReader(backend ReadBackend) *Reader {
	return &Reader{
		backend: backend,
		buf:     make([]byte, 0, 64<<10),
		healthy: true,
	}
}

// Pos returns the current absolute stream position.
func (r *Reader) Pos() uint64 { return r.bufPos + uint64(r.cursor) }

// Healthy reports whether the reader has not failed.
func (r *Reader) Healthy() bool { return r.healthy }

// Message returns the last failure's human-readable description, or "".
func (r *Reader) Message() string { return r.message }

// SupportsRandomAccess reports whether Seek is meaningful.
func (r *Reader) SupportsRandomAccess() bool { return r.backend.SupportsRandomAccess() }

// Size reports the total stream size, if the backend knows it.
func (r *Reader) Size() (uint64, bool) {
	if !r.healthy {
		return 0, false
	}
	return r.backend.Size()
}

func (r *Reader) fail(msg string) bool {
	r.healthy = false
	r.message = msg
	return false
}

// available reports how many buffered bytes remain unread.
func (r *Reader) available() int { return r.n - r.cursor }

// Pull ensures at least minLength bytes are available in the contiguous
// view, refilling from the backend as needed. It returns false on EOF (with
// Healthy() still true) or on failure (Healthy() false).
func (r *Reader) Pull(minLength int) bool {
	if !r.healthy {
		return false
	}
	if r.available() >= minLength {
		return true
	}
	// Compact: move the unread tail to the front.
	if r.cursor > 0 {
		copy(r.buf, r.buf[r.cursor:r.n])
		r.n -= r.cursor
		r.bufPos += uint64(r.cursor)
		r.cursor = 0
	}
	need := minLength
	if need < 4096 {
		need = 4096
	}
	if cap(r.buf) < need {
		grown := make([]byte, r.n, need)
		copy(grown, r.buf[:r.n])
		r.buf = grown
	}
	for r.n < minLength {
		if r.n == cap(r.buf) {
			grown := make([]byte, r.n, cap(r.buf)*2+minLength)
			copy(grown, r.buf[:r.n])
			r.buf = grown
		}
		room := r.buf[r.n:cap(r.buf)]
		read, err := r.backend.Fill(r.bufPos+uint64(r.n), room)
		r.n += read
		r.buf = r.buf[:r.n]
		if err != nil {
			if err == io.EOF {
				return r.n >= minLength
			}
			return r.fail(err.Error())
		}
		if read == 0 {
			return r.n >= minLength
		}
	}
	return true
}

// ReadByte is the inlined hot path for single-byte reads.
func (r *Reader) ReadByte() (byte, bool) {
	if r.cursor < r.n {
		b := r.buf[r.cursor]
		r.cursor++
		return b, true
	}
	if !r.Pull(1) {
		return 0, false
	}
	b := r.buf[r.cursor]
	r.cursor++
	return b, true
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, bool) {
	if r.cursor < r.n {
		return r.buf[r.cursor], true
	}
	if !r.Pull(1) {
		return 0, false
	}
	return r.buf[r.cursor], true
}

// Read copies exactly len(dest) bytes into dest. Partial success (fewer
// bytes available than requested) counts as failure, but the reader's
// position still advances past whatever was successfully copied.
func (r *Reader) Read(dest []byte) bool {
	for len(dest) > 0 {
		if r.cursor >= r.n {
			if !r.Pull(1) {
				return false
			}
		}
		k := copy(dest, r.buf[r.cursor:r.n])
		r.cursor += k
		dest = dest[k:]
	}
	return true
}

// ReadAppend reads exactly n bytes and appends them to dst, returning the
// grown slice and whether the read succeeded in full.
func (r *Reader) ReadAppend(dst []byte, n int) ([]byte, bool) {
	start := len(dst)
	dst = append(dst, make([]byte, n)...)
	if !r.Read(dst[start:]) {
		return dst[:start], false
	}
	return dst, true
}

// Seek repositions the reader. After success the view is empty and the
// next Pull loads from pos. Only random-access backends support this.
func (r *Reader) Seek(pos uint64) bool {
	if !r.healthy {
		return false
	}
	if !r.backend.SupportsRandomAccess() {
		return r.fail("bytesio: Seek not supported by this backend")
	}
	if err := r.backend.SeekTo(pos); err != nil {
		return r.fail(err.Error())
	}
	r.bufPos = pos
	r.cursor = 0
	r.n = 0
	return true
}

// Close releases the backend. Idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.backend.Close()
}
