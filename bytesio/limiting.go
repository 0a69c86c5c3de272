package bytesio

import "io"

// limitingReadBackend wraps another ReadBackend and refuses to read past a
// maximum absolute position.
type limitingReadBackend struct {
	inner ReadBackend
	limit uint64
}

// NewLimitingReader wraps r so that no read is ever satisfied past limit.
// Wrapping an already-limited Reader again collapses into a single wrapper
// carrying the intersection of both limits, rather than nesting.
func NewLimitingReader(r *Reader, limit uint64) *Reader {
	if lb, ok := r.backend.(*limitingReadBackend); ok {
		if limit > lb.limit {
			limit = lb.limit
		}
		r.backend = &limitingReadBackend{inner: lb.inner, limit: limit}
		return r
	}
	r.backend = &limitingReadBackend{inner: r.backend, limit: limit}
	return r
}

func (b *limitingReadBackend) Fill(pos uint64, p []byte) (int, error) {
	if pos >= b.limit {
		return 0, io.EOF
	}
	if remaining := b.limit - pos; uint64(len(p)) > remaining {
		p = p[:remaining]
	}
	return b.inner.Fill(pos, p)
}

func (b *limitingReadBackend) SupportsRandomAccess() bool { return b.inner.SupportsRandomAccess() }
func (b *limitingReadBackend) SeekTo(pos uint64) error     { return b.inner.SeekTo(pos) }

func (b *limitingReadBackend) Size() (uint64, bool) {
	size, ok := b.inner.Size()
	if !ok || size > b.limit {
		return b.limit, true
	}
	return size, ok
}

func (b *limitingReadBackend) Close() error { return b.inner.Close() }

// limitingWriteBackend wraps another WriteBackend and refuses to write
// past a maximum absolute position.
type limitingWriteBackend struct {
	inner WriteBackend
	limit uint64
}

// NewLimitingWriter wraps w so that no write is ever accepted past limit.
// Stacking collapses as with NewLimitingReader.
func NewLimitingWriter(w *Writer, limit uint64) *Writer {
	if lb, ok := w.backend.(*limitingWriteBackend); ok {
		if limit > lb.limit {
			limit = lb.limit
		}
		w.backend = &limitingWriteBackend{inner: lb.inner, limit: limit}
		return w
	}
	w.backend = &limitingWriteBackend{inner: w.backend, limit: limit}
	return w
}

func (b *limitingWriteBackend) Drain(pos uint64, p []byte) error {
	if pos+uint64(len(p)) > b.limit {
		return io.ErrShortWrite
	}
	return b.inner.Drain(pos, p)
}

func (b *limitingWriteBackend) SupportsRandomAccess() bool { return b.inner.SupportsRandomAccess() }
func (b *limitingWriteBackend) SupportsTruncate() bool     { return b.inner.SupportsTruncate() }
func (b *limitingWriteBackend) Truncate(pos uint64) error   { return b.inner.Truncate(pos) }
func (b *limitingWriteBackend) FlushLevel(l FlushLevel) error { return b.inner.FlushLevel(l) }
func (b *limitingWriteBackend) Close() error                { return b.inner.Close() }
