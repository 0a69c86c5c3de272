package bytesio

import "fmt"

// FlushLevel orders the durability guarantee a Flush call must provide.
// The levels form a total order: FromObject < FromProcess < FromMachine. A
// writer must honour the strongest level its backend supports and must
// never silently downgrade a requested level.
type FlushLevel int

const (
	// FromObject makes writes visible to other readers of the same
	// underlying resource within this process.
	FromObject FlushLevel = iota
	// FromProcess makes writes visible to other processes (e.g. a regular
	// write(2) to a file offset).
	FromProcess
	// FromMachine makes writes durable across a machine crash (e.g.
	// fsync(2)).
	FromMachine
)

func (l FlushLevel) String() string {
	switch l {
	case FromObject:
		return "FromObject"
	case FromProcess:
		return "FromProcess"
	case FromMachine:
		return "FromMachine"
	default:
		return fmt.Sprintf("FlushLevel(%d)", int(l))
	}
}

// WriteBackend is implemented by concrete byte sinks.
type WriteBackend interface {
	// Drain writes p at the given absolute stream position.
	Drain(pos uint64, p []byte) error
	// FlushLevel is called on Writer.Flush; the backend performs whatever
	// durability action the requested level requires and returns an error
	// if it cannot provide that level.
	FlushLevel(level FlushLevel) error
	SupportsRandomAccess() bool
	SupportsTruncate() bool
	Truncate(pos uint64) error
	Close() error
}

// Writer is a buffered byte writer over a WriteBackend.
type Writer struct {
	backend  WriteBackend
	buf      []byte
	cursor   int
	startPos uint64 // absolute stream position of buf[0]

	healthy bool
	message string
	closed  bool
}

// NewWriter wraps backend in a Writer starting at stream position 0.
func NewWriter(backend WriteBackend) *Writer {
	return &Writer{
		backend: backend,
		buf:     make([]byte, 64<<10),
		healthy: true,
	}
}

// Pos returns the current absolute stream position, counting bytes that are
// still buffered.
func (w *Writer) Pos() uint64 { return w.startPos + uint64(w.cursor) }

func (w *Writer) Healthy() bool  { return w.healthy }
func (w *Writer) Message() string { return w.message }

func (w *Writer) fail(msg string) bool {
	w.healthy = false
	w.message = msg
	return false
}

// drainBuffered pushes any buffered bytes out to the backend.
func (w *Writer) drainBuffered() bool {
	if w.cursor == 0 {
		return true
	}
	if err := w.backend.Drain(w.startPos, w.buf[:w.cursor]); err != nil {
		return w.fail(err.Error())
	}
	w.startPos += uint64(w.cursor)
	w.cursor = 0
	return true
}

// Push ensures at least minLength free bytes are available in the writable
// view, draining buffered data as needed.
func (w *Writer) Push(minLength int) bool {
	if !w.healthy {
		return false
	}
	if len(w.buf)-w.cursor >= minLength {
		return true
	}
	if !w.drainBuffered() {
		return false
	}
	if len(w.buf) < minLength {
		w.buf = make([]byte, minLength)
	}
	return true
}

// WriteByte is the inlined hot path for single-byte writes.
func (w *Writer) WriteByte(b byte) bool {
	if lb, ok := w.backend.(*limitingWriteBackend); ok && w.Pos() >= lb.limit {
		return w.fail("bytesio: write past limit")
	}
	if w.cursor < len(w.buf) {
		w.buf[w.cursor] = b
		w.cursor++
		return true
	}
	if !w.Push(1) {
		return false
	}
	w.buf[w.cursor] = b
	w.cursor++
	return true
}

// Write copies src into the writer, draining to the backend as needed.
func (w *Writer) Write(src []byte) bool {
	if lb, ok := w.backend.(*limitingWriteBackend); ok && w.Pos()+uint64(len(src)) > lb.limit {
		return w.fail("bytesio: write past limit")
	}
	for len(src) > 0 {
		if w.cursor >= len(w.buf) {
			if !w.Push(1) {
				return false
			}
		}
		k := copy(w.buf[w.cursor:], src)
		w.cursor += k
		src = src[k:]
	}
	return true
}

// Flush drains buffered data and asks the backend to honour level. Callers
// must not request a weaker level than a previous Flush already granted;
// neither the Writer nor the backends track or check earlier levels.
func (w *Writer) Flush(level FlushLevel) bool {
	if !w.healthy {
		return false
	}
	if !w.drainBuffered() {
		return false
	}
	if err := w.backend.FlushLevel(level); err != nil {
		return w.fail(err.Error())
	}
	return true
}

// Seek repositions a random-access writer, flushing first.
func (w *Writer) Seek(pos uint64) bool {
	if !w.healthy {
		return false
	}
	if !w.backend.SupportsRandomAccess() {
		return w.fail("bytesio: Seek not supported by this backend")
	}
	if !w.drainBuffered() {
		return false
	}
	w.startPos = pos
	w.cursor = 0
	return true
}

// Truncate truncates the underlying resource at pos, flushing first.
func (w *Writer) Truncate(pos uint64) bool {
	if !w.healthy {
		return false
	}
	if !w.backend.SupportsTruncate() {
		return w.fail("bytesio: Truncate not supported by this backend")
	}
	if !w.drainBuffered() {
		return false
	}
	if err := w.backend.Truncate(pos); err != nil {
		return w.fail(err.Error())
	}
	if pos < w.startPos {
		w.startPos = pos
	}
	return true
}

// Close flushes at FromObject level and releases the backend. Idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.healthy {
		if !w.drainBuffered() {
			return fmt.Errorf("bytesio: close: %s", w.message)
		}
	}
	return w.backend.Close()
}
