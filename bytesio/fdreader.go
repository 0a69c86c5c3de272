package bytesio

import (
	"io"
	"os"
)

// FDPositionalReader reads a file with positional preads (os.File.ReadAt),
// so it supports random access and can share a single *os.File across
// multiple independent readers, each with its own logical position.
type FDPositionalReader struct {
	file  *os.File
	owned bool
}

// NewFDPositionalReader builds a Reader backed by positional reads on file.
// If owned is true, Close also closes the file.
func NewFDPositionalReader(file *os.File, owned bool) *Reader {
	return NewReader(&FDPositionalReader{file: file, owned: owned})
}

// OpenFDPositionalReader opens name and wraps it in an owned positional
// Reader.
func OpenFDPositionalReader(name string) (*Reader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return NewFDPositionalReader(f, true), nil
}

func (b *FDPositionalReader) Fill(pos uint64, p []byte) (int, error) {
	n, err := b.file.ReadAt(p, int64(pos))
	if err != nil && err != io.EOF {
		return n, err
	}
	if n == 0 && err == nil {
		err = io.EOF
	}
	return n, err
}

func (b *FDPositionalReader) SupportsRandomAccess() bool { return true }
func (b *FDPositionalReader) SeekTo(pos uint64) error     { return nil }

func (b *FDPositionalReader) Size() (uint64, bool) {
	info, err := b.file.Stat()
	if err != nil {
		return 0, false
	}
	return uint64(info.Size()), true
}

func (b *FDPositionalReader) Close() error {
	if b.owned {
		return b.file.Close()
	}
	return nil
}

// FDStreamingReader reads a file sequentially with plain Read calls. At
// most one reader may use a given descriptor at a time; the caller must
// supply the position the descriptor is currently at if it did not open
// the file itself (e.g. a descriptor inherited mid-stream).
type FDStreamingReader struct {
	file    *os.File
	owned   bool
	readPos uint64 // position the file descriptor is actually at
}

// NewFDStreamingReader builds a streaming Reader starting logically at
// assumedPos (the descriptor's current offset).
func NewFDStreamingReader(file *os.File, owned bool, assumedPos uint64) *Reader {
	return NewReader(&FDStreamingReader{file: file, owned: owned, readPos: assumedPos})
}

func (b *FDStreamingReader) Fill(pos uint64, p []byte) (int, error) {
	// Streaming backends only ever get called with pos == current read
	// position by construction (no Seek support), but guard anyway.
	if pos != b.readPos {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := b.file.Read(p)
	b.readPos += uint64(n)
	return n, err
}

func (b *FDStreamingReader) SupportsRandomAccess() bool { return false }
func (b *FDStreamingReader) SeekTo(pos uint64) error     { return errNotSupported }

func (b *FDStreamingReader) Size() (uint64, bool) {
	info, err := b.file.Stat()
	if err != nil {
		return 0, false
	}
	return uint64(info.Size()), true
}

func (b *FDStreamingReader) Close() error {
	if b.owned {
		return b.file.Close()
	}
	return nil
}
