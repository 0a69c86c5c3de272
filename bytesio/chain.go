package bytesio

import "io"

// Chain is an ordered sequence of immutable byte blocks forming one
// logical byte sequence, used to hold chunk payloads and mmap-backed data
// without copying them into one contiguous buffer. NewChainReader and
// NewChainWriter build the random-access reader and append-only writer over
// it.
type Chain struct {
	blocks [][]byte
	size   int
}

// NewChain builds a Chain from existing blocks without copying them; the
// caller must not mutate a block after handing it to the Chain.
func NewChain(blocks ...[]byte) *Chain {
	c := &Chain{}
	for _, b := range blocks {
		c.Append(b)
	}
	return c
}

// Append adds a block to the end of the chain. The slice is retained, not
// copied: blocks are expected to be immutable once appended (e.g. a
// released mmap region or a finished compressor output buffer).
func (c *Chain) Append(block []byte) {
	if len(block) == 0 {
		return
	}
	c.blocks = append(c.blocks, block)
	c.size += len(block)
}

// Len returns the total number of bytes across all blocks.
func (c *Chain) Len() int { return c.size }

// Bytes flattens the chain into a single contiguous slice. Prefer ChainReader
// for streaming access; this is for small chains or tests.
func (c *Chain) Bytes() []byte {
	out := make([]byte, 0, c.size)
	for _, b := range c.blocks {
		out = append(out, b...)
	}
	return out
}

// locate finds the block and in-block offset for absolute offset pos.
func (c *Chain) locate(pos int) (block int, offset int) {
	for i, b := range c.blocks {
		if pos < len(b) {
			return i, pos
		}
		pos -= len(b)
	}
	return len(c.blocks), 0
}

// chainReadBackend is a ReadBackend over a *Chain. lastBlock records the
// block the most recent Fill read from; Fill itself always locates its block
// by scanning from the first block.
type chainReadBackend struct {
	chain     *Chain
	lastBlock int
}

// NewChainReader builds a random-access Reader over chain.
func NewChainReader(chain *Chain) *Reader {
	return NewReader(&chainReadBackend{chain: chain})
}

func (b *chainReadBackend) Fill(pos uint64, p []byte) (int, error) {
	if pos >= uint64(b.chain.size) {
		return 0, io.EOF
	}
	block, offset := b.chain.locate(int(pos))
	if block >= len(b.chain.blocks) {
		return 0, io.EOF
	}
	b.lastBlock = block
	n := copy(p, b.chain.blocks[block][offset:])
	return n, nil
}

func (b *chainReadBackend) SupportsRandomAccess() bool { return true }
func (b *chainReadBackend) SeekTo(pos uint64) error     { return nil }
func (b *chainReadBackend) Size() (uint64, bool)        { return uint64(b.chain.size), true }
func (b *chainReadBackend) Close() error                { return nil }

// chainWriteBackend appends to an owned or borrowed *Chain.
type chainWriteBackend struct {
	chain *Chain
	owned bool
}

// NewChainWriter builds an append-only Writer over chain. The owned flag is
// recorded on the backend, but Close leaves the chain and its contents
// untouched either way, so the written bytes stay readable after Close.
func NewChainWriter(chain *Chain, owned bool) *Writer {
	return NewWriter(&chainWriteBackend{chain: chain, owned: owned})
}

func (b *chainWriteBackend) Drain(pos uint64, p []byte) error {
	block := make([]byte, len(p))
	copy(block, p)
	b.chain.Append(block)
	return nil
}

func (b *chainWriteBackend) SupportsRandomAccess() bool { return false }
func (b *chainWriteBackend) SupportsTruncate() bool     { return false }
func (b *chainWriteBackend) Truncate(pos uint64) error   { return errNotSupported }
func (b *chainWriteBackend) FlushLevel(level FlushLevel) error { return nil }
func (b *chainWriteBackend) Close() error               { return nil }
