// Package rhash provides the domain-separated 64-bit hash used to
// self-verify block headers, chunk headers and chunk data.
//
// Hashes are computed with murmur3, seeded per domain so that a block
// header, a chunk header and a chunk's data bytes can never collide
// across purposes even for identical byte content.
package rhash

import "github.com/spaolacci/murmur3"

// Domain identifies which part of the on-disk format a hash covers. Values
// are wire-format constants: changing them changes the on-disk format.
type Domain uint32

const (
	DomainBlockHeader Domain = 0x626c6b31 // "blk1"
	DomainChunkHeader Domain = 0x63686b31 // "chk1"
	DomainChunkData   Domain = 0x64617431 // "dat1"
)

// Hash64 computes the domain-separated 64-bit hash of data.
//
// It is defined as one murmur3.Sum64WithSeed pass over data, seeded with
// the domain value, whose result is then XORed with the domain in both its
// high and low 32 bits, so that identical bytes hashed under different
// domains yield different results.
func Hash64(domain Domain, data []byte) uint64 {
	seed := uint32(domain)
	h := murmur3.Sum64WithSeed(data, seed)
	// Fold the domain into the high bits too, so domains differing only in
	// bits that murmur3's seed schedule ignores still separate cleanly.
	return h ^ (uint64(domain) << 32) ^ uint64(domain)
}

// Hash64Multi hashes the concatenation of several byte slices under domain,
// without needing the caller to allocate a combined buffer.
func Hash64Multi(domain Domain, parts ...[]byte) uint64 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	buf := make([]byte, 0, total)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return Hash64(domain, buf)
}
