// Package riegeli implements the core of the Riegeli container file format:
// a block-aligned, self-hashing on-disk layout for sequences of string
// records, with chunk framing, corruption recovery, and pluggable
// per-chunk compression and record codecs.
//
// The format is split across a handful of packages, each usable on its
// own:
//
//   - varint: the unsigned varint codec used for length prefixes.
//   - rhash: the domain-separated 64-bit hash every header and data
//     payload is self-verified against.
//   - bytesio: buffered byte reader/writer abstractions over pluggable
//     backends (files, in-memory chains, limiting wrappers).
//   - compress: the none/Brotli/Zstd compression adapters chunk data is
//     optionally wrapped in.
//   - chunks: the wire data model (block and chunk headers, the Chunk
//     value, block-layout arithmetic) and the Simple record codec.
//   - chunkio: ChunkReader and ChunkWriter, the positional chunk-level
//     read/write API with hash verification, block-header interleaving
//     and resynchronization after corruption.
//   - decoder: ChunkDecoder, which exposes the individual records
//     carried by one validated chunk.
package riegeli
