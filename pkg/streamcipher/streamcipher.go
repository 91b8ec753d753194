// Package streamcipher implements a counter-mode ARX stream cipher
// (ChaCha20-shaped): a 20-round permutation over a 16-word state seeded
// from four constant words, an eight-word key, a 32-bit block counter and
// a three-word nonce, producing a 64-byte keystream block per counter
// value that is XORed against plaintext or ciphertext.
package streamcipher

import (
	"context"
	"encoding/binary"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	// KeySize is the key length in bytes.
	KeySize = 32
	// NonceSize is the nonce length in bytes.
	NonceSize = 12
	// BlockSize is the keystream block length in bytes.
	BlockSize = 64
)

var constants = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574}

// Context binds a key and nonce for a single encrypt/decrypt call. The
// block counter advances monotonically as XOR is streamed through it.
type Context struct {
	key     [8]uint32
	nonce   [3]uint32
	counter uint32
}

// New builds a Context from a raw key and nonce, starting at the given
// block counter.
func New(key [KeySize]byte, nonce [NonceSize]byte, counter uint32) *Context {
	ctx := &Context{counter: counter}
	for i := 0; i < 8; i++ {
		ctx.key[i] = binary.LittleEndian.Uint32(key[i*4 : i*4+4])
	}
	for i := 0; i < 3; i++ {
		ctx.nonce[i] = binary.LittleEndian.Uint32(nonce[i*4 : i*4+4])
	}
	return ctx
}

// Counter returns the context's current block counter.
func (c *Context) Counter() uint32 {
	return c.counter
}

// Block computes the deterministic 64-byte keystream block for the given
// block counter. It is a pure function of (key, nonce, counter) and does
// not touch c.counter, so it is safe to call concurrently across indices.
func (c *Context) Block(counter uint32) [BlockSize]byte {
	state := [16]uint32{
		constants[0], constants[1], constants[2], constants[3],
		c.key[0], c.key[1], c.key[2], c.key[3],
		c.key[4], c.key[5], c.key[6], c.key[7],
		counter,
		c.nonce[0], c.nonce[1], c.nonce[2],
	}

	working := state
	for i := 0; i < 10; i++ {
		quarterRound(&working, 0, 4, 8, 12)
		quarterRound(&working, 1, 5, 9, 13)
		quarterRound(&working, 2, 6, 10, 14)
		quarterRound(&working, 3, 7, 11, 15)

		quarterRound(&working, 0, 5, 10, 15)
		quarterRound(&working, 1, 6, 11, 12)
		quarterRound(&working, 2, 7, 8, 13)
		quarterRound(&working, 3, 4, 9, 14)
	}

	var out [BlockSize]byte
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], working[i]+state[i])
	}
	return out
}

func quarterRound(s *[16]uint32, a, b, c, d int) {
	s[a] += s[b]
	s[d] ^= s[a]
	s[d] = rotl32(s[d], 16)
	s[c] += s[d]
	s[b] ^= s[c]
	s[b] = rotl32(s[b], 12)
	s[a] += s[b]
	s[d] ^= s[a]
	s[d] = rotl32(s[d], 8)
	s[c] += s[d]
	s[b] ^= s[c]
	s[b] = rotl32(s[b], 7)
}

func rotl32(x uint32, n uint32) uint32 {
	return (x << n) | (x >> (32 - n))
}

// XOR encrypts or decrypts src into dst (len(dst) must be >= len(src)),
// processing 64-byte blocks with counter = c.counter + blockIndex. The
// final partial block is XORed against only its leading bytes. On return
// c's counter has advanced by the number of blocks touched (including a
// partial one), so streaming src across two calls produces the same bytes
// as one call, as long as each call's length is a multiple of BlockSize
// except possibly the last.
//
// Full blocks are sharded across workers: each goroutine only ever calls
// the pure Block method and writes to its own disjoint slice of dst, so
// output is independent of the worker count.
func (c *Context) XOR(dst, src []byte) error {
	if len(dst) < len(src) {
		panic("streamcipher: dst shorter than src")
	}
	nBlocks := len(src) / BlockSize
	residual := len(src) % BlockSize

	base := c.counter
	if nBlocks > 0 {
		workers := runtime.GOMAXPROCS(0)
		if workers > nBlocks {
			workers = nBlocks
		}
		chunk := (nBlocks + workers - 1) / workers

		g, _ := errgroup.WithContext(context.Background())
		for w := 0; w < workers; w++ {
			lo := w * chunk
			hi := lo + chunk
			if hi > nBlocks {
				hi = nBlocks
			}
			if lo >= hi {
				continue
			}
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					ks := c.Block(base + uint32(i))
					off := i * BlockSize
					xorBytes(dst[off:off+BlockSize], src[off:off+BlockSize], ks[:])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if residual > 0 {
		ks := c.Block(base + uint32(nBlocks))
		off := nBlocks * BlockSize
		xorBytes(dst[off:off+residual], src[off:off+residual], ks[:residual])
		c.counter = base + uint32(nBlocks) + 1
	} else {
		c.counter = base + uint32(nBlocks)
	}
	return nil
}

func xorBytes(dst, a, b []byte) {
	for i := range a {
		dst[i] = a[i] ^ b[i]
	}
}
