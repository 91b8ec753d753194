package core

import (
	"crypto/rand"

	"chupy/pkg/hashdigest"
	"chupy/pkg/streamcipher"

	e "github.com/pkg/errors"
)

// DeriveKey derives the 32-byte cipher key from a password via
// hashdigest.Sum, then zeroizes the password buffer. Callers must not
// reuse password after calling this.
func DeriveKey(password []byte) [streamcipher.KeySize]byte {
	key := hashdigest.Sum(password)
	for i := range password {
		password[i] = 0
	}
	return key
}

// Encrypt produces nonce-prefixed ciphertext: a 12-byte nonce drawn from
// the OS random source, followed by plaintext XOR keystream(key, nonce,
// counter=0...). There is no authentication tag: tampering with the
// ciphertext or using the wrong key silently yields garbage on decrypt.
func Encrypt(plaintext []byte, key [streamcipher.KeySize]byte) ([]byte, error) {
	var nonce [streamcipher.NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, e.Wrap(err, "encrypt: OS random source unavailable")
	}

	ctx := streamcipher.New(key, nonce, 0)
	ciphertext := make([]byte, len(plaintext))
	if err := ctx.XOR(ciphertext, plaintext); err != nil {
		return nil, e.Wrap(err, "encrypt")
	}

	out := make([]byte, 0, streamcipher.NonceSize+len(ciphertext))
	out = append(out, nonce[:]...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decrypt reverses Encrypt: it reads the 12-byte nonce prefix, then XORs
// the remainder with counter starting at 0.
func Decrypt(payload []byte, key [streamcipher.KeySize]byte) ([]byte, error) {
	if len(payload) < streamcipher.NonceSize {
		return nil, e.Wrap(ErrTruncated, "encrypted payload")
	}
	var nonce [streamcipher.NonceSize]byte
	copy(nonce[:], payload[:streamcipher.NonceSize])
	ciphertext := payload[streamcipher.NonceSize:]

	ctx := streamcipher.New(key, nonce, 0)
	plaintext := make([]byte, len(ciphertext))
	if err := ctx.XOR(plaintext, ciphertext); err != nil {
		return nil, e.Wrap(err, "decrypt")
	}
	return plaintext, nil
}
