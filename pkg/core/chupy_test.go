package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDecompressFileRoundTrip(t *testing.T) {
	plaintext := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 200))

	payload, err := CompressFile(plaintext, ".txt")
	require.NoError(t, err)
	require.True(t, len(payload) > chupyHeaderSize)

	got, ext, err := DecompressFile(payload)
	require.NoError(t, err)
	require.Equal(t, ".txt", ext)
	require.Equal(t, plaintext, got)
}

func TestCompressDecompressEmptyFile(t *testing.T) {
	payload, err := CompressFile(nil, "")
	require.NoError(t, err)

	got, ext, err := DecompressFile(payload)
	require.NoError(t, err)
	require.Equal(t, "", ext)
	require.Empty(t, got)
}

func TestCompressFileTruncatesLongExtension(t *testing.T) {
	longExt := "." + strings.Repeat("x", 40)
	payload, err := CompressFile([]byte("data"), longExt)
	require.NoError(t, err)

	_, ext, err := DecompressFile(payload)
	require.NoError(t, err)
	require.Len(t, ext, chupyExtMaxLen)
}

func TestDecompressFileRejectsFlippedMagicByte(t *testing.T) {
	payload, err := CompressFile([]byte("hello world"), ".txt")
	require.NoError(t, err)

	corrupt := append([]byte(nil), payload...)
	corrupt[0] ^= 0xFF

	_, _, err = DecompressFile(corrupt)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecompressFileRejectsBadVersion(t *testing.T) {
	payload, err := CompressFile([]byte("hello world"), ".txt")
	require.NoError(t, err)

	corrupt := append([]byte(nil), payload...)
	corrupt[8] = 0xFF
	corrupt[9] = 0xFF

	_, _, err = DecompressFile(corrupt)
	require.ErrorIs(t, err, ErrBadVersion)
}

func TestDecompressFileRejectsTruncatedHeader(t *testing.T) {
	_, _, err := DecompressFile([]byte{'C', 'H', 'U', 'P'})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestChupyHeaderRoundTrip(t *testing.T) {
	h := ChupyHeader{Version: chupyVersion, Extension: ".bin"}
	buf := writeChupyHeader(h)
	require.Len(t, buf, chupyHeaderSize)

	got, err := readChupyHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}
