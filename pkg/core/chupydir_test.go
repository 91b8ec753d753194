package core

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressExtractDirEntriesRoundTrip(t *testing.T) {
	binContent := make([]byte, 256)
	for i := range binContent {
		binContent[i] = byte(i)
	}

	files := []DirFile{
		{RelPath: "a.txt", Content: []byte("hello")},
		{RelPath: "sub/b.bin", Content: binContent},
	}

	payload, err := CompressDirEntries(files)
	require.NoError(t, err)

	got, err := ExtractDirEntries(payload)
	require.NoError(t, err)
	require.Len(t, got, 2)

	sort.Slice(got, func(i, j int) bool { return got[i].RelPath < got[j].RelPath })
	require.Equal(t, "a.txt", got[0].RelPath)
	require.Equal(t, []byte("hello"), got[0].Content)
	require.Equal(t, "sub/b.bin", got[1].RelPath)
	require.Equal(t, binContent, got[1].Content)
}

func TestCompressExtractDirEntriesEmptyArchive(t *testing.T) {
	payload, err := CompressDirEntries(nil)
	require.NoError(t, err)

	got, err := ExtractDirEntries(payload)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExtractDirEntriesRejectsBadMagic(t *testing.T) {
	payload, err := CompressDirEntries([]DirFile{{RelPath: "a", Content: []byte("x")}})
	require.NoError(t, err)

	corrupt := append([]byte(nil), payload...)
	corrupt[0] = 'X'

	_, err = ExtractDirEntries(corrupt)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestExtractDirEntriesRejectsTruncatedMetadata(t *testing.T) {
	payload, err := CompressDirEntries([]DirFile{{RelPath: "a", Content: []byte("x")}})
	require.NoError(t, err)

	truncated := payload[:chupyDirHeaderSize+1]
	_, err = ExtractDirEntries(truncated)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestCompressDirectoryExtractArchiveRoundTrip(t *testing.T) {
	srcRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(srcRoot, "sub"), 0o755))
	binContent := make([]byte, 256)
	for i := range binContent {
		binContent[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "sub", "b.bin"), binContent, 0o644))

	payload, err := CompressDirectory(srcRoot)
	require.NoError(t, err)

	destRoot := t.TempDir()
	require.NoError(t, ExtractArchive(payload, destRoot))

	gotA, err := os.ReadFile(filepath.Join(destRoot, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), gotA)

	gotB, err := os.ReadFile(filepath.Join(destRoot, "sub", "b.bin"))
	require.NoError(t, err)
	require.Equal(t, binContent, gotB)
}
