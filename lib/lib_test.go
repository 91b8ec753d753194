package lib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDecompressFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "greeting.txt")
	require.NoError(t, os.WriteFile(input, []byte("hello, chupy"), 0o644))

	archive := filepath.Join(dir, "greeting.chupy")
	require.NoError(t, Compress(input, archive))

	restored := filepath.Join(dir, "restored.txt")
	require.NoError(t, Decompress(archive, restored))

	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	require.Equal(t, []byte("hello, chupy"), got)
}

func TestCompressDecompressDirectory(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("one"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "nested", "b.txt"), []byte("two"), 0o644))

	workDir := t.TempDir()
	archive := filepath.Join(workDir, "tree.chupydir")
	require.NoError(t, Compress(srcDir, archive))

	destDir := filepath.Join(workDir, "restored")
	require.NoError(t, Decompress(archive, destDir))

	a, err := os.ReadFile(filepath.Join(destDir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), a)

	b, err := os.ReadFile(filepath.Join(destDir, "nested", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("two"), b)
}

func TestEncryptDecryptFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(input, []byte("top secret payload"), 0o644))

	encrypted := filepath.Join(dir, "secret.enc")
	require.NoError(t, Encrypt(input, encrypted, "hunter2"))

	decrypted := filepath.Join(dir, "secret.dec")
	require.NoError(t, Decrypt(encrypted, decrypted, "hunter2"))

	got, err := os.ReadFile(decrypted)
	require.NoError(t, err)
	require.Equal(t, []byte("top secret payload"), got)
}

func TestCompressThenEncryptThenDecryptThenDecompress(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.txt")
	content := []byte("round trip through both stages")
	require.NoError(t, os.WriteFile(input, content, 0o644))

	bundle := filepath.Join(dir, "doc.bundle")
	require.NoError(t, CompressThenEncrypt(input, bundle, "correct horse battery staple"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.NotContains(t, entry.Name(), ".chupy-tmp-")
	}

	output := filepath.Join(dir, "doc.restored.txt")
	require.NoError(t, DecryptThenDecompress(bundle, output, "correct horse battery staple"))

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestDecompressRejectsUnknownContainer(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "not-a-chupy-file")
	require.NoError(t, os.WriteFile(input, []byte("plain garbage"), 0o644))

	output := filepath.Join(dir, "out")
	err := Decompress(input, output)
	require.Error(t, err)
}
