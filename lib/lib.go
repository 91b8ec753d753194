// Package lib is the public facade over chupy's core engine: pure
// byte-in/byte-out operations plus the path-based convenience wrappers
// the CLI dispatcher drives.
package lib

import (
	"os"
	"path/filepath"

	"chupy/pkg/core"

	e "github.com/pkg/errors"
)

// CompressBytes compresses plaintext into a complete .chupy payload.
func CompressBytes(plaintext []byte, ext string) ([]byte, error) {
	return core.CompressFile(plaintext, ext)
}

// DecompressBytes reverses CompressBytes.
func DecompressBytes(payload []byte) (plaintext []byte, ext string, err error) {
	return core.DecompressFile(payload)
}

// CompressDirBytes compresses a set of (path, content) pairs into a
// complete .chupydir payload.
func CompressDirBytes(files []core.DirFile) ([]byte, error) {
	return core.CompressDirEntries(files)
}

// DecompressDirBytes reverses CompressDirBytes.
func DecompressDirBytes(payload []byte) ([]core.DirFile, error) {
	return core.ExtractDirEntries(payload)
}

// EncryptBytes encrypts plaintext with a key derived from password.
// password is zeroized before this function returns.
func EncryptBytes(plaintext []byte, password []byte) ([]byte, error) {
	key := core.DeriveKey(password)
	return core.Encrypt(plaintext, key)
}

// DecryptBytes reverses EncryptBytes. password is zeroized before this
// function returns.
func DecryptBytes(payload []byte, password []byte) ([]byte, error) {
	key := core.DeriveKey(password)
	return core.Decrypt(payload, key)
}

// Compress reads input (a file or a directory) and writes a .chupy or
// .chupydir payload to output.
func Compress(input, output string) error {
	info, err := os.Stat(input)
	if err != nil {
		return e.Wrap(err, "stat input")
	}

	var payload []byte
	if info.IsDir() {
		payload, err = core.CompressDirectory(input)
		if err != nil {
			return e.Wrap(err, "compress directory")
		}
	} else {
		data, err := os.ReadFile(input)
		if err != nil {
			return e.Wrap(err, "read input")
		}
		payload, err = core.CompressFile(data, filepath.Ext(input))
		if err != nil {
			return e.Wrap(err, "compress file")
		}
	}
	return writeFile(output, payload)
}

// Decompress reads a .chupy or .chupydir payload from input and
// reconstructs the original file or directory tree at output.
func Decompress(input, output string) error {
	payload, err := os.ReadFile(input)
	if err != nil {
		return e.Wrap(err, "read input")
	}

	switch detectContainer(payload) {
	case containerChupyDir:
		if output == "" {
			output = "."
		}
		if err := core.ExtractArchive(payload, output); err != nil {
			return e.Wrap(err, "extract archive")
		}
		return nil
	case containerChupy:
		plaintext, ext, err := core.DecompressFile(payload)
		if err != nil {
			return e.Wrap(err, "decompress file")
		}
		if output == "" {
			output = stripChupyExt(input) + ext
		}
		return writeFile(output, plaintext)
	default:
		return e.Wrap(core.ErrBadMagic, "decompress")
	}
}

// Encrypt reads a plaintext file from input, encrypts it with a key
// derived from password, and writes the ciphertext to output.
func Encrypt(input, output, password string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return e.Wrap(err, "read input")
	}
	pw := []byte(password)
	payload, err := EncryptBytes(data, pw)
	if err != nil {
		return e.Wrap(err, "encrypt")
	}
	return writeFile(output, payload)
}

// Decrypt reverses Encrypt.
func Decrypt(input, output, password string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return e.Wrap(err, "read input")
	}
	pw := []byte(password)
	plaintext, err := DecryptBytes(data, pw)
	if err != nil {
		return e.Wrap(err, "decrypt")
	}
	return writeFile(output, plaintext)
}

// CompressThenEncrypt compresses input to a temporary .chupy/.chupydir
// file, then encrypts that temporary file into output. The temporary
// file is removed on success or on any error.
func CompressThenEncrypt(input, output, password string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(output), ".chupy-tmp-*")
	if err != nil {
		return e.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := Compress(input, tmpPath); err != nil {
		return e.Wrap(err, "compress")
	}
	if err := Encrypt(tmpPath, output, password); err != nil {
		return e.Wrap(err, "encrypt")
	}
	return nil
}

// DecryptThenDecompress decrypts input into a temporary .chupy/.chupydir
// file, then decompresses that temporary file into output. The temporary
// file is removed on success or on any error.
func DecryptThenDecompress(input, output, password string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(input), ".chupy-tmp-*")
	if err != nil {
		return e.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := Decrypt(input, tmpPath, password); err != nil {
		return e.Wrap(err, "decrypt")
	}
	if err := Decompress(tmpPath, output); err != nil {
		return e.Wrap(err, "decompress")
	}
	return nil
}

type containerKind int

const (
	containerUnknown containerKind = iota
	containerChupy
	containerChupyDir
)

func detectContainer(payload []byte) containerKind {
	if len(payload) >= 8 && string(payload[:8]) == "CHUPYDIR" {
		return containerChupyDir
	}
	if len(payload) >= 5 && string(payload[:5]) == "CHUPY" {
		return containerChupy
	}
	return containerUnknown
}

func stripChupyExt(path string) string {
	if ext := filepath.Ext(path); ext == ".chupy" || ext == ".chupydir" {
		return path[:len(path)-len(ext)]
	}
	return path
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return e.Wrapf(err, "create output directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return e.Wrapf(err, "write output %s", path)
	}
	return nil
}
