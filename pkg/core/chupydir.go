package core

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"chupy/pkg/dictcoder"
	"chupy/pkg/prefixcoder"

	e "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	chupyDirMagic      = "CHUPYDIR"
	chupyDirVersion    = uint32(1)
	chupyDirHeaderSize = 8 + 4 + 4 + 8 + 8
)

// FileEntry is one archived file's metadata: its relative path and the
// (offset, size) slice it occupies in the concatenated plaintext.
type FileEntry struct {
	RelPath string
	Offset  uint64
	Size    uint64
}

// DirFile is a single file's path and content, the unit CompressDirEntries
// and ExtractDirEntries operate on. The archive core stays byte-in
// byte-out; directory walking and disk writes live in the
// CompressDirectory/ExtractArchive wrappers below, not here.
type DirFile struct {
	RelPath string
	Content []byte
}

// CompressDirEntries concatenates files' contents (sorted by relative
// path, for determinism), builds the metadata block, and produces a
// complete .chupydir payload.
func CompressDirEntries(files []DirFile) ([]byte, error) {
	sorted := append([]DirFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	var concatenated []byte
	entries := make([]FileEntry, len(sorted))
	var offset uint64
	for i, f := range sorted {
		entries[i] = FileEntry{RelPath: f.RelPath, Offset: offset, Size: uint64(len(f.Content))}
		concatenated = append(concatenated, f.Content...)
		offset += uint64(len(f.Content))
	}

	metadata := encodeMetadata(entries)

	dictStream := dictcoder.Encode(concatenated)
	block, err := prefixcoder.Encode(dictStream, prefixcoder.MaxAlphabet, prefixcoder.DefaultMaxLen)
	if err != nil {
		return nil, e.Wrap(err, "compress dir: prefix encode")
	}

	header := make([]byte, chupyDirHeaderSize)
	copy(header[0:8], chupyDirMagic)
	binary.LittleEndian.PutUint32(header[8:12], chupyDirVersion)
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(entries)))
	binary.LittleEndian.PutUint64(header[16:24], offset)
	binary.LittleEndian.PutUint64(header[24:32], uint64(len(metadata)))

	out := make([]byte, 0, len(header)+len(metadata)+len(block))
	out = append(out, header...)
	out = append(out, metadata...)
	out = append(out, block...)
	return out, nil
}

// ExtractDirEntries reverses CompressDirEntries.
func ExtractDirEntries(payload []byte) ([]DirFile, error) {
	if len(payload) < chupyDirHeaderSize {
		return nil, e.Wrap(ErrTruncated, "chupydir header")
	}
	if string(payload[0:8]) != chupyDirMagic {
		return nil, e.Wrap(ErrBadMagic, "chupydir header")
	}
	version := binary.LittleEndian.Uint32(payload[8:12])
	if version != chupyDirVersion {
		return nil, e.Wrap(ErrBadVersion, "chupydir header")
	}
	fileCount := binary.LittleEndian.Uint32(payload[12:16])
	totalUncompressed := binary.LittleEndian.Uint64(payload[16:24])
	metaSize := binary.LittleEndian.Uint64(payload[24:32])

	metaStart := chupyDirHeaderSize
	metaEnd := metaStart + int(metaSize)
	if metaEnd > len(payload) {
		return nil, e.Wrap(ErrTruncated, "chupydir metadata")
	}
	entries, err := decodeMetadata(payload[metaStart:metaEnd], fileCount)
	if err != nil {
		return nil, err
	}

	block := payload[metaEnd:]
	dictStream, err := prefixcoder.Decode(block)
	if err != nil {
		return nil, e.Wrap(ErrCorrupt, "extract dir: prefix decode: "+err.Error())
	}
	concatenated, err := dictcoder.Decode(dictStream)
	if err != nil {
		return nil, e.Wrap(ErrCorrupt, "extract dir: dict decode: "+err.Error())
	}
	if uint64(len(concatenated)) != totalUncompressed {
		return nil, e.Wrap(ErrCorrupt, "extract dir: size mismatch")
	}

	files := make([]DirFile, len(entries))
	for i, ent := range entries {
		end := ent.Offset + ent.Size
		if end > uint64(len(concatenated)) {
			return nil, e.Wrap(ErrCorrupt, "extract dir: entry out of range")
		}
		files[i] = DirFile{RelPath: ent.RelPath, Content: concatenated[ent.Offset:end]}
	}
	return files, nil
}

func encodeMetadata(entries []FileEntry) []byte {
	var out []byte
	for _, ent := range entries {
		pathBytes := []byte(ent.RelPath)
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(pathBytes)))
		out = append(out, lenBuf[:]...)
		out = append(out, pathBytes...)
		var offSize [16]byte
		binary.LittleEndian.PutUint64(offSize[0:8], ent.Offset)
		binary.LittleEndian.PutUint64(offSize[8:16], ent.Size)
		out = append(out, offSize[:]...)
	}
	return out
}

func decodeMetadata(buf []byte, count uint32) ([]FileEntry, error) {
	entries := make([]FileEntry, 0, count)
	pos := 0
	for i := uint32(0); i < count; i++ {
		if pos+2 > len(buf) {
			return nil, e.Wrap(ErrTruncated, "chupydir metadata entry")
		}
		pathLen := int(binary.LittleEndian.Uint16(buf[pos : pos+2]))
		pos += 2
		if pos+pathLen+16 > len(buf) {
			return nil, e.Wrap(ErrTruncated, "chupydir metadata entry")
		}
		relPath := string(buf[pos : pos+pathLen])
		pos += pathLen
		offset := binary.LittleEndian.Uint64(buf[pos : pos+8])
		size := binary.LittleEndian.Uint64(buf[pos+8 : pos+16])
		pos += 16
		entries = append(entries, FileEntry{RelPath: relPath, Offset: offset, Size: size})
	}
	return entries, nil
}

// CompressDirectory walks root, reading the files concurrently, and
// returns a complete .chupydir payload.
func CompressDirectory(root string) ([]byte, error) {
	var relPaths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			relPaths = append(relPaths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, e.Wrapf(err, "walk directory %s", root)
	}

	files := make([]DirFile, len(relPaths))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range relPaths {
		i, rel := i, rel
		g.Go(func() error {
			content, err := os.ReadFile(filepath.Join(root, rel))
			if err != nil {
				return e.Wrapf(err, "read %s", rel)
			}
			files[i] = DirFile{RelPath: rel, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return CompressDirEntries(files)
}

// ExtractArchive decodes a .chupydir payload and writes every file under
// destDir, creating parent directories as needed. Per-file writes run
// concurrently.
func ExtractArchive(payload []byte, destDir string) error {
	files, err := ExtractDirEntries(payload)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, f := range files {
		f := f
		g.Go(func() error {
			destPath := filepath.Join(destDir, f.RelPath)
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				return e.Wrapf(err, "create dir for %s", f.RelPath)
			}
			if err := os.WriteFile(destPath, f.Content, 0o644); err != nil {
				return e.Wrapf(err, "write %s", f.RelPath)
			}
			return nil
		})
	}
	return g.Wait()
}
