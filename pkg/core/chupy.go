// Package core implements the three byte-exact container formats
// (single-file .chupy, multi-file .chupydir, encrypted file) that glue
// bitio, hashdigest, dictcoder, prefixcoder and streamcipher into
// end-to-end compress/decompress/encrypt/decrypt operations.
package core

import (
	"encoding/binary"

	"chupy/pkg/dictcoder"
	"chupy/pkg/prefixcoder"

	e "github.com/pkg/errors"
)

const (
	chupyMagic      = "CHUPY"
	chupyVersion    = uint16(1)
	chupyExtMaxLen  = 15
	chupyExtField   = 16
	chupyHeaderSize = 8 /* magic+pad */ + 2 /* version */ + 1 /* extlen */ + chupyExtField
)

// ChupyHeader is the fixed 27-byte header prepended to every .chupy
// file: 5-byte magic, 3 alignment pad bytes, u16 LE version, u8
// extension length, then a 16-byte extension field.
type ChupyHeader struct {
	Version   uint16
	Extension string // original extension including leading dot, <= 15 bytes
}

// writeChupyHeader serializes h into its 27-byte wire form.
func writeChupyHeader(h ChupyHeader) []byte {
	buf := make([]byte, chupyHeaderSize)
	copy(buf[0:5], chupyMagic)
	// buf[5:8] stay zero (alignment padding)
	binary.LittleEndian.PutUint16(buf[8:10], chupyVersion)

	ext := h.Extension
	if len(ext) > chupyExtMaxLen {
		ext = ext[:chupyExtMaxLen]
	}
	buf[10] = byte(len(ext))
	copy(buf[11:11+len(ext)], ext)
	return buf
}

// readChupyHeader parses and validates the 27-byte header at the start of
// data and returns it; the payload that follows starts at chupyHeaderSize.
func readChupyHeader(data []byte) (ChupyHeader, error) {
	if len(data) < chupyHeaderSize {
		return ChupyHeader{}, e.Wrap(ErrTruncated, "chupy header")
	}
	if string(data[0:5]) != chupyMagic {
		return ChupyHeader{}, e.Wrap(ErrBadMagic, "chupy header")
	}
	version := binary.LittleEndian.Uint16(data[8:10])
	if version != chupyVersion {
		return ChupyHeader{}, e.Wrap(ErrBadVersion, "chupy header")
	}
	extLen := int(data[10])
	if extLen > chupyExtMaxLen {
		return ChupyHeader{}, e.Wrap(ErrCorrupt, "chupy header: extension length out of range")
	}
	ext := string(data[11 : 11+extLen])
	return ChupyHeader{Version: version, Extension: ext}, nil
}

// CompressFile produces a complete .chupy payload (header + prefix-coded
// block over the DictCoder-encoded bytes of plaintext) for a file whose
// original extension is ext (e.g. ".txt", may be empty).
func CompressFile(plaintext []byte, ext string) ([]byte, error) {
	dictStream := dictcoder.Encode(plaintext)
	block, err := prefixcoder.Encode(dictStream, prefixcoder.MaxAlphabet, prefixcoder.DefaultMaxLen)
	if err != nil {
		return nil, e.Wrap(err, "compress file: prefix encode")
	}

	header := writeChupyHeader(ChupyHeader{Version: chupyVersion, Extension: ext})
	out := make([]byte, 0, len(header)+len(block))
	out = append(out, header...)
	out = append(out, block...)
	return out, nil
}

// DecompressFile reverses CompressFile, returning the original plaintext
// and the extension recorded in the header.
func DecompressFile(payload []byte) (plaintext []byte, ext string, err error) {
	header, err := readChupyHeader(payload)
	if err != nil {
		return nil, "", err
	}
	dictStream, err := prefixcoder.Decode(payload[chupyHeaderSize:])
	if err != nil {
		return nil, "", e.Wrap(ErrCorrupt, "decompress file: prefix decode: "+err.Error())
	}
	plaintext, err = dictcoder.Decode(dictStream)
	if err != nil {
		return nil, "", e.Wrap(ErrCorrupt, "decompress file: dict decode: "+err.Error())
	}
	return plaintext, header.Extension, nil
}
