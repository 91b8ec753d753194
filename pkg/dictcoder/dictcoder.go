// Package dictcoder implements the sliding-window dictionary coding stage:
// a greedy longest-match LZ77-style scan over a 32768-byte window
// producing a stream of literal and back-reference tokens, serialized in
// a compact self-delimiting byte format.
package dictcoder

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	// WindowSize is the maximum number of trailing input bytes kept
	// available as match candidates.
	WindowSize = 32768
	// LookaheadSize is the maximum match length considered per position.
	LookaheadSize = 258
	// MinMatchLen is the shortest back-reference the encoder will emit;
	// shorter runs are cheaper as a literal.
	MinMatchLen = 3

	tagEscapedLiteral = 0xFF
	tagMatch          = 0x80
	shortLiteralMax   = 0x7F

	// parallelSpanMin is the window span below which the match search
	// runs serially; goroutine overhead dwarfs the scan under it.
	parallelSpanMin = 4096
)

// ErrCorrupt is returned by Decode when the token stream cannot be parsed:
// a match with a zero distance, a distance beyond the bytes produced so
// far, or a zero length.
var ErrCorrupt = errors.New("dictcoder: corrupt token stream")

// Token is a single literal or back-reference record.
type Token struct {
	Literal  bool
	Byte     byte
	Length   int // [MinMatchLen, LookaheadSize], match only
	Distance int // [1, WindowSize], match only
}

// Encode scans input with a greedy longest-match sliding-window search and
// returns the serialized token stream.
func Encode(input []byte) []byte {
	out := make([]byte, 0, len(input))
	cursor := 0
	n := len(input)

	for cursor < n {
		windowStart := cursor - WindowSize
		if windowStart < 0 {
			windowStart = 0
		}
		maxLook := LookaheadSize
		if n-cursor < maxLook {
			maxLook = n - cursor
		}

		length, distance := findBestMatch(input, windowStart, cursor, maxLook)
		if length >= MinMatchLen {
			out = appendMatch(out, length, distance)
			cursor += length
		} else {
			out = appendLiteral(out, input[cursor])
			cursor++
		}
	}
	return out
}

// findBestMatch searches window positions [windowStart, cursor) for the
// longest prefix of input[cursor:cursor+maxLook] shared with a substring
// starting in the window, breaking ties toward the smallest distance. A
// candidate may run past the cursor into the lookahead (length > distance),
// which is what lets long identical runs collapse into a single match.
//
// Large windows are sharded across disjoint position ranges and reduced
// with a deterministic merge rule (max length, then min distance), so the
// result is independent of the number of shards used.
func findBestMatch(input []byte, windowStart, cursor, maxLook int) (length, distance int) {
	span := cursor - windowStart
	if span == 0 || maxLook == 0 {
		return 0, 0
	}

	workers := runtime.GOMAXPROCS(0)
	if span < parallelSpanMin || workers < 2 {
		return scanRange(input, windowStart, cursor, cursor, maxLook)
	}
	if workers > span {
		workers = span
	}
	chunk := (span + workers - 1) / workers

	type result struct {
		length   int
		distance int
	}
	results := make([]result, workers)

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		lo := windowStart + w*chunk
		hi := lo + chunk
		if hi > cursor {
			hi = cursor
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			l, d := scanRange(input, lo, hi, cursor, maxLook)
			results[w] = result{length: l, distance: d}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.length > length || (r.length == length && r.length > 0 && r.distance < distance) {
			length, distance = r.length, r.distance
		}
	}
	return length, distance
}

// scanRange scans candidate start positions [lo, hi) nearest-first, so a
// strict length comparison resolves ties toward the smallest distance.
func scanRange(input []byte, lo, hi, cursor, maxLook int) (length, distance int) {
	for i := hi - 1; i >= lo; i-- {
		ml := 0
		for ml < maxLook && input[i+ml] == input[cursor+ml] {
			ml++
		}
		if ml > length {
			length = ml
			distance = cursor - i
			if ml == maxLook {
				break
			}
		}
	}
	return length, distance
}

func appendLiteral(out []byte, b byte) []byte {
	if b <= shortLiteralMax {
		return append(out, b)
	}
	return append(out, tagEscapedLiteral, b)
}

func appendMatch(out []byte, length, distance int) []byte {
	out = append(out, tagMatch)
	if length < 255 {
		out = append(out, byte(length))
	} else {
		out = append(out, 0xFF, byte(length), byte(length>>8))
	}
	out = append(out, byte(distance), byte(distance>>8))
	return out
}

// Decode reverses Encode: literals are appended directly; matches copy
// length bytes starting distance bytes before the current output end, one
// byte at a time so self-overlapping runs (length > distance) expand
// correctly.
func Decode(tokens []byte) ([]byte, error) {
	out := make([]byte, 0, len(tokens))
	i := 0
	n := len(tokens)

	for i < n {
		tag := tokens[i]
		i++
		switch {
		case tag <= shortLiteralMax:
			out = append(out, tag)
		case tag == tagEscapedLiteral:
			if i >= n {
				return nil, fmt.Errorf("%w: truncated escaped literal", ErrCorrupt)
			}
			out = append(out, tokens[i])
			i++
		case tag == tagMatch:
			if i >= n {
				return nil, fmt.Errorf("%w: truncated match length", ErrCorrupt)
			}
			length := int(tokens[i])
			i++
			if length == 255 {
				if i+1 >= n {
					return nil, fmt.Errorf("%w: truncated extended length", ErrCorrupt)
				}
				length = int(tokens[i]) | int(tokens[i+1])<<8
				i += 2
			}
			if i+1 >= n {
				return nil, fmt.Errorf("%w: truncated distance", ErrCorrupt)
			}
			distance := int(tokens[i]) | int(tokens[i+1])<<8
			i += 2

			if distance == 0 || length == 0 || distance > len(out) {
				return nil, ErrCorrupt
			}
			start := len(out) - distance
			for k := 0; k < length; k++ {
				out = append(out, out[start+k])
			}
		default:
			return nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrCorrupt, tag)
		}
	}
	return out, nil
}
