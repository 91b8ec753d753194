package core

import "errors"

// Errors surfaced to the CLI as single-line messages.
var (
	// ErrInvalidArgs signals an invalid parameter combination.
	ErrInvalidArgs = errors.New("invalid arguments")
	// ErrTruncated signals a container shorter than its header requires.
	ErrTruncated = errors.New("truncated container")
	// ErrBadMagic signals a container whose magic bytes don't match.
	ErrBadMagic = errors.New("bad magic")
	// ErrBadVersion signals a container whose version isn't supported.
	ErrBadVersion = errors.New("bad version")
	// ErrCorrupt signals a decoder that cannot make progress.
	ErrCorrupt = errors.New("corrupt container")
	// ErrUnsupportedAlgorithm signals an algorithm selector outside the accepted set.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)
