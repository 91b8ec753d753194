package prefixcoder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripEmpty(t *testing.T) {
	encoded, err := Encode(nil, 256, 0)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestRoundTripSingleSymbol(t *testing.T) {
	encoded, err := Encode([]byte{0x41}, 256, 0)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, []byte{0x41}, decoded)
}

func TestRoundTripVariedAlphabet(t *testing.T) {
	symbols := []byte("the quick brown fox jumps over the lazy dog, again and again")
	encoded, err := Encode(symbols, 256, 0)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, symbols, decoded)
}

func TestEncodeRejectsOutOfRangeSymbol(t *testing.T) {
	_, err := Encode([]byte{5}, 4, 0)
	require.ErrorIs(t, err, ErrSymbolOutOfRange)
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	_, err := Decode([]byte{0x01})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestKraftValidityAcrossFrequencyShapes(t *testing.T) {
	cases := [][]uint64{
		{0, 0, 0, 0},
		{1, 0, 0, 0},
		{5, 5, 5, 5},
		{1, 1, 2, 3, 5, 8, 13, 21, 1, 1, 1, 1, 1, 1, 1, 1},
		{1000000, 1, 1, 1, 1, 1, 1, 1},
	}
	for _, freq := range cases {
		table := BuildCodeTable(freq, 4)
		var sum uint64
		limit := uint64(1) << table.MaxLen
		for _, l := range table.Lengths {
			if l == 0 {
				continue
			}
			sum += uint64(1) << (table.MaxLen - l)
		}
		require.LessOrEqual(t, sum, limit)
	}
}

func TestLengthLimitRespected(t *testing.T) {
	freq := make([]uint64, 32)
	for i := range freq {
		freq[i] = uint64(i + 1)
	}
	table := BuildCodeTable(freq, 4)
	for _, l := range table.Lengths {
		require.LessOrEqual(t, l, uint8(4))
	}
}

func TestDecodeRejectsCorruptBitstream(t *testing.T) {
	encoded, err := Encode([]byte("abc"), 256, 0)
	require.NoError(t, err)
	// The code for "abc" is complete (lengths 1, 2, 2), so flipping bits
	// still parses as valid codes. Drop the packed bitstream body instead:
	// the bitstream then ends before the declared symbol count is reached.
	corrupted := append([]byte(nil), encoded[:len(encoded)-1]...)
	_, err = Decode(corrupted)
	require.ErrorIs(t, err, ErrCorrupt)
}
