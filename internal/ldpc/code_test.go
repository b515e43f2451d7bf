package ldpc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallMatrix is a hand-sized 3x8 parity-check matrix used throughout
// the encoder tests.
func smallMatrix(t *testing.T) *Matrix {
	t.Helper()
	m, err := NewMatrix([][]int{{0, 1, 3}, {1, 2, 4}, {0, 3, 5}}, 8)
	require.NoError(t, err)
	return m
}

func randomInfo(rng *rand.Rand, k int) []byte {
	info := make([]byte, k)
	for i := range info {
		info[i] = byte(rng.Intn(2))
	}
	return info
}

func TestNewCode_Dimensions(t *testing.T) {
	code, err := NewCode(smallMatrix(t))
	require.NoError(t, err)
	assert.Equal(t, 8, code.N())
	assert.Equal(t, 5, code.K())
	assert.InDelta(t, 0.625, code.Rate(), 1e-15)
}

func TestNewCode_RankDeficient(t *testing.T) {
	// Third row is the sum of the first two.
	m, err := NewMatrix([][]int{{0, 1}, {1, 2}, {0, 2}}, 6)
	require.NoError(t, err)
	_, err = NewCode(m)
	assert.Error(t, err)
}

func TestEncode_ZeroInfoGivesZeroCodeword(t *testing.T) {
	code, err := NewCode(smallMatrix(t))
	require.NoError(t, err)
	enc := NewEncoder(code)

	cw, err := enc.Encode(make([]byte, code.K()))
	require.NoError(t, err)
	assert.Equal(t, make([]byte, code.N()), cw)
}

func TestEncode_SatisfiesAllChecks(t *testing.T) {
	h := smallMatrix(t)
	code, err := NewCode(h)
	require.NoError(t, err)
	enc := NewEncoder(code)

	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		cw, err := enc.Encode(randomInfo(rng, code.K()))
		require.NoError(t, err)
		w, err := h.Syndrome(cw)
		require.NoError(t, err)
		assert.Zero(t, w, "trial %d produced an invalid codeword", trial)
	}
}

func TestEncode_SatisfiesGeneratedMatrix(t *testing.T) {
	h, err := Generate(96, 0.5, 17)
	require.NoError(t, err)
	code, err := NewCode(h)
	require.NoError(t, err)
	enc := NewEncoder(code)

	rng := rand.New(rand.NewSource(12))
	for trial := 0; trial < 20; trial++ {
		cw, err := enc.Encode(randomInfo(rng, code.K()))
		require.NoError(t, err)
		w, err := h.Syndrome(cw)
		require.NoError(t, err)
		assert.Zero(t, w)
	}
}

func TestEncode_LengthMismatch(t *testing.T) {
	code, err := NewCode(smallMatrix(t))
	require.NoError(t, err)
	enc := NewEncoder(code)

	_, err = enc.Encode(make([]byte, code.K()-1))
	assert.ErrorIs(t, err, ErrConfigMismatch)
	_, err = enc.Encode(make([]byte, code.K()+1))
	assert.ErrorIs(t, err, ErrConfigMismatch)
}

func TestEncode_Deterministic(t *testing.T) {
	h := smallMatrix(t)
	codeA, err := NewCode(h)
	require.NoError(t, err)
	codeB, err := NewCode(h)
	require.NoError(t, err)

	info := []byte{1, 0, 1, 1, 0}
	a, err := NewEncoder(codeA).Encode(info)
	require.NoError(t, err)
	b, err := NewEncoder(codeB).Encode(info)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMessage_InvertsEncode(t *testing.T) {
	code, err := NewCode(smallMatrix(t))
	require.NoError(t, err)
	enc := NewEncoder(code)

	rng := rand.New(rand.NewSource(13))
	for trial := 0; trial < 50; trial++ {
		info := randomInfo(rng, code.K())
		cw, err := enc.Encode(info)
		require.NoError(t, err)
		got, err := code.Message(cw)
		require.NoError(t, err)
		assert.Equal(t, info, got)
	}

	_, err = code.Message(make([]byte, code.N()-1))
	assert.ErrorIs(t, err, ErrConfigMismatch)
}
