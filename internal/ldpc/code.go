package ldpc

import (
	"errors"
	"fmt"

	mat "github.com/nathanhack/sparsemat"
)

// ErrConfigMismatch reports an input whose size disagrees with the code
// configuration.
var ErrConfigMismatch = errors.New("configuration mismatch")

// Code couples a parity-check matrix with the systematic generator
// derived from it. Construction performs Gaussian elimination over GF(2)
// once; the resulting Code is immutable and shared by encoder and
// decoder across all frames.
type Code struct {
	h *Matrix
	g mat.SparseMat // K x N, systematic in permuted column order

	// order maps permuted column positions to original H columns.
	// Positions [0,K) carry information bits, [K,N) parity bits.
	order []int
	k     int
}

// NewCode derives a systematic encoder form from h. It fails if h does
// not have full row rank, since no generator exists for such a matrix.
func NewCode(h *Matrix) (*Code, error) {
	m, n := h.Rows(), h.Cols()
	k := n - m

	// Packed copy of H, one uint64 word row segment per 64 columns.
	words := (n + 63) / 64
	rows := make([][]uint64, m)
	for i := 0; i < m; i++ {
		row := make([]uint64, words)
		for _, j := range h.CheckNeighbors(i) {
			row[j>>6] |= 1 << (uint(j) & 63)
		}
		rows[i] = row
	}

	getBit := func(row []uint64, j int) bool { return row[j>>6]&(1<<(uint(j)&63)) != 0 }

	// Gauss-Jordan to reduced row echelon form, tracking pivot columns.
	pivotCols := make([]int, 0, m)
	isPivot := make([]bool, n)
	r := 0
	for c := 0; c < n && r < m; c++ {
		p := -1
		for i := r; i < m; i++ {
			if getBit(rows[i], c) {
				p = i
				break
			}
		}
		if p == -1 {
			continue
		}
		rows[r], rows[p] = rows[p], rows[r]
		for i := 0; i < m; i++ {
			if i == r {
				continue
			}
			if getBit(rows[i], c) {
				for w := 0; w < words; w++ {
					rows[i][w] ^= rows[r][w]
				}
			}
		}
		pivotCols = append(pivotCols, c)
		isPivot[c] = true
		r++
	}
	if r < m {
		return nil, fmt.Errorf("ldpc: parity-check matrix has rank %d < %d, no generator exists", r, m)
	}

	// Permuted order: free (information) columns first, pivot (parity)
	// columns last, in pivot-row order.
	order := make([]int, 0, n)
	for c := 0; c < n; c++ {
		if !isPivot[c] {
			order = append(order, c)
		}
	}
	order = append(order, pivotCols...)

	// G = [I_K | P^T] where P[i][j] is row i of the reduced H at free
	// column j. Built column by column.
	g := mat.CSRMat(k, n)
	for j := 0; j < k; j++ {
		vec := mat.CSRVec(k)
		vec.Set(j, 1)
		g.SetColumn(j, vec)
	}
	for i := 0; i < m; i++ {
		vec := mat.CSRVec(k)
		for j := 0; j < k; j++ {
			if getBit(rows[i], order[j]) {
				vec.Set(j, 1)
			}
		}
		g.SetColumn(k+i, vec)
	}

	return &Code{h: h, g: g, order: order, k: k}, nil
}

// H returns the shared parity-check matrix.
func (c *Code) H() *Matrix { return c.h }

// N returns the codeword length.
func (c *Code) N() int { return c.h.Cols() }

// K returns the information block length.
func (c *Code) K() int { return c.k }

// Rate returns K/N.
func (c *Code) Rate() float64 { return float64(c.k) / float64(c.N()) }

// Message extracts the information bits from a codeword in H column
// order, inverting the systematic placement done by the encoder.
func (c *Code) Message(codeword []byte) ([]byte, error) {
	if len(codeword) != c.N() {
		return nil, fmt.Errorf("ldpc: %w: codeword length %d, want %d", ErrConfigMismatch, len(codeword), c.N())
	}
	info := make([]byte, c.k)
	for j := 0; j < c.k; j++ {
		info[j] = codeword[c.order[j]] & 1
	}
	return info, nil
}

// Encoder maps information blocks to codewords satisfying H·c = 0.
// It is a pure function of its input and the fixed Code.
type Encoder struct {
	code *Code
}

// NewEncoder creates an encoder for the given code.
func NewEncoder(code *Code) *Encoder {
	return &Encoder{code: code}
}

// Encode maps K information bits (one 0/1 byte per bit) to an N-bit
// codeword in H column order.
func (e *Encoder) Encode(info []byte) ([]byte, error) {
	k, n := e.code.k, e.code.N()
	if len(info) != k {
		return nil, fmt.Errorf("ldpc: %w: information block length %d, code expects %d", ErrConfigMismatch, len(info), k)
	}

	msg := mat.CSRVec(k)
	for j, b := range info {
		if b&1 == 1 {
			msg.Set(j, 1)
		}
	}
	perm := mat.DOKVec(n)
	perm.MulMat(msg, e.code.g)

	// Undo the column permutation so the codeword lines up with H.
	out := make([]byte, n)
	for pos, col := range e.code.order {
		out[col] = byte(perm.At(pos))
	}
	return out, nil
}
