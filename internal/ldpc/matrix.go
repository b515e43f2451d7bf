package ldpc

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	mat "github.com/nathanhack/sparsemat"
)

// Matrix is a sparse binary parity-check matrix. Rows are check nodes,
// columns are variable (bit) nodes. A Matrix is immutable once built and
// may be shared freely across goroutines.
type Matrix struct {
	rows int
	cols int

	// Adjacency lists, sorted and deduplicated. checkIdx[i] holds the
	// variable nodes of check i; varIdx[j] holds the checks touching
	// variable j.
	checkIdx [][]int
	varIdx   [][]int

	csr mat.SparseMat
}

// NewMatrix builds a parity-check matrix from per-check column index
// lists. Indices are sorted and deduplicated; out-of-range indices are
// rejected.
func NewMatrix(checks [][]int, cols int) (*Matrix, error) {
	if cols <= 0 {
		return nil, fmt.Errorf("ldpc: column count %d must be positive", cols)
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("ldpc: matrix needs at least one check")
	}
	if len(checks) >= cols {
		return nil, fmt.Errorf("ldpc: %d checks leave no information columns for %d columns", len(checks), cols)
	}

	m := &Matrix{
		rows:     len(checks),
		cols:     cols,
		checkIdx: make([][]int, len(checks)),
		varIdx:   make([][]int, cols),
	}
	for i, row := range checks {
		for _, c := range row {
			if c < 0 || c >= cols {
				return nil, fmt.Errorf("ldpc: check %d references column %d outside [0,%d)", i, c, cols)
			}
		}
		dedup := append([]int(nil), row...)
		sort.Ints(dedup)
		dedup = compactInts(dedup)
		if len(dedup) == 0 {
			return nil, fmt.Errorf("ldpc: check %d is empty", i)
		}
		m.checkIdx[i] = dedup
		for _, c := range dedup {
			m.varIdx[c] = append(m.varIdx[c], i)
		}
	}

	csr := mat.CSRMat(m.rows, m.cols)
	for j := 0; j < m.cols; j++ {
		vec := mat.CSRVec(m.rows)
		for _, i := range m.varIdx[j] {
			vec.Set(i, 1)
		}
		csr.SetColumn(j, vec)
	}
	m.csr = csr
	return m, nil
}

func compactInts(s []int) []int {
	out := s[:0]
	for i, v := range s {
		if i > 0 && v == s[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Generate builds a pseudo-random parity-check matrix for block length n
// and the given code rate. The parity part is a staircase (dual-diagonal)
// structure, so the matrix is always full rank and encodable; the
// information part has column weight 3 with rows drawn from a seeded
// source. Identical (n, rate, seed) triples yield identical matrices.
func Generate(n int, rate float64, seed int64) (*Matrix, error) {
	if n <= 0 || n%2 != 0 {
		return nil, fmt.Errorf("ldpc: block length %d must be positive and even", n)
	}
	if rate <= 0 || rate >= 1 {
		return nil, fmt.Errorf("ldpc: code rate %v outside (0,1)", rate)
	}
	m := n - int(float64(n)*rate+0.5)
	if m < 2 {
		return nil, fmt.Errorf("ldpc: rate %v leaves only %d checks for n=%d", rate, m, n)
	}
	k := n - m

	const colWeight = 3
	w := colWeight
	if w > m {
		w = m
	}

	rng := rand.New(rand.NewSource(seed))
	checks := make([][]int, m)

	// Staircase parity part over columns k..n-1: check i covers parity
	// columns i and i-1.
	for i := 0; i < m; i++ {
		checks[i] = append(checks[i], k+i)
		if i > 0 {
			checks[i] = append(checks[i], k+i-1)
		}
	}

	// Information part: each column picks w distinct checks, favoring
	// the lightest rows to keep check degrees balanced.
	deg := make([]int, m)
	order := make([]int, m)
	for j := 0; j < k; j++ {
		for i := range order {
			order[i] = i
		}
		rng.Shuffle(m, func(a, b int) { order[a], order[b] = order[b], order[a] })
		sort.SliceStable(order, func(a, b int) bool { return deg[order[a]] < deg[order[b]] })
		for _, i := range order[:w] {
			checks[i] = append(checks[i], j)
			deg[i]++
		}
	}

	return NewMatrix(checks, n)
}

// Rows returns the number of check nodes.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of variable nodes (the codeword length N).
func (m *Matrix) Cols() int { return m.cols }

// CheckNeighbors returns the sorted variable indices of check i.
// The returned slice is shared and must not be modified.
func (m *Matrix) CheckNeighbors(i int) []int { return m.checkIdx[i] }

// VarNeighbors returns the sorted check indices touching variable j.
// The returned slice is shared and must not be modified.
func (m *Matrix) VarNeighbors(j int) []int { return m.varIdx[j] }

// Syndrome computes H·bits mod 2 and returns its Hamming weight.
// A weight of zero means bits is a valid codeword.
func (m *Matrix) Syndrome(bits []byte) (int, error) {
	if len(bits) != m.cols {
		return 0, fmt.Errorf("ldpc: %w: codeword length %d, matrix has %d columns", ErrConfigMismatch, len(bits), m.cols)
	}
	vec := mat.CSRVec(m.cols)
	for j, b := range bits {
		if b&1 == 1 {
			vec.Set(j, 1)
		}
	}
	syn := mat.CSRVec(m.rows)
	syn.MatMul(m.csr, vec)

	weight := 0
	for i := 0; i < m.rows; i++ {
		if syn.At(i) == 1 {
			weight++
		}
	}
	return weight, nil
}

type matrixFile struct {
	Columns int     `json:"columns"`
	Checks  [][]int `json:"checks"`
}

// Load reads a matrix persisted by Save: a JSON document with the column
// count and the per-check column index lists.
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load matrix: %w", err)
	}
	var mf matrixFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("load matrix %s: %w", path, err)
	}
	return NewMatrix(mf.Checks, mf.Columns)
}

// Save writes the matrix as JSON row index lists.
func (m *Matrix) Save(path string) error {
	data, err := json.MarshalIndent(matrixFile{Columns: m.cols, Checks: m.checkIdx}, "", "  ")
	if err != nil {
		return fmt.Errorf("save matrix: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
