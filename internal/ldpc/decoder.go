package ldpc

import (
	"fmt"
	"math"
)

// Algorithm selects the check-node update rule.
type Algorithm int

const (
	// SumProduct is the exact tanh-rule belief propagation update.
	SumProduct Algorithm = iota
	// MinSum approximates the sum-product rule with a sign/minimum
	// computation, avoiding hyperbolic evaluations.
	MinSum
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case SumProduct:
		return "sum-product"
	case MinSum:
		return "min-sum"
	default:
		return "unknown"
	}
}

// Result is the outcome of one decode attempt. Converged=false is a
// normal outcome at low SNR, not an error; callers count it as a frame
// error. A Result is never mutated after Decode returns.
type Result struct {
	// Bits holds the final hard-decision codeword in H column order,
	// valid whether or not the decoder converged.
	Bits []byte
	// Converged reports whether the syndrome reached zero.
	Converged bool
	// Iterations is the number of message-passing iterations performed.
	// A clean input converges at 0.
	Iterations int
	// SyndromeWeight is the number of unsatisfied checks at exit.
	SyndromeWeight int
}

// Decoder runs iterative belief propagation over the parity-check
// graph. Decode allocates its working state per call, so one Decoder
// may be used concurrently from multiple goroutines.
type Decoder struct {
	h       *Matrix
	alg     Algorithm
	maxIter int
	clamp   float64
}

// NewDecoder creates a decoder. maxIter bounds the iteration count and
// clamp bounds all belief and message magnitudes.
func NewDecoder(h *Matrix, alg Algorithm, maxIter int, clamp float64) (*Decoder, error) {
	if maxIter <= 0 {
		return nil, fmt.Errorf("ldpc: max iterations %d must be positive", maxIter)
	}
	if clamp <= 0 {
		return nil, fmt.Errorf("ldpc: LLR clamp %v must be positive", clamp)
	}
	return &Decoder{h: h, alg: alg, maxIter: maxIter, clamp: clamp}, nil
}

// Decode consumes one LLR per codeword bit (positive = bit 0) and runs
// belief propagation until the syndrome is zero or the iteration cap is
// reached. Only a length mismatch is an error.
func (d *Decoder) Decode(llr []float64) (Result, error) {
	n := d.h.Cols()
	m := d.h.Rows()
	if len(llr) != n {
		return Result{}, fmt.Errorf("ldpc: %w: %d LLRs for %d columns", ErrConfigMismatch, len(llr), n)
	}

	// Per-edge check-to-variable messages, one slice per check aligned
	// with CheckNeighbors ordering.
	msgs := make([][]float64, m)
	for i := 0; i < m; i++ {
		msgs[i] = make([]float64, len(d.h.CheckNeighbors(i)))
	}

	belief := make([]float64, n)
	hard := make([]byte, n)

	decide := func() int {
		for j := 0; j < n; j++ {
			if belief[j] < 0 {
				hard[j] = 1
			} else {
				hard[j] = 0
			}
		}
		weight := 0
		for i := 0; i < m; i++ {
			var parity byte
			for _, v := range d.h.CheckNeighbors(i) {
				parity ^= hard[v]
			}
			if parity != 0 {
				weight++
			}
		}
		return weight
	}

	refreshBeliefs := func() {
		for j := 0; j < n; j++ {
			belief[j] = clampTo(llr[j], d.clamp)
		}
		for i := 0; i < m; i++ {
			for e, v := range d.h.CheckNeighbors(i) {
				belief[v] += msgs[i][e]
			}
		}
		for j := 0; j < n; j++ {
			belief[j] = clampTo(belief[j], d.clamp)
		}
	}

	// Iteration 0: hard decisions on the channel LLRs alone. A clean
	// frame terminates here.
	refreshBeliefs()
	weight := decide()

	iter := 0
	for weight != 0 && iter < d.maxIter {
		d.updateChecks(msgs, belief)
		refreshBeliefs()
		weight = decide()
		iter++
	}

	return Result{
		Bits:           append([]byte(nil), hard...),
		Converged:      weight == 0,
		Iterations:     iter,
		SyndromeWeight: weight,
	}, nil
}

// updateChecks recomputes every check-to-variable message from the
// current beliefs (flooding schedule). The variable-to-check message on
// an edge is the belief minus the incoming message on that edge.
func (d *Decoder) updateChecks(msgs [][]float64, belief []float64) {
	var q, t []float64
	for i := range msgs {
		vars := d.h.CheckNeighbors(i)
		deg := len(vars)
		if cap(q) < deg {
			q = make([]float64, deg)
			t = make([]float64, deg)
		}
		q = q[:deg]
		for e, v := range vars {
			q[e] = clampTo(belief[v]-msgs[i][e], d.clamp)
		}

		switch d.alg {
		case MinSum:
			sign := 1.0
			min1, min2 := math.MaxFloat64, math.MaxFloat64
			minIdx := -1
			for e, x := range q {
				if x < 0 {
					sign = -sign
				}
				a := math.Abs(x)
				if a < min1 {
					min2 = min1
					min1 = a
					minIdx = e
				} else if a < min2 {
					min2 = a
				}
			}
			for e, x := range q {
				mag := min1
				if e == minIdx {
					mag = min2
				}
				s := sign
				if x < 0 {
					s = -s
				}
				msgs[i][e] = clampTo(s*mag, d.clamp)
			}
		default: // SumProduct
			t = t[:deg]
			for e, x := range q {
				t[e] = math.Tanh(x / 2)
			}
			// Exclusive products via prefix/suffix scans; dividing the
			// total product out is unstable once tanh saturates.
			prefix := 1.0
			for e := 0; e < deg; e++ {
				old := t[e]
				t[e] = prefix
				prefix *= old
			}
			suffix := 1.0
			for e := deg - 1; e >= 0; e-- {
				excl := t[e] * suffix
				suffix *= math.Tanh(q[e] / 2)
				msgs[i][e] = clampTo(2*atanhSafe(excl), d.clamp)
			}
		}
	}
}

func clampTo(x, limit float64) float64 {
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}

// atanhSafe keeps the argument strictly inside (-1, 1) so saturated
// tanh products cannot produce infinities.
func atanhSafe(x float64) float64 {
	const eps = 1e-12
	if x >= 1-eps {
		x = 1 - eps
	} else if x <= -(1 - eps) {
		x = -(1 - eps)
	}
	return math.Atanh(x)
}
