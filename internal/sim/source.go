package sim

import "math/rand"

// BitSource produces information blocks from a private seeded stream.
// Like the channel's noise source it is per-worker state, not shared.
type BitSource struct {
	rng *rand.Rand
}

// NewBitSource creates a bit source with its own generator.
func NewBitSource(seed int64) *BitSource {
	return &BitSource{rng: rand.New(rand.NewSource(seed))}
}

// Block returns n fresh information bits, one 0/1 byte per bit.
func (s *BitSource) Block(n int) []byte {
	bits := make([]byte, n)
	for i := range bits {
		bits[i] = byte(s.rng.Intn(2))
	}
	return bits
}
