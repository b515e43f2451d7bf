// Package channel models the transmission medium between modulator and
// demodulator: additive white Gaussian noise at a configured Es/N0,
// with an optional fading hook.
package channel

import (
	"math"
	"math/rand"
)

// Config describes one channel instance. It is passed by value and
// never mutated by the channel.
type Config struct {
	// SNRdB is the symbol-energy-to-noise-density ratio Es/N0 in dB.
	// math.Inf(1) disables noise entirely.
	SNRdB float64
	// Seed initializes the channel's private noise source.
	Seed int64
}

// AWGN adds independent, zero-mean, circularly symmetric complex
// Gaussian noise to each symbol. The noise source is private to the
// instance, so an AWGN must not be shared across goroutines; create one
// per worker instead.
type AWGN struct {
	cfg      Config
	rng      *rand.Rand
	noiseVar float64 // per complex dimension
	sigma    float64

	// Gain, when non-nil, scales symbol i before noise is added. It is
	// the extension point for fading models; nil means a flat channel.
	Gain func(i int) complex128
}

// New creates an AWGN channel calibrated for unit average signal power,
// which is what the QPSK constellation emits.
func New(cfg Config) *AWGN {
	return NewWithPower(cfg, 1.0)
}

// NewWithPower creates an AWGN channel for a given average signal
// power. The per-dimension noise variance is
// power / (2 · 10^(SNRdB/10)).
func NewWithPower(cfg Config, signalPower float64) *AWGN {
	noiseVar := 0.0
	if !math.IsInf(cfg.SNRdB, 1) {
		noiseVar = signalPower / (2 * math.Pow(10, cfg.SNRdB/10))
	}
	return &AWGN{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		noiseVar: noiseVar,
		sigma:    math.Sqrt(noiseVar),
	}
}

// NoiseVariance returns the per-dimension noise variance σ², which the
// demapper needs for LLR scaling.
func (c *AWGN) NoiseVariance() float64 { return c.noiseVar }

// Transmit returns a new slice with noise added to every symbol.
func (c *AWGN) Transmit(symbols []complex128) []complex128 {
	out := make([]complex128, len(symbols))
	for i, s := range symbols {
		if c.Gain != nil {
			s *= c.Gain(i)
		}
		if c.sigma > 0 {
			s += complex(c.rng.NormFloat64()*c.sigma, c.rng.NormFloat64()*c.sigma)
		}
		out[i] = s
	}
	return out
}
