// Package config holds the simulation configuration: the recognized
// options, their defaults, YAML preset loading, and fail-fast
// validation. Invalid values are always reported, never silently
// replaced with defaults.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Decoder algorithm names accepted in Config.Algorithm.
const (
	AlgSumProduct = "sum-product"
	AlgMinSum     = "min-sum"
)

// Config is the full set of recognized simulation options.
type Config struct {
	// CodeRate is K/N and selects the parity-check matrix shape when
	// one is generated. Ignored when MatrixFile is set.
	CodeRate float64 `yaml:"code_rate"`
	// BlockLength is the codeword length N. Must be even (two bits per
	// QPSK symbol). Ignored when MatrixFile is set.
	BlockLength int `yaml:"block_length"`
	// SNRdB is the channel Es/N0 in dB.
	SNRdB float64 `yaml:"snr_db"`
	// MaxIterations caps the decoder's iteration count.
	MaxIterations int `yaml:"max_iterations"`
	// LLRClamp bounds belief magnitudes inside the decoder.
	LLRClamp float64 `yaml:"llr_clamp"`
	// Seed drives matrix generation, bit sources, and channel noise.
	Seed int64 `yaml:"seed"`
	// Frames is the number of codewords to simulate.
	Frames int `yaml:"frames"`
	// Workers is the worker-pool size. Fixing it pins reproducibility.
	Workers int `yaml:"workers"`
	// Algorithm selects sum-product or min-sum decoding.
	Algorithm string `yaml:"algorithm"`
	// MatrixFile, when set, loads the parity-check matrix from a JSON
	// artifact instead of generating one.
	MatrixFile string `yaml:"matrix_file"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		CodeRate:      0.5,
		BlockLength:   256,
		SNRdB:         4.0,
		MaxIterations: 50,
		LLRClamp:      20.0,
		Seed:          1,
		Frames:        1000,
		Workers:       4,
		Algorithm:     AlgSumProduct,
	}
}

// Load reads a YAML preset on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first violated constraint. It runs before any
// frame is processed, so a bad configuration can never produce partial
// side effects.
func (c Config) Validate() error {
	if c.MatrixFile == "" {
		if c.BlockLength <= 0 || c.BlockLength%2 != 0 {
			return fmt.Errorf("config: block_length %d must be positive and even", c.BlockLength)
		}
		if c.CodeRate <= 0 || c.CodeRate >= 1 {
			return fmt.Errorf("config: code_rate %v must lie in (0,1)", c.CodeRate)
		}
	}
	if math.IsNaN(c.SNRdB) || math.IsInf(c.SNRdB, -1) {
		return fmt.Errorf("config: snr_db %v is undefined", c.SNRdB)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("config: max_iterations %d must be positive", c.MaxIterations)
	}
	if c.LLRClamp <= 0 {
		return fmt.Errorf("config: llr_clamp %v must be positive", c.LLRClamp)
	}
	if c.Frames <= 0 {
		return fmt.Errorf("config: frames %d must be positive", c.Frames)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers %d must be positive", c.Workers)
	}
	if c.Algorithm != AlgSumProduct && c.Algorithm != AlgMinSum {
		return fmt.Errorf("config: algorithm %q must be %q or %q", c.Algorithm, AlgSumProduct, AlgMinSum)
	}
	return nil
}
