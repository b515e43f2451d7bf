package modem

// minNoiseVar floors the noise variance used for LLR scaling. A
// noiseless channel then yields a very large but finite confidence
// instead of a division by zero; the decoder clamp bounds it further.
const minNoiseVar = 1e-12

// DemapLLR converts received symbols to log-likelihood ratios, two per
// symbol, given the channel's per-dimension noise variance. Under Gray
// mapping each axis carries one bit, so the exact Gaussian LLR is the
// axis projection scaled by 2a/σ². Positive LLRs vote for bit 0,
// matching the decoder's convention; the magnitude grows with the
// distance from the decision boundary and shrinks with the noise.
func DemapLLR(received []complex128, noiseVar float64) []float64 {
	if noiseVar < minNoiseVar {
		noiseVar = minNoiseVar
	}
	scale := 2 * amp / noiseVar
	llr := make([]float64, len(received)*BitsPerSymbol)
	for i, s := range received {
		llr[2*i] = scale * imag(s)
		llr[2*i+1] = scale * real(s)
	}
	return llr
}
