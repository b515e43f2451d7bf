package modem

import (
	"errors"
	"math"
)

// BitsPerSymbol is the number of codeword bits carried per QPSK symbol.
const BitsPerSymbol = 2

// ErrOddLength reports a bit slice that cannot be split into symbol
// pairs.
var ErrOddLength = errors.New("modem: bit count is not even")

// amp is the per-axis amplitude giving unit average symbol energy.
var amp = 1 / math.Sqrt2

// symbols is the Gray-coded QPSK constellation, indexed by the bit pair
// (b0<<1 | b1): 00→(+1,+1)/√2, 01→(−1,+1)/√2, 11→(−1,−1)/√2,
// 10→(+1,−1)/√2. The first bit selects the quadrature sign, the second
// the in-phase sign, so each axis carries one bit independently.
var symbols = [4]complex128{
	complex(amp, amp),   // 00
	complex(-amp, amp),  // 01
	complex(amp, -amp),  // 10
	complex(-amp, -amp), // 11
}

// Modulate maps codeword bits (one 0/1 byte per bit) two at a time onto
// QPSK symbols.
func Modulate(bits []byte) ([]complex128, error) {
	if len(bits)%BitsPerSymbol != 0 {
		return nil, ErrOddLength
	}
	out := make([]complex128, len(bits)/BitsPerSymbol)
	for i := range out {
		b0 := bits[2*i] & 1
		b1 := bits[2*i+1] & 1
		out[i] = symbols[b0<<1|b1]
	}
	return out, nil
}

// Demap makes hard decisions on received symbols, returning two bits
// per symbol. This is the pre-FEC view of the channel.
func Demap(received []complex128) []byte {
	bits := make([]byte, len(received)*BitsPerSymbol)
	for i, s := range received {
		if imag(s) < 0 {
			bits[2*i] = 1
		}
		if real(s) < 0 {
			bits[2*i+1] = 1
		}
	}
	return bits
}
