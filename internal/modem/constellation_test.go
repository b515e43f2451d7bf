package modem

import (
	"errors"
	"math"
	"testing"
)

func TestQPSK_ModulateDemap(t *testing.T) {
	// Test all 4 QPSK points
	for i := 0; i < 4; i++ {
		bits := []byte{byte(i >> 1), byte(i & 1)}
		symbols, err := Modulate(bits)
		if err != nil {
			t.Fatalf("point %d: %v", i, err)
		}
		if len(symbols) != 1 {
			t.Fatalf("point %d: got %d symbols, want 1", i, len(symbols))
		}
		recovered := Demap(symbols)

		for j := range bits {
			if bits[j] != recovered[j] {
				t.Errorf("point %d: bit %d mismatch: %d != %d", i, j, bits[j], recovered[j])
			}
		}
	}
}

func TestQPSK_UnitEnergy(t *testing.T) {
	for i, s := range symbols {
		e := real(s)*real(s) + imag(s)*imag(s)
		if math.Abs(e-1) > 1e-12 {
			t.Errorf("point %d: symbol energy %v, want 1", i, e)
		}
	}
}

func TestModulate_OddLength(t *testing.T) {
	_, err := Modulate([]byte{1, 0, 1})
	if !errors.Is(err, ErrOddLength) {
		t.Fatalf("got %v, want ErrOddLength", err)
	}
}

func TestModulate_Deterministic(t *testing.T) {
	bits := []byte{1, 0, 0, 1, 1, 1, 0, 0}
	a, err := Modulate(bits)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Modulate(bits)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("symbol %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestDemap_LongBlock(t *testing.T) {
	bits := []byte{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 0, 0}
	symbols, err := Modulate(bits)
	if err != nil {
		t.Fatal(err)
	}
	recovered := Demap(symbols)

	if len(recovered) != len(bits) {
		t.Fatalf("length mismatch: %d != %d", len(recovered), len(bits))
	}
	for i := range bits {
		if bits[i] != recovered[i] {
			t.Errorf("bit %d: %d != %d", i, bits[i], recovered[i])
		}
	}
}
