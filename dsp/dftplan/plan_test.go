package dftplan

import (
	"math"
	"testing"
)

func TestNewPlanRejectsInvalidSizes(t *testing.T) {
	if _, err := NewPlan(0, 4); err == nil {
		t.Fatal("expected error for m=0")
	}

	if _, err := NewPlan(4, 0); err == nil {
		t.Fatal("expected error for chunk=0")
	}
}

func TestExecuteRejectsWrongLength(t *testing.T) {
	p, err := NewPlan(4, 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Execute(make([]complex64, 3), Forward); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestForwardInverseRoundTrip(t *testing.T) {
	const m = 8
	const chunk = 3

	p, err := NewPlan(m, chunk)
	if err != nil {
		t.Fatal(err)
	}

	orig := make([]complex64, m*chunk)
	for i := range orig {
		orig[i] = complex(float32(i%m)-float32(m)/2, float32(i%3))
	}

	buf := append([]complex64(nil), orig...)

	if err := p.Execute(buf, Forward); err != nil {
		t.Fatal(err)
	}

	if err := p.Execute(buf, Inverse); err != nil {
		t.Fatal(err)
	}

	for i := range orig {
		if diff := cAbs(buf[i] - orig[i]); diff > 1e-3 {
			t.Fatalf("index %d: got %v want %v diff %v", i, buf[i], orig[i], diff)
		}
	}
}

func TestImpulseAtBinZeroIsFlat(t *testing.T) {
	const m = 4

	p, err := NewPlan(m, 1)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]complex64, m)
	buf[0] = 1

	if err := p.Execute(buf, Forward); err != nil {
		t.Fatal(err)
	}

	for i, v := range buf {
		if diff := cAbs(v - 1); diff > 1e-3 {
			t.Fatalf("bin %d: got %v want 1", i, v)
		}
	}
}

func cAbs(c complex64) float64 {
	return math.Hypot(float64(real(c)), float64(imag(c)))
}
