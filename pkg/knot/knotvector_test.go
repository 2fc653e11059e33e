package knot

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		order int
		knots []float64
		want  Code
	}{
		{"cubic bezier", 4, []float64{0, 0, 0, 0, 1, 1, 1, 1}, CodeOK},
		{"interior breakpoint", 4, []float64{0, 0, 0, 0, 1, 2, 2, 2, 2}, CodeOK},
		{"interior full multiplicity", 4, []float64{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}, CodeOK},
		{"uniform unclamped", 4, []float64{0, 1, 2, 3, 4, 5, 6, 7}, CodeOK},
		{"linear", 2, []float64{0, 0, 1, 1}, CodeOK},
		{"order zero", 0, []float64{0, 1}, CodeOrderUnsupported},
		{"order too large", 25, make([]float64, 60), CodeOrderUnsupported},
		{"too few knots", 4, []float64{0, 0, 0, 1, 1, 1}, CodeTooFewKnots},
		{"empty range", 2, []float64{0, 0, 0, 0}, CodeEmptyRange},
		{"empty range within tolerance", 2, []float64{0, 0, 0.000001, 0.000001}, CodeEmptyRange},
		{"decreasing", 2, []float64{0, 2, 1, 3}, CodeDecreasing},
		{"multiplicity", 2, []float64{0, 0, 1, 1, 1, 2, 2}, CodeMultiplicity},
		{"multiplicity at end", 2, []float64{0, 0, 1, 2, 2, 2}, CodeMultiplicity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.order, tt.knots, 3).Validate()
			if got := CodeOf(err); got != tt.want {
				t.Fatalf("Validate() code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestValidateTooFewKnotsScenario(t *testing.T) {
	err := New(4, []float64{0, 0, 0, 1, 1, 1}, 3).Validate()
	if !errors.Is(err, ErrTooFewKnots) {
		t.Fatalf("expected ErrTooFewKnots, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Order != 4 || ve.Count != 6 {
		t.Errorf("ValidationError = %+v, want order 4 count 6", ve)
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != CodeOK {
		t.Error("CodeOf(nil) should be CodeOK")
	}
	if CodeOf(errors.New("other")) != -1 {
		t.Error("CodeOf(foreign error) should be -1")
	}
}

func TestIdentical(t *testing.T) {
	if !Identical(1, 1+Tolerance/2) {
		t.Error("values within tolerance should be identical")
	}
	if Identical(1, 1+Tolerance*2) {
		t.Error("values beyond tolerance should differ")
	}
}

func TestDomain(t *testing.T) {
	kv := New(4, []float64{0, 0, 0, 0, 1, 2, 2, 2, 2}, 3)
	lo, hi := kv.Domain()
	if lo != 0 || hi != 2 {
		t.Errorf("Domain() = [%v, %v], want [0, 2]", lo, hi)
	}
	if n := kv.NumControlPoints(); n != 5 {
		t.Errorf("NumControlPoints() = %d, want 5", n)
	}
}
