package integrand

import (
	"errors"
	"math"
	"reflect"
	"testing"

	apperrors "github.com/agbru/riemann/internal/errors"
)

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Spec
		wantErr bool
	}{
		{"cos", Spec{Name: "cos"}, false},
		{" poly:0, 0 ,1 ", Spec{Name: "poly", Params: []float64{0, 0, 1}}, false},
		{"const:2.5", Spec{Name: "const", Params: []float64{2.5}}, false},
		{"", Spec{}, true},
		{":1", Spec{}, true},
		{"poly:1,x", Spec{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, apperrors.ErrInvalidArgument) {
					t.Errorf("parse error should be an invalid argument: %v", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSpecStringRoundTrip(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"cos", "poly:0,0,1", "const:-1.5"} {
		spec, err := Parse(s)
		if err != nil {
			t.Fatal(err)
		}
		if spec.String() != s {
			t.Errorf("String() = %q, want %q", spec.String(), s)
		}
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()
	tests := []struct {
		spec Spec
		x    float64
		want float64
	}{
		{Spec{Name: "cos"}, 0, 1},
		{Spec{Name: "sin"}, math.Pi / 2, 1},
		{Spec{Name: "exp"}, 0, 1},
		{Spec{Name: "sqrt"}, 9, 3},
		{Spec{Name: "square"}, 3, 9},
		{Spec{Name: "pi"}, 1, 2},
		{Spec{Name: "const", Params: []float64{7}}, 123, 7},
		{Spec{Name: "poly", Params: []float64{1, 2, 3}}, 2, 17},
	}

	for _, tt := range tests {
		t.Run(tt.spec.String(), func(t *testing.T) {
			t.Parallel()
			f, err := Default().Resolve(tt.spec)
			if err != nil {
				t.Fatalf("Resolve(%v): %v", tt.spec, err)
			}
			if got := f(tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("%v(%g) = %g, want %g", tt.spec, tt.x, got, tt.want)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()
	for _, spec := range []Spec{
		{Name: "nope"},
		{Name: "cos", Params: []float64{1}},
		{Name: "const"},
		{Name: "poly"},
	} {
		_, err := Default().Resolve(spec)
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Errorf("Resolve(%+v) error = %v, want invalid argument", spec, err)
		}
	}
}

func TestRegistryCustom(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register("twice", fixed(func(x float64) float64 { return 2 * x }))
	r.Register("cube", fixed(func(x float64) float64 { return x * x * x }))

	if got := r.Names(); !reflect.DeepEqual(got, []string{"cube", "twice"}) {
		t.Errorf("Names() = %v", got)
	}
	f, err := r.Resolve(Spec{Name: "cube"})
	if err != nil || f(2) != 8 {
		t.Errorf("Resolve(cube) = %v, %v", f, err)
	}
}

func TestPolynomialCopiesCoefficients(t *testing.T) {
	t.Parallel()
	coeffs := []float64{0, 1}
	p := Polynomial(coeffs...)
	coeffs[1] = 100
	if p(2) != 2 {
		t.Errorf("Polynomial should not alias its coefficients, got %g", p(2))
	}
}
