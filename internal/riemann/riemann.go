// Package riemann implements the left-rectangle rule for one-dimensional
// definite integrals.
package riemann

import (
	"math"

	apperrors "github.com/agbru/riemann/internal/errors"
	"github.com/agbru/riemann/internal/integrand"
)

// DefaultIterations is the sampling resolution used when the caller does not
// choose one.
const DefaultIterations = 100_000

// Integrate approximates the integral of f over [a, b] with nIter rectangles
// whose heights are sampled at each sub-interval's left edge.
//
// The sum is accumulated left to right over increasing i in a single running
// accumulator, so the result is bit-reproducible for a given input but may
// differ in the last bits from any other summation order.
//
// Parameters:
//   - f: The integrand.
//   - a, b: The interval bounds; a must be strictly less than b.
//   - nIter: The number of rectangles; must be positive.
//
// Returns:
//   - float64: The approximate integral.
//   - error: A ValidationError (wrapping ErrInvalidArgument) if nIter <= 0
//     or a >= b. Both checks happen before f is evaluated.
func Integrate(f integrand.Func, a, b float64, nIter int) (float64, error) {
	if err := Validate(a, b, nIter); err != nil {
		return 0, err
	}

	acc := 0.0
	step := (b - a) / float64(nIter)
	for i := 0; i < nIter; i++ {
		acc += f(a+float64(i)*step) * step
	}
	return acc, nil
}

// IntegrateDefault is Integrate with DefaultIterations.
func IntegrateDefault(f integrand.Func, a, b float64) (float64, error) {
	return Integrate(f, a, b, DefaultIterations)
}

// Validate applies Integrate's preconditions without evaluating anything.
// The step count is checked first.
func Validate(a, b float64, nIter int) error {
	if nIter <= 0 {
		return apperrors.NewValidationError("n_iter", "must be positive, got %d", nIter)
	}
	// !(a < b) also rejects NaN bounds.
	if !(a < b) {
		return apperrors.NewValidationError("interval", "a (%g) must be less than b (%g)", a, b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return apperrors.NewValidationError("interval", "bounds must be finite, got [%g, %g]", a, b)
	}
	if math.IsInf(b-a, 0) {
		return apperrors.NewValidationError("interval", "width of [%g, %g] overflows", a, b)
	}
	return nil
}
