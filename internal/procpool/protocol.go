package procpool

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	apperrors "github.com/agbru/riemann/internal/errors"
	"github.com/agbru/riemann/internal/integrand"
)

// Messages are newline-delimited JSON objects: the parent writes one Request
// per line on the worker's stdin and reads one Response per line from its
// stdout. A worker serves requests strictly in order.

// Request asks a worker to integrate one partition.
type Request struct {
	ID        uint64         `json:"id"`
	Integrand integrand.Spec `json:"integrand"`
	A         Float          `json:"a"`
	B         Float          `json:"b"`
	NIter     int            `json:"n_iter"`
}

// Response carries a partial result or the reason the request failed.
type Response struct {
	ID    uint64 `json:"id"`
	Value Float  `json:"value"`
	// Error is empty on success.
	Error string `json:"error,omitempty"`
	// Kind classifies Error; KindInvalidArgument lets the parent rebuild a
	// ValidationError.
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

// Error kinds.
const (
	KindInvalidArgument = "invalid_argument"
	KindInternal        = "internal"
)

// Float is a float64 that survives JSON encoding even when it is NaN or ±Inf,
// which plain encoding/json rejects.
type Float float64

// MarshalJSON encodes non-finite values as the strings "NaN", "+Inf", "-Inf".
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON accepts a JSON number or one of the non-finite strings.
func (f *Float) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("procpool: bad float %q: %w", s, err)
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// RemoteError is a non-validation failure reported by a worker process.
type RemoteError struct {
	Message string
}

func (e RemoteError) Error() string { return "worker: " + e.Message }

// errorResponse builds the failure response for err.
func errorResponse(id uint64, err error) Response {
	var ve apperrors.ValidationError
	if errors.As(err, &ve) {
		return Response{ID: id, Error: ve.Message, Kind: KindInvalidArgument, Field: ve.Field}
	}
	return Response{ID: id, Error: err.Error(), Kind: KindInternal}
}

// Err converts a response back into an error, or nil on success.
func (r Response) Err() error {
	if r.Error == "" && r.Kind == "" {
		return nil
	}
	if r.Kind == KindInvalidArgument {
		return apperrors.ValidationError{Field: r.Field, Message: r.Error}
	}
	return RemoteError{Message: r.Error}
}
