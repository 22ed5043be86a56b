package procpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agbru/riemann/internal/integrand"
	"github.com/agbru/riemann/internal/riemann"
)

// EnvWorker is set to "1" in the environment of every worker process.
const EnvWorker = "RIEMANN_WORKER"

// Serve answers requests read from r with responses written to w until r is
// exhausted or ctx is done. Integration failures are reported in the
// response; only transport failures end the loop with an error.
func Serve(ctx context.Context, r io.Reader, w io.Writer, reg *integrand.Registry) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)
	cache := make(map[string]integrand.Func)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("procpool: decoding request: %w", err)
		}

		resp := handle(req, reg, cache)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("procpool: encoding response %d: %w", req.ID, err)
		}
	}
}

func handle(req Request, reg *integrand.Registry, cache map[string]integrand.Func) Response {
	key := req.Integrand.String()
	f, ok := cache[key]
	if !ok {
		var err error
		f, err = reg.Resolve(req.Integrand)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		cache[key] = f
	}

	v, err := riemann.Integrate(f, float64(req.A), float64(req.B), req.NIter)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return Response{ID: req.ID, Value: Float(v)}
}

// RunWorkerIfRequested turns the current process into a pool worker when it
// was started by Start: it serves stdin/stdout against the default integrand
// registry and exits. Otherwise it returns immediately. Call it first thing
// in main and in TestMain of packages that start pools.
func RunWorkerIfRequested() {
	if os.Getenv(EnvWorker) != "1" {
		return
	}
	if err := Serve(context.Background(), os.Stdin, os.Stdout, integrand.Default()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}
