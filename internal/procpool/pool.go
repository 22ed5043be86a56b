package procpool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/agbru/riemann/internal/errors"
	"github.com/agbru/riemann/internal/integrand"
	"github.com/agbru/riemann/internal/logging"
	"github.com/agbru/riemann/internal/parallel"
)

// DefaultWaitDelay bounds how long Close waits for a killed worker's pipes.
const DefaultWaitDelay = 2 * time.Second

// stderrDrain bounds how long a failed request waits for the worker's stderr
// to close before reporting.
const stderrDrain = 500 * time.Millisecond

// Options configures how worker processes are launched.
type Options struct {
	// Path is the worker executable. Empty means the running binary.
	Path string
	// Args are passed to the worker executable.
	Args []string
	// Env is appended to the parent's environment (after EnvWorker=1).
	Env []string
	// Logger receives worker stderr lines at debug level.
	Logger logging.Logger
}

// Pool is a fixed set of worker processes. Each worker handles one request
// at a time; Integrate blocks until a worker is idle.
type Pool struct {
	ctx     context.Context
	workers []*worker
	idle    chan *worker
	nextID  atomic.Uint64
	logger  logging.Logger

	closeOnce sync.Once
	closeErr  error
}

type worker struct {
	id         int
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	enc        *json.Encoder
	dec        *json.Decoder
	stderrDone chan struct{}
	// firstStderr is the first line the worker wrote to stderr, usually the
	// panic or fatal error that killed it.
	firstStderr atomic.Pointer[string]
}

// Start launches size worker processes. The processes are killed when ctx is
// done; Close must be called in every case to reap them.
func Start(ctx context.Context, size int, opts Options) (*Pool, error) {
	if size <= 0 {
		return nil, apperrors.NewValidationError("n_jobs", "must be positive, got %d", size)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop
	}
	if opts.Path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("procpool: locating executable: %w", err)
		}
		opts.Path = exe
	}

	p := &Pool{
		ctx:    ctx,
		idle:   make(chan *worker, size),
		logger: opts.Logger,
	}
	for i := 0; i < size; i++ {
		w, err := p.spawn(i, opts)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.workers = append(p.workers, w)
		p.idle <- w
	}
	p.logger.Debug("worker pool started", logging.Int("workers", size), logging.String("path", opts.Path))
	return p, nil
}

func (p *Pool) spawn(id int, opts Options) (*worker, error) {
	cmd := exec.CommandContext(p.ctx, opts.Path, opts.Args...)
	cmd.Env = append(append(os.Environ(), EnvWorker+"=1"), opts.Env...)
	cmd.WaitDelay = DefaultWaitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("procpool: worker %d stdin: %w", id, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("procpool: worker %d stdout: %w", id, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("procpool: worker %d stderr: %w", id, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("procpool: starting worker %d: %w", id, err)
	}

	w := &worker{
		id:         id,
		cmd:        cmd,
		stdin:      stdin,
		enc:        json.NewEncoder(stdin),
		dec:        json.NewDecoder(stdout),
		stderrDone: make(chan struct{}),
	}
	go func() {
		defer close(w.stderrDone)
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			if line := sc.Text(); line != "" {
				w.firstStderr.CompareAndSwap(nil, &line)
			}
			p.logger.Debug("worker stderr", logging.Int("worker", id), logging.String("line", sc.Text()))
		}
	}()
	return w, nil
}

// Size returns the number of worker processes.
func (p *Pool) Size() int { return len(p.workers) }

// Integrate sends one partition to an idle worker and waits for its partial
// result. Validation failures raised inside the worker come back as
// apperrors.ValidationError. A worker whose pipe breaks is retired and not
// handed out again.
func (p *Pool) Integrate(ctx context.Context, spec integrand.Spec, a, b float64, nIter int) (float64, error) {
	var w *worker
	select {
	case w = <-p.idle:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	req := Request{ID: p.nextID.Add(1), Integrand: spec, A: Float(a), B: Float(b), NIter: nIter}
	if err := w.enc.Encode(req); err != nil {
		return 0, w.failure("sending request", err)
	}
	var resp Response
	if err := w.dec.Decode(&resp); err != nil {
		return 0, w.failure("reading response", err)
	}
	p.idle <- w

	if resp.ID != req.ID {
		return 0, fmt.Errorf("procpool: worker %d answered request %d, want %d", w.id, resp.ID, req.ID)
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return float64(resp.Value), nil
}

// failure describes a broken pipe to w, adding what the worker wrote to
// stderr before it died.
func (w *worker) failure(op string, err error) error {
	select {
	case <-w.stderrDone:
	case <-time.After(stderrDrain):
	}
	if line := w.firstStderr.Load(); line != nil {
		return fmt.Errorf("procpool: worker %d: %s: %w (stderr: %s)", w.id, op, err, *line)
	}
	return fmt.Errorf("procpool: worker %d: %s: %w", w.id, op, err)
}

// Close shuts every worker down by closing its stdin and reaps it. It is
// safe to call more than once. Exit errors are ignored when the pool's
// context was cancelled, since the workers were killed on purpose.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		var errs parallel.ErrorCollector
		var wg sync.WaitGroup
		for _, w := range p.workers {
			wg.Add(1)
			go func(w *worker) {
				defer wg.Done()
				_ = w.stdin.Close()
				<-w.stderrDone
				if err := w.cmd.Wait(); err != nil && p.ctx.Err() == nil {
					errs.SetError(fmt.Errorf("procpool: worker %d: %w", w.id, err))
				}
			}(w)
		}
		wg.Wait()
		p.closeErr = errs.Err()
		p.logger.Debug("worker pool closed", logging.Int("workers", len(p.workers)))
	})
	return p.closeErr
}
