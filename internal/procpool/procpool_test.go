package procpool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/agbru/riemann/internal/errors"
	"github.com/agbru/riemann/internal/integrand"
	"github.com/agbru/riemann/internal/riemann"
)

func encodeRequests(reqs ...Request) *bytes.Buffer {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range reqs {
		Expect(enc.Encode(r)).To(Succeed())
	}
	return &buf
}

func decodeResponses(buf *bytes.Buffer) []Response {
	var out []Response
	dec := json.NewDecoder(buf)
	for dec.More() {
		var r Response
		Expect(dec.Decode(&r)).To(Succeed())
		out = append(out, r)
	}
	return out
}

var _ = Describe("Float", func() {
	DescribeTable("survives a JSON round trip",
		func(v float64) {
			data, err := json.Marshal(Float(v))
			Expect(err).NotTo(HaveOccurred())
			var back Float
			Expect(json.Unmarshal(data, &back)).To(Succeed())
			if math.IsNaN(v) {
				Expect(math.IsNaN(float64(back))).To(BeTrue())
			} else {
				Expect(float64(back)).To(Equal(v))
			}
		},
		Entry("zero", 0.0),
		Entry("third", 1.0/3.0),
		Entry("tiny", 5e-324),
		Entry("NaN", math.NaN()),
		Entry("+Inf", math.Inf(1)),
		Entry("-Inf", math.Inf(-1)),
	)

	It("rejects unknown strings", func() {
		var f Float
		Expect(json.Unmarshal([]byte(`"lots"`), &f)).NotTo(Succeed())
	})
})

var _ = Describe("Serve", func() {
	var (
		ctx context.Context
		out *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		out = &bytes.Buffer{}
	})

	It("answers each request in order with the matching id", func() {
		in := encodeRequests(
			Request{ID: 7, Integrand: integrand.Spec{Name: "square"}, A: 0, B: 1, NIter: 1000},
			Request{ID: 8, Integrand: integrand.Spec{Name: "cos"}, A: 0, B: Float(math.Pi), NIter: 1000},
		)
		Expect(Serve(ctx, in, out, integrand.Default())).To(Succeed())

		resps := decodeResponses(out)
		Expect(resps).To(HaveLen(2))
		Expect(resps[0].ID).To(Equal(uint64(7)))
		Expect(resps[1].ID).To(Equal(uint64(8)))

		want, err := riemann.Integrate(func(x float64) float64 { return x * x }, 0, 1, 1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(float64(resps[0].Value)).To(Equal(want))
		Expect(resps[0].Err()).To(Succeed())
	})

	It("reports validation failures as invalid arguments", func() {
		in := encodeRequests(
			Request{ID: 1, Integrand: integrand.Spec{Name: "cos"}, A: 1, B: 0, NIter: 10},
			Request{ID: 2, Integrand: integrand.Spec{Name: "cos"}, A: 0, B: 1, NIter: 0},
			Request{ID: 3, Integrand: integrand.Spec{Name: "nope"}, A: 0, B: 1, NIter: 10},
		)
		Expect(Serve(ctx, in, out, integrand.Default())).To(Succeed())

		resps := decodeResponses(out)
		Expect(resps).To(HaveLen(3))
		fields := []string{"interval", "n_iter", "integrand"}
		for i, r := range resps {
			Expect(r.Kind).To(Equal(KindInvalidArgument))
			err := r.Err()
			Expect(errors.Is(err, apperrors.ErrInvalidArgument)).To(BeTrue())
			var ve apperrors.ValidationError
			Expect(errors.As(err, &ve)).To(BeTrue())
			Expect(ve.Field).To(Equal(fields[i]))
		}
	})

	It("fails on malformed input", func() {
		err := Serve(ctx, strings.NewReader("{not json"), out, integrand.Default())
		Expect(err).To(MatchError(ContainSubstring("decoding request")))
	})

	It("stops when the context is done", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(Serve(cctx, encodeRequests(Request{ID: 1}), out, integrand.Default())).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Response.Err", func() {
	It("maps internal failures to RemoteError", func() {
		err := errorResponse(4, errors.New("disk on fire")).Err()
		var re RemoteError
		Expect(errors.As(err, &re)).To(BeTrue())
		Expect(err.Error()).To(Equal("worker: disk on fire"))
		Expect(errors.Is(err, apperrors.ErrInvalidArgument)).To(BeFalse())
	})
})

var _ = Describe("Pool", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("integrates partitions in worker processes", func() {
		p, err := Start(ctx, 2, Options{})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(p.Close)
		Expect(p.Size()).To(Equal(2))

		got, err := p.Integrate(ctx, integrand.Spec{Name: "cos"}, 0, math.Pi, 100_000)
		Expect(err).NotTo(HaveOccurred())
		want, _ := riemann.Integrate(math.Cos, 0, math.Pi, 100_000)
		Expect(got).To(Equal(want))

		got, err = p.Integrate(ctx, integrand.Spec{Name: "poly", Params: []float64{0, 0, 1}}, 0, 1, 1_000_000)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeNumerically("~", 1.0/3.0, 1e-5))
	})

	It("carries validation errors across the process boundary", func() {
		p, err := Start(ctx, 1, Options{})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(p.Close)

		_, err = p.Integrate(ctx, integrand.Spec{Name: "cos"}, 2, 1, 10)
		Expect(errors.Is(err, apperrors.ErrInvalidArgument)).To(BeTrue())

		// The worker stays usable after a failed request.
		v, err := p.Integrate(ctx, integrand.Spec{Name: "const", Params: []float64{2}}, 0, 3, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeNumerically("~", 6, 1e-12))
	})

	It("rejects a non-positive size", func() {
		_, err := Start(ctx, 0, Options{})
		Expect(errors.Is(err, apperrors.ErrInvalidArgument)).To(BeTrue())
	})

	It("fails to start with a missing executable", func() {
		_, err := Start(ctx, 1, Options{Path: "/nonexistent/riemann-worker"})
		Expect(err).To(MatchError(ContainSubstring("starting worker 0")))
	})

	It("closes cleanly and idempotently", func() {
		p, err := Start(ctx, 3, Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
		Expect(p.Close()).To(Succeed())
	})

	It("reports a worker that dies mid-request with its stderr", func() {
		p, err := Start(ctx, 1, Options{})
		Expect(err).NotTo(HaveOccurred())

		_, err = p.Integrate(ctx, integrand.Spec{Name: "crash"}, 0, 1, 10)
		Expect(err).To(MatchError(ContainSubstring("worker 0: reading response")))
		Expect(err).To(MatchError(ContainSubstring("panic: worker crash")))
		Expect(errors.Is(err, apperrors.ErrInvalidArgument)).To(BeFalse())

		// The dead worker exits non-zero.
		Expect(p.Close()).NotTo(Succeed())
	})

	It("kills workers when its context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		p, err := Start(cctx, 2, Options{})
		Expect(err).NotTo(HaveOccurred())
		cancel()
		Expect(p.Close()).To(Succeed())

		_, err = p.Integrate(cctx, integrand.Spec{Name: "cos"}, 0, 1, 10)
		Expect(err).To(HaveOccurred())
	})
})
