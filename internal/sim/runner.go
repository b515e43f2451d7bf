package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ArrEssJay/chimera/internal/channel"
	"github.com/ArrEssJay/chimera/internal/config"
	"github.com/ArrEssJay/chimera/internal/ldpc"
	"github.com/ArrEssJay/chimera/internal/modem"
)

// Status tells a completed run apart from one stopped early. A run with
// frame errors still completes; only cancellation aborts.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Report is the final record of a run, suitable for JSON serialization.
type Report struct {
	Status  Status   `json:"status"`
	Metrics Snapshot `json:"metrics"`
}

// Runner drives frames through the encode → modulate → channel → demap
// → decode pipeline across a worker pool. The parity-check matrix and
// generator are built once and shared read-only; bit and noise streams
// are seeded per frame, so results do not depend on frame scheduling.
type Runner struct {
	cfg       config.Config
	code      *ldpc.Code
	enc       *ldpc.Encoder
	collector *Collector
	logger    *log.Logger
}

// NewRunner validates the configuration and prepares the code. All
// configuration errors surface here, before any frame is processed.
func NewRunner(cfg config.Config, logger *log.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	var (
		h   *ldpc.Matrix
		err error
	)
	if cfg.MatrixFile != "" {
		h, err = ldpc.Load(cfg.MatrixFile)
	} else {
		h, err = ldpc.Generate(cfg.BlockLength, cfg.CodeRate, cfg.Seed)
	}
	if err != nil {
		return nil, err
	}

	code, err := ldpc.NewCode(h)
	if err != nil {
		return nil, err
	}
	// Generated matrices are always even; loaded ones need the check,
	// or the modulator rejects every single frame mid-run.
	if code.N()%modem.BitsPerSymbol != 0 {
		return nil, fmt.Errorf("sim: codeword length %d does not fill %d-bit symbols", code.N(), modem.BitsPerSymbol)
	}

	logger.Info("code ready",
		"n", code.N(), "k", code.K(), "rate", fmt.Sprintf("%.3f", code.Rate()),
		"checks", h.Rows())

	return &Runner{
		cfg:       cfg,
		code:      code,
		enc:       ldpc.NewEncoder(code),
		collector: NewCollector(),
		logger:    logger,
	}, nil
}

// Collector exposes the running statistics for live readers (the
// server, tests). Safe to read while Run is in flight.
func (r *Runner) Collector() *Collector { return r.collector }

// Code returns the shared code configuration.
func (r *Runner) Code() *ldpc.Code { return r.code }

func algorithm(name string) ldpc.Algorithm {
	if name == config.AlgMinSum {
		return ldpc.MinSum
	}
	return ldpc.SumProduct
}

// Run processes cfg.Frames frames and returns the final report. A
// cancelled context stops frame submission; frames already in flight
// finish and their deltas land atomically, so the aborted report is
// still internally consistent.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < r.cfg.Workers; w++ {
		g.Go(func() error {
			return r.worker(gctx, jobs)
		})
	}

	// Submission watches the group context, not just the parent: a
	// failing worker cancels gctx, and without that the send below
	// would block forever once every worker has exited.
submit:
	for i := 0; i < r.cfg.Frames; i++ {
		select {
		case jobs <- i:
		case <-gctx.Done():
			break submit
		}
	}
	close(jobs)

	aborted := false
	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) {
			return Report{}, err
		}
		aborted = true
	}
	if ctx.Err() != nil {
		aborted = true
	}

	status := StatusCompleted
	if aborted {
		status = StatusAborted
	}
	snap := r.collector.Snapshot()
	r.logger.Info("run finished", "status", string(status),
		"frames", snap.TotalFrames, "fer", fmt.Sprintf("%.4g", snap.FER),
		"ber", fmt.Sprintf("%.4g", snap.BERPostFEC))
	return Report{Status: status, Metrics: snap}, nil
}

// frameSeedStride spaces the per-frame seed streams apart.
const frameSeedStride = 1_000_003

// worker owns one decoder and drains frames until the job channel
// closes or the run context is cancelled.
func (r *Runner) worker(ctx context.Context, jobs <-chan int) error {
	dec, err := ldpc.NewDecoder(r.code.H(), algorithm(r.cfg.Algorithm), r.cfg.MaxIterations, r.cfg.LLRClamp)
	if err != nil {
		return err
	}

	for {
		var idx int
		select {
		case i, ok := <-jobs:
			if !ok {
				return nil
			}
			idx = i
		case <-ctx.Done():
			return ctx.Err()
		}

		delta, err := r.frame(idx, dec)
		if err != nil {
			return err
		}
		r.collector.Apply(delta)
	}
}

// frame runs one codeword through the full pipeline and returns its
// metrics delta. The bit and noise streams are seeded from the frame
// index, so the aggregate over a completed run does not depend on how
// the scheduler spread frames across workers. Decoder non-convergence
// is folded into the delta as a frame error; only structural faults
// (length mismatches) return an error, and those indicate a bug rather
// than channel conditions.
func (r *Runner) frame(idx int, dec *ldpc.Decoder) (FrameDelta, error) {
	seed := r.cfg.Seed + int64(idx)*frameSeedStride
	src := NewBitSource(seed)
	ch := channel.New(channel.Config{SNRdB: r.cfg.SNRdB, Seed: seed + 1})

	info := src.Block(r.code.K())

	codeword, err := r.enc.Encode(info)
	if err != nil {
		return FrameDelta{}, err
	}
	tx, err := modem.Modulate(codeword)
	if err != nil {
		return FrameDelta{}, err
	}
	rx := ch.Transmit(tx)

	// Pre-FEC errors are measured on the same information positions as
	// the post-FEC count, so both rates share one denominator.
	preInfo, err := r.code.Message(modem.Demap(rx))
	if err != nil {
		return FrameDelta{}, err
	}
	pre := 0
	for i, b := range info {
		if preInfo[i] != b {
			pre++
		}
	}

	res, err := dec.Decode(modem.DemapLLR(rx, ch.NoiseVariance()))
	if err != nil {
		return FrameDelta{}, err
	}
	decoded, err := r.code.Message(res.Bits)
	if err != nil {
		return FrameDelta{}, err
	}
	post := 0
	for i, b := range info {
		if decoded[i] != b {
			post++
		}
	}

	return FrameDelta{
		Bits:       len(info),
		PreErrors:  pre,
		PostErrors: post,
		FrameError: !res.Converged || post > 0,
		Iterations: res.Iterations,
	}, nil
}
