// Command chimera runs the QPSK/LDPC link simulation: it encodes random
// information blocks, sends them through a seeded AWGN channel, decodes
// them with belief propagation, and prints the aggregated metrics
// record as JSON. With --listen it also serves live metrics over HTTP
// and WebSocket while the run is in flight.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/ArrEssJay/chimera/internal/config"
	"github.com/ArrEssJay/chimera/internal/server"
	"github.com/ArrEssJay/chimera/internal/sim"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML preset file")
		listen     = flag.String("listen", "", "serve live metrics on this address (empty: disabled)")
		verbose    = flag.Bool("verbose", false, "enable debug logging")

		codeRate   = flag.Float64("code-rate", 0, "code rate K/N")
		blockLen   = flag.Int("block-length", 0, "codeword length N")
		snrDB      = flag.Float64("snr-db", 0, "channel Es/N0 in dB")
		maxIter    = flag.Int("max-iterations", 0, "decoder iteration cap")
		llrClamp   = flag.Float64("llr-clamp", 0, "belief magnitude clamp")
		seed       = flag.Int64("seed", 0, "noise and source seed")
		frames     = flag.Int("frames", 0, "number of frames to simulate")
		workers    = flag.Int("workers", 0, "worker pool size")
		algorithm  = flag.String("algorithm", "", "decoder algorithm: sum-product or min-sum")
		matrixFile = flag.String("matrix-file", "", "parity-check matrix JSON artifact")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "chimera",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatal("config", "err", err)
		}
	}

	// Flags the user actually set override the preset.
	override := map[string]func(){
		"code-rate":      func() { cfg.CodeRate = *codeRate },
		"block-length":   func() { cfg.BlockLength = *blockLen },
		"snr-db":         func() { cfg.SNRdB = *snrDB },
		"max-iterations": func() { cfg.MaxIterations = *maxIter },
		"llr-clamp":      func() { cfg.LLRClamp = *llrClamp },
		"seed":           func() { cfg.Seed = *seed },
		"frames":         func() { cfg.Frames = *frames },
		"workers":        func() { cfg.Workers = *workers },
		"algorithm":      func() { cfg.Algorithm = *algorithm },
		"matrix-file":    func() { cfg.MatrixFile = *matrixFile },
	}
	for name, apply := range override {
		if flag.CommandLine.Changed(name) {
			apply()
		}
	}

	runner, err := sim.NewRunner(cfg, logger)
	if err != nil {
		logger.Fatal("setup", "err", err)
	}

	if *listen != "" {
		srv := server.NewServer(*listen, runner.Collector(), logger)
		defer srv.Close()
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("metrics server", "err", err)
			}
		}()
	}

	// SIGINT/SIGTERM cancel the run; in-flight frames finish and the
	// report comes back marked aborted rather than completed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("run", "err", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Fatal("encode report", "err", err)
	}
	if report.Status == sim.StatusAborted {
		os.Exit(1)
	}
}
