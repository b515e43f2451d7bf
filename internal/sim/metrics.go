package sim

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// FrameDelta is one frame's contribution to the running statistics.
// The runner applies it as a single atomic update, so readers never see
// a half-applied frame.
type FrameDelta struct {
	Bits       int
	PreErrors  int
	PostErrors int
	FrameError bool
	Iterations int
}

// Snapshot is a consistent copy of the metrics at one point in time.
type Snapshot struct {
	TotalFrames      int64   `json:"total_frames"`
	TotalBits        int64   `json:"total_bits"`
	BitErrorsPreFEC  int64   `json:"bit_errors_pre_fec"`
	BitErrorsPostFEC int64   `json:"bit_errors_post_fec"`
	FrameErrors      int64   `json:"frame_errors"`
	AvgIterations    float64 `json:"average_iterations"`
	BERPreFEC        float64 `json:"ber_pre_fec"`
	BERPostFEC       float64 `json:"ber_post_fec"`
	FER              float64 `json:"fer"`
}

// Collector accumulates per-frame statistics across the run. All
// methods are safe for concurrent use; Snapshot never pauses
// accumulation for longer than one counter update.
type Collector struct {
	mu            sync.Mutex
	frames        int64
	bits          int64
	preErrors     int64
	postErrors    int64
	frameErrors   int64
	iterationsSum int64
}

// NewCollector returns an empty collector.
func NewCollector() *Collector { return &Collector{} }

// Apply folds one frame's delta into the totals.
func (c *Collector) Apply(d FrameDelta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	c.bits += int64(d.Bits)
	c.preErrors += int64(d.PreErrors)
	c.postErrors += int64(d.PostErrors)
	if d.FrameError {
		c.frameErrors++
	}
	c.iterationsSum += int64(d.Iterations)
}

// Snapshot returns the current totals plus the derived rates.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{
		TotalFrames:      c.frames,
		TotalBits:        c.bits,
		BitErrorsPreFEC:  c.preErrors,
		BitErrorsPostFEC: c.postErrors,
		FrameErrors:      c.frameErrors,
	}
	iterSum := c.iterationsSum
	c.mu.Unlock()

	if s.TotalFrames > 0 {
		s.AvgIterations = float64(iterSum) / float64(s.TotalFrames)
		s.FER = float64(s.FrameErrors) / float64(s.TotalFrames)
	}
	if s.TotalBits > 0 {
		s.BERPreFEC = float64(s.BitErrorsPreFEC) / float64(s.TotalBits)
		s.BERPostFEC = float64(s.BitErrorsPostFEC) / float64(s.TotalBits)
	}
	return s
}

var (
	descFrames      = prometheus.NewDesc("chimera_frames_total", "Frames processed.", nil, nil)
	descBits        = prometheus.NewDesc("chimera_bits_total", "Information bits processed.", nil, nil)
	descPreErrors   = prometheus.NewDesc("chimera_bit_errors_pre_fec_total", "Channel bit errors before decoding.", nil, nil)
	descPostErrors  = prometheus.NewDesc("chimera_bit_errors_post_fec_total", "Residual bit errors after decoding.", nil, nil)
	descFrameErrors = prometheus.NewDesc("chimera_frame_errors_total", "Frames with decode failure or residual errors.", nil, nil)
	descIterations  = prometheus.NewDesc("chimera_decoder_iterations_total", "Total belief-propagation iterations.", nil, nil)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descFrames
	ch <- descBits
	ch <- descPreErrors
	ch <- descPostErrors
	ch <- descFrameErrors
	ch <- descIterations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	frames, bits := c.frames, c.bits
	pre, post := c.preErrors, c.postErrors
	ferr, iters := c.frameErrors, c.iterationsSum
	c.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(descFrames, prometheus.CounterValue, float64(frames))
	ch <- prometheus.MustNewConstMetric(descBits, prometheus.CounterValue, float64(bits))
	ch <- prometheus.MustNewConstMetric(descPreErrors, prometheus.CounterValue, float64(pre))
	ch <- prometheus.MustNewConstMetric(descPostErrors, prometheus.CounterValue, float64(post))
	ch <- prometheus.MustNewConstMetric(descFrameErrors, prometheus.CounterValue, float64(ferr))
	ch <- prometheus.MustNewConstMetric(descIterations, prometheus.CounterValue, float64(iters))
}
