package sim

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_EmptySnapshot(t *testing.T) {
	s := NewCollector().Snapshot()
	assert.Zero(t, s.TotalFrames)
	assert.Zero(t, s.FER)
	assert.Zero(t, s.BERPreFEC)
	assert.Zero(t, s.AvgIterations)
}

func TestCollector_Totals(t *testing.T) {
	c := NewCollector()
	c.Apply(FrameDelta{Bits: 100, PreErrors: 12, PostErrors: 0, FrameError: false, Iterations: 3})
	c.Apply(FrameDelta{Bits: 100, PreErrors: 30, PostErrors: 7, FrameError: true, Iterations: 50})

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.TotalFrames)
	assert.Equal(t, int64(200), s.TotalBits)
	assert.Equal(t, int64(42), s.BitErrorsPreFEC)
	assert.Equal(t, int64(7), s.BitErrorsPostFEC)
	assert.Equal(t, int64(1), s.FrameErrors)
	assert.InDelta(t, 0.5, s.FER, 1e-15)
	assert.InDelta(t, 0.21, s.BERPreFEC, 1e-15)
	assert.InDelta(t, 0.035, s.BERPostFEC, 1e-15)
	assert.InDelta(t, 26.5, s.AvgIterations, 1e-15)
}

func TestCollector_ConcurrentApply(t *testing.T) {
	c := NewCollector()
	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				c.Apply(FrameDelta{Bits: 10, PreErrors: 1, FrameError: true, Iterations: 2})
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	assert.Equal(t, int64(workers*perWorker), s.TotalFrames)
	assert.Equal(t, int64(workers*perWorker*10), s.TotalBits)
	assert.Equal(t, int64(workers*perWorker), s.BitErrorsPreFEC)
	assert.Equal(t, int64(workers*perWorker), s.FrameErrors)
	assert.InDelta(t, 1.0, s.FER, 1e-15)
}

func TestCollector_PrometheusInterface(t *testing.T) {
	c := NewCollector()
	c.Apply(FrameDelta{Bits: 64, PreErrors: 3, PostErrors: 1, FrameError: true, Iterations: 9})

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 6)

	values := map[string]float64{}
	for _, f := range families {
		require.Len(t, f.GetMetric(), 1)
		values[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
	}
	assert.Equal(t, 1.0, values["chimera_frames_total"])
	assert.Equal(t, 64.0, values["chimera_bits_total"])
	assert.Equal(t, 3.0, values["chimera_bit_errors_pre_fec_total"])
	assert.Equal(t, 1.0, values["chimera_bit_errors_post_fec_total"])
	assert.Equal(t, 1.0, values["chimera_frame_errors_total"])
	assert.Equal(t, 9.0, values["chimera_decoder_iterations_total"])
}

func TestBitSource_DeterministicBlocks(t *testing.T) {
	a := NewBitSource(21).Block(128)
	b := NewBitSource(21).Block(128)
	require.Equal(t, a, b)

	for _, bit := range a {
		assert.LessOrEqual(t, bit, byte(1))
	}

	c := NewBitSource(22).Block(128)
	assert.NotEqual(t, a, c)
}
