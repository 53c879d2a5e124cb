package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/pursuit/internal/config"
	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/testutil"
	"github.com/banshee-data/pursuit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrajectoryPlotterLifecycle(t *testing.T) {
	testutil.MuteLogs(t)

	s, err := sim.New(config.EmptySimConfig())
	require.NoError(t, err)
	tp := NewTrajectoryPlotter("weave run/1", s.World())
	s.AddObserver(tp)

	_, err = tp.Save()
	assert.ErrorContains(t, err, "never started")

	// Not sampling before Start.
	_, err = s.Step(sim.Input{})
	require.NoError(t, err)
	assert.Equal(t, 0, tp.Samples())

	dir := filepath.Join(t.TempDir(), "plots")
	require.NoError(t, tp.Start(dir))
	assert.True(t, tp.IsEnabled())

	_, err = tp.Save()
	assert.ErrorContains(t, err, "no samples")

	_, err = sim.RunHeadless(t.Context(), s, 200, sim.Weave(5, 60))
	require.NoError(t, err)
	tp.Stop()
	assert.False(t, tp.IsEnabled())
	assert.Equal(t, 200, tp.Samples())

	_, err = s.Step(sim.Input{})
	require.NoError(t, err)
	assert.Equal(t, 200, tp.Samples(), "stopped plotter ignores ticks")

	files, err := tp.Save()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "weave_run_1_trajectory.png"), files[0])
	assert.Equal(t, filepath.Join(dir, "weave_run_1_estimator.png"), files[1])
	for _, f := range files {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestSplitAtWrap(t *testing.T) {
	t.Parallel()

	world := vec.New(100, 100)
	path := []vec.Vec2{
		vec.New(50, 10), vec.New(50, 5), vec.New(50, 1),
		vec.New(50, 99), vec.New(50, 95), // wrapped across the top edge
		vec.New(2, 95), // wrapped across the left edge
	}
	segs := splitAtWrap(path, world)
	require.Len(t, segs, 3)
	assert.Len(t, segs[0], 3)
	assert.Len(t, segs[1], 2)
	assert.Len(t, segs[2], 1)

	assert.Empty(t, splitAtWrap(nil, world))
}

func TestPlotsWithoutPursuer(t *testing.T) {
	t.Parallel()

	samples := []sim.Snapshot{
		{Tick: 1, Target: vec.New(10, 10), CovarianceTrace: 4},
		{Tick: 2, Target: vec.New(10, 8), CovarianceTrace: 4},
	}
	_, err := TrajectoryPlot(samples, vec.New(100, 100))
	assert.NoError(t, err)
	_, err = EstimatorPlot(samples)
	assert.NoError(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"run", "run"},
		{"weave run/1", "weave_run_1"},
		{"../../etc/passwd", "etc_passwd"},
		{"a  b", "a_b"},
		{"", "run"},
		{"...", "run"},
		{"pursuit-2026.10", "pursuit-2026.10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
