package tui

import (
	"context"
	"testing"
	"time"

	"github.com/banshee-data/pursuit/internal/config"
	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/testutil"
	"github.com/banshee-data/pursuit/internal/timeutil"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresSim(t *testing.T) {
	_, err := New(Config{Screen: tcell.NewSimulationScreen("UTF-8")})
	assert.Error(t, err)
}

func TestAppDrivesSimulation(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	s, err := sim.New(config.EmptySimConfig())
	require.NoError(t, err)

	screen := tcell.NewSimulationScreen("UTF-8")
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	app, err := New(Config{Sim: s, FPS: 60, Clock: clock, Screen: screen})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return clock.Tickers() == 1 }, 2*time.Second, time.Millisecond)

	screen.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	frame := timeutil.FrameInterval(60)
	require.Eventually(t, func() bool {
		clock.Advance(frame)
		return s.Last().Active
	}, 2*time.Second, 5*time.Millisecond)

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after q")
	}
	assert.Greater(t, s.Tick(), uint64(0))
	assert.Empty(t, logs.Lines(), "logging is muted while the screen is active")
}

func TestAppStopsOnCancel(t *testing.T) {
	testutil.MuteLogs(t)

	s, err := sim.New(config.EmptySimConfig())
	require.NoError(t, err)
	app, err := New(Config{Sim: s, FPS: 60, Clock: timeutil.NewMockClock(time.Unix(0, 0)), Screen: tcell.NewSimulationScreen("UTF-8")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSilentSound(t *testing.T) {
	t.Parallel()

	var s *Sound
	assert.False(t, s.Enabled())

	s = &Sound{}
	s.ObserveTick(sim.Snapshot{Hit: true}) // no speaker, no panic
	s.Close()
	assert.False(t, s.Enabled())
}
