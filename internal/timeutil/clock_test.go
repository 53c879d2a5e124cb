package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFrameInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fps  int
		want time.Duration
	}{
		{60, 16666666 * time.Nanosecond},
		{30, 33333333 * time.Nanosecond},
		{1, time.Second},
		{0, 0},
		{-5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FrameInterval(tt.fps), "fps=%d", tt.fps)
	}
}

func TestRealClock_Ticker(t *testing.T) {
	t.Parallel()

	clock := RealClock{}
	start := clock.Now()
	tk := clock.NewTicker(5 * time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
	assert.GreaterOrEqual(t, clock.Since(start), 5*time.Millisecond)
}

func TestMockClock_AdvanceFiresTicker(t *testing.T) {
	t.Parallel()

	clock := NewMockClock(epoch)
	tk := clock.NewTicker(10 * time.Millisecond)
	require.Equal(t, 1, clock.Tickers())

	clock.Advance(5 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired before its interval")
	default:
	}

	clock.Advance(5 * time.Millisecond)
	select {
	case got := <-tk.C():
		assert.Equal(t, epoch.Add(10*time.Millisecond), got)
	default:
		t.Fatal("ticker did not fire at its interval")
	}
	assert.Equal(t, 10*time.Millisecond, clock.Since(epoch))
}

func TestMockTicker_StopAndReset(t *testing.T) {
	t.Parallel()

	clock := NewMockClock(epoch)
	tk := clock.NewTicker(time.Millisecond)

	tk.Stop()
	clock.Advance(time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}

	tk.Reset(time.Millisecond)
	clock.Advance(time.Millisecond)
	select {
	case <-tk.C():
	default:
		t.Fatal("reset ticker did not fire")
	}
}

func TestMockTicker_DropsWhenFull(t *testing.T) {
	t.Parallel()

	clock := NewMockClock(epoch)
	tk := clock.NewTicker(time.Millisecond)

	clock.Advance(time.Millisecond)
	clock.Advance(time.Millisecond)

	<-tk.C()
	select {
	case <-tk.C():
		t.Fatal("expected second tick to be dropped")
	default:
	}

	tk.(*MockTicker).Trigger(epoch)
	assert.Equal(t, epoch, <-tk.C())
}
