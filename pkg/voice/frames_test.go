// ABOUTME: Tests for the display frame loop
// ABOUTME: Tests shared snapshots and stop semantics
package voice

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/analysis"
)

func TestFrameLoopFrame(t *testing.T) {
	bins := make([]uint8, 128)
	bins[63] = 102
	bins[64] = 255
	loop := NewFrameLoop(&fixedTap{bins: bins}, 0, 1, 0.2, nil)

	expanded, minimized := loop.Frame()

	want := analysis.BarHeights{120, 300, 120}
	for i := range want {
		if math.Abs(expanded[i]-want[i]) > 1e-9 {
			t.Errorf("bar %d: expected %v, got %v", i, want[i], expanded[i])
		}
		if math.Abs(expanded[i]-5*minimized[i]) > 1e-9 {
			t.Errorf("bar %d: expected 5x ratio, got %v vs %v", i, expanded[i], minimized[i])
		}
	}
}

func TestFrameLoopPublishesUntilStopped(t *testing.T) {
	var frames atomic.Int32
	loop := NewFrameLoop(&fixedTap{bins: make([]uint8, 128)}, time.Millisecond, 1, 0.2,
		func(expanded, minimized analysis.BarHeights) { frames.Add(1) })

	loop.Start()
	deadline := time.Now().Add(2 * time.Second)
	for frames.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if frames.Load() < 3 {
		t.Fatalf("expected frames to be published, got %d", frames.Load())
	}

	loop.Stop()
	stopped := frames.Load()
	time.Sleep(20 * time.Millisecond)
	if frames.Load() != stopped {
		t.Errorf("frames published after stop: %d -> %d", stopped, frames.Load())
	}

	loop.Stop()
}

func TestFrameLoopStopBeforeStart(t *testing.T) {
	loop := NewFrameLoop(nil, 0, 1, 0.2, nil)

	done := make(chan struct{})
	go func() {
		loop.Stop()
		loop.Start()
		loop.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop before start blocked")
	}
}

func TestFrameLoopDoubleStopWithoutStart(t *testing.T) {
	loop := NewFrameLoop(nil, 0, 1, 0.2, nil)

	done := make(chan struct{})
	go func() {
		loop.Stop()
		loop.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second stop on an unstarted loop blocked")
	}
}
