// ABOUTME: Display frame loop sampling the analysis tap
// ABOUTME: Publishes expanded and minimized bars from one snapshot per frame
package voice

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/analysis"
)

// DefaultFrameInterval approximates a 60Hz display refresh
const DefaultFrameInterval = time.Second / 60

// FrameLoop samples the tap on its own ticker
type FrameLoop struct {
	tap            analysis.Tap
	interval       time.Duration
	expandedScale  float64
	minimizedScale float64
	onBars         func(expanded, minimized analysis.BarHeights)

	startOnce sync.Once
	launched  atomic.Bool
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewFrameLoop creates a stopped frame loop
func NewFrameLoop(tap analysis.Tap, interval time.Duration, expandedScale, minimizedScale float64,
	onBars func(expanded, minimized analysis.BarHeights)) *FrameLoop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameLoop{
		tap:            tap,
		interval:       interval,
		expandedScale:  expandedScale,
		minimizedScale: minimizedScale,
		onBars:         onBars,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Frame samples both views from a single read of the tap
func (f *FrameLoop) Frame() (expanded, minimized analysis.BarHeights) {
	snap := analysis.Capture(f.tap)
	return snap.Bars(f.expandedScale), snap.Bars(f.minimizedScale)
}

// Start launches the ticker goroutine
func (f *FrameLoop) Start() {
	f.startOnce.Do(func() {
		f.launched.Store(true)
		go f.run()
	})
}

func (f *FrameLoop) run() {
	defer close(f.done)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			expanded, minimized := f.Frame()
			if f.onBars != nil {
				f.onBars(expanded, minimized)
			}
		}
	}
}

// Stop halts the loop and waits for it. Safe to call twice or before Start.
func (f *FrameLoop) Stop() {
	f.stopOnce.Do(func() {
		close(f.stop)
	})
	// Claim the start so a later Start cannot launch
	f.startOnce.Do(func() {})
	if f.launched.Load() {
		<-f.done
	}
}
