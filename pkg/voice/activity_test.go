// ABOUTME: Tests for the activity monitor
// ABOUTME: Uses simulated time to check stall and inactivity reporting
package voice

import (
	"testing"
	"time"
)

type monitorFixture struct {
	pos      time.Duration
	stalls   int
	inactive int
	monitor  *ActivityMonitor
	now      time.Time
}

func newMonitorFixture(timeout time.Duration) *monitorFixture {
	f := &monitorFixture{now: time.Unix(1700000000, 0)}
	f.monitor = NewActivityMonitor(func() time.Duration { return f.pos }, timeout)
	f.monitor.OnStall = func() { f.stalls++ }
	f.monitor.OnInactive = func() { f.inactive++ }
	return f
}

// run ticks every 150ms for d of simulated time
func (f *monitorFixture) run(d time.Duration) {
	for end := f.now.Add(d); f.now.Before(end); {
		f.now = f.now.Add(DefaultActivityInterval)
		f.monitor.Check(f.now)
	}
}

func TestActivityZeroPositionIsNotStall(t *testing.T) {
	f := newMonitorFixture(DefaultInactivityTimeout)
	f.run(30 * time.Second)

	if f.stalls != 0 || f.inactive != 0 {
		t.Errorf("expected no reports before playback starts, got stalls=%d inactive=%d", f.stalls, f.inactive)
	}
}

func TestActivityEmitsSingleInactivity(t *testing.T) {
	f := newMonitorFixture(DefaultInactivityTimeout)
	f.pos = 3 * time.Second

	f.run(9 * time.Second)
	if f.inactive != 0 {
		t.Fatalf("expected no report before timeout, got %d", f.inactive)
	}

	f.run(2 * time.Second)
	if f.inactive != 1 {
		t.Fatalf("expected one report after timeout, got %d", f.inactive)
	}

	f.run(60 * time.Second)
	if f.inactive != 1 {
		t.Errorf("expected no repeat while frozen, got %d", f.inactive)
	}
	if f.stalls != 1 {
		t.Errorf("expected one stall notification, got %d", f.stalls)
	}
}

func TestActivityAdvanceCancelsPendingReport(t *testing.T) {
	f := newMonitorFixture(DefaultInactivityTimeout)
	f.pos = time.Second

	f.run(8 * time.Second)
	f.pos = 2 * time.Second
	f.run(DefaultActivityInterval)
	if !f.monitor.Advancing() {
		t.Error("expected monitor to see playback advancing")
	}

	f.run(8 * time.Second)
	if f.inactive != 0 {
		t.Errorf("expected advance to restart the quiet period, got %d reports", f.inactive)
	}

	f.run(3 * time.Second)
	if f.inactive != 1 {
		t.Errorf("expected a report after a full quiet period, got %d", f.inactive)
	}
}

func TestActivityReportsAgainAfterResume(t *testing.T) {
	f := newMonitorFixture(DefaultInactivityTimeout)
	f.pos = time.Second
	f.run(11 * time.Second)

	f.pos = 5 * time.Second
	f.run(11 * time.Second)

	if f.inactive != 2 {
		t.Errorf("expected a second report after activity resumed, got %d", f.inactive)
	}
	if f.stalls != 2 {
		t.Errorf("expected two stall notifications, got %d", f.stalls)
	}
}

func TestActivityReset(t *testing.T) {
	f := newMonitorFixture(DefaultInactivityTimeout)
	f.pos = 4 * time.Second
	f.run(5 * time.Second)

	f.monitor.Reset()
	if f.monitor.Last() != 0 {
		t.Errorf("expected last position 0 after reset, got %v", f.monitor.Last())
	}

	// Same frozen position after reset counts as fresh progress first
	f.run(9 * time.Second)
	if f.inactive != 0 {
		t.Errorf("expected reset to cancel the pending report, got %d", f.inactive)
	}
}

func TestActivityDisabledTimeout(t *testing.T) {
	f := newMonitorFixture(-1)
	f.pos = time.Second
	f.run(time.Minute)

	if f.inactive != 0 {
		t.Errorf("expected no reports with timeout disabled, got %d", f.inactive)
	}
	if f.stalls != 1 {
		t.Errorf("expected stall notification, got %d", f.stalls)
	}
}
