// ABOUTME: Activity monitor watching the playback position
// ABOUTME: Detects stalled playback and emits a single inactivity report
package voice

import (
	"time"
)

const (
	DefaultActivityInterval  = 150 * time.Millisecond
	DefaultInactivityTimeout = 10 * time.Second
)

// ActivityMonitor compares the playback position between ticks. A
// position of zero means nothing has played yet and never counts as a
// stall. It is driven by the controller loop and is not safe for
// concurrent use.
type ActivityMonitor struct {
	position func() time.Duration
	timeout  time.Duration

	// OnStall fires when the position first stops advancing
	OnStall func()
	// OnInactive fires once after timeout of continuous stall
	OnInactive func()

	last         time.Duration
	stalled      bool
	stalledSince time.Time
	reported     bool
}

// NewActivityMonitor creates a monitor. A timeout <= 0 disables
// inactivity reports.
func NewActivityMonitor(position func() time.Duration, timeout time.Duration) *ActivityMonitor {
	return &ActivityMonitor{
		position: position,
		timeout:  timeout,
	}
}

// Check samples the position at now
func (m *ActivityMonitor) Check(now time.Time) {
	pos := m.position()
	if pos == 0 {
		return
	}

	if pos != m.last {
		m.last = pos
		m.stalled = false
		m.reported = false
		return
	}

	if !m.stalled {
		m.stalled = true
		m.stalledSince = now
		if m.OnStall != nil {
			m.OnStall()
		}
	}

	if m.timeout > 0 && !m.reported && now.Sub(m.stalledSince) >= m.timeout {
		m.reported = true
		if m.OnInactive != nil {
			m.OnInactive()
		}
	}
}

// Reset forgets the last position and any pending report
func (m *ActivityMonitor) Reset() {
	m.last = 0
	m.stalled = false
	m.reported = false
	m.stalledSince = time.Time{}
}

// Last is the position seen at the previous tick
func (m *ActivityMonitor) Last() time.Duration {
	return m.last
}

// Advancing reports whether the position moved at the last tick
func (m *ActivityMonitor) Advancing() bool {
	return m.last != 0 && !m.stalled
}
