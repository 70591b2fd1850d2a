// ABOUTME: PCM queue between the decoder and the audio device
// ABOUTME: Tracks playback position and feeds the analysis tap
package output

import (
	"bytes"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
)

// Buffer queues PCM written through bindings and is read by the device.
// Reads never block: missing data is filled with silence, which does not
// advance the position.
type Buffer struct {
	mu       sync.Mutex
	format   audio.Format
	tap      Tap
	queue    bytes.Buffer
	gen      uint64
	bound    bool
	playing  bool
	closed   bool
	consumed int64 // bytes of real audio handed to the device
}

// NewBuffer creates a paused buffer for format. tap may be nil.
func NewBuffer(format audio.Format, tap Tap) *Buffer {
	return &Buffer{format: format, tap: tap}
}

// Format returns the PCM format of the buffer
func (b *Buffer) Format() audio.Format {
	return b.format
}

// Bind invalidates the current binding and returns a new one
func (b *Buffer) Bind() *Binding {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.gen++
	b.bound = true
	b.queue.Reset()
	return &Binding{buf: b, gen: b.gen}
}

// Detach invalidates the current binding
func (b *Buffer) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.gen++
	b.bound = false
	b.queue.Reset()
}

// SetPlaying toggles whether reads consume queued PCM
func (b *Buffer) SetPlaying(playing bool) {
	b.mu.Lock()
	b.playing = playing
	b.mu.Unlock()
}

// Playing reports whether the buffer is consuming PCM
func (b *Buffer) Playing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// Position returns the duration of real audio read since the last rewind
func (b *Buffer) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.format.Duration(b.consumed)
}

// Rewind drops queued PCM and resets the position
func (b *Buffer) Rewind() {
	b.mu.Lock()
	b.queue.Reset()
	b.consumed = 0
	b.mu.Unlock()
}

// Queued returns the number of PCM bytes waiting to be played
func (b *Buffer) Queued() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Len()
}

// Close makes every binding stale and every read return silence
func (b *Buffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.gen++
	b.bound = false
	b.playing = false
	b.queue.Reset()
	b.mu.Unlock()
}

func (b *Buffer) write(gen uint64, p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if !b.bound || gen != b.gen {
		return 0, ErrDetached
	}
	return b.queue.Write(p)
}

func (b *Buffer) live(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound && !b.closed && gen == b.gen
}

// Read fills p for the device. It always returns len(p) rounded down to
// whole frames so the device never stalls.
func (b *Buffer) Read(p []byte) (int, error) {
	frame := b.format.FrameSize()
	if frame > 0 {
		p = p[:len(p)-len(p)%frame]
	}

	b.mu.Lock()
	n := 0
	if b.playing && !b.closed {
		n, _ = b.queue.Read(p)
		b.consumed += int64(n)
	}
	tap := b.tap
	b.mu.Unlock()

	clear(p[n:])
	if tap != nil {
		tap.Write(p, b.format)
	}
	return len(p), nil
}
