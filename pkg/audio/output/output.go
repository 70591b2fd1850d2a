// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for playback backends with rebindable input
package output

import (
	"errors"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
)

// ErrDetached is returned when writing through a binding that was replaced
var ErrDetached = errors.New("output binding detached")

// ErrClosed is returned by operations on a closed output
var ErrClosed = errors.New("output closed")

// Output represents an audio output device
type Output interface {
	// Format returns the PCM format the output expects
	Format() audio.Format

	// Bind invalidates the current binding, drops queued PCM and returns a new one
	Bind() *Binding

	// Detach invalidates the current binding without creating a new one
	Detach()

	// Play starts or resumes playback
	Play() error

	// Pause stops consuming PCM; queued data is kept
	Pause()

	// Position returns how much real audio has been played since the last rewind
	Position() time.Duration

	// Rewind drops queued PCM and resets the position to zero
	Rewind()

	// Close releases output resources
	Close() error
}

// Tap receives every block of PCM handed to the device, silence included
type Tap interface {
	Write(pcm []byte, format audio.Format)
}

// Binding is the write side of one playback binding
type Binding struct {
	buf *Buffer
	gen uint64
}

// Write queues PCM for playback. It fails with ErrDetached once the
// output has been rebound.
func (b *Binding) Write(p []byte) (int, error) {
	return b.buf.write(b.gen, p)
}

// Live reports whether this binding is still the current one
func (b *Binding) Live() bool {
	return b.buf.live(b.gen)
}
