// ABOUTME: Decoding sink interface definition
// ABOUTME: Common contract for incremental audio decoders
package decode

import (
	"errors"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
)

var (
	// ErrClosed is returned when appending to a sink that has ended or was closed
	ErrClosed = errors.New("sink closed")

	// ErrUpdating is returned when an operation is illegal while an append is in flight
	ErrUpdating = errors.New("sink is updating")

	// ErrUnsupportedType is returned for a mime type the sink cannot decode
	ErrUnsupportedType = errors.New("unsupported mime type")

	// ErrAborted is reported to readers of an aborted stream
	ErrAborted = errors.New("stream aborted")
)

// Sink is an incremental decoder fed with compressed chunks
type Sink interface {
	// Append hands one chunk to the sink. It returns immediately; completion
	// is reported through Events.UpdateEnd. Only one append may be in flight.
	Append(chunk audio.Chunk) error

	// Updating reports whether an append is in flight
	Updating() bool

	// Abort discards data that has not been decoded yet and stops decoding
	Abort() error

	// EndOfStream signals that no more chunks will be appended
	EndOfStream() error

	// Close releases the sink
	Close() error
}

// Events are the notifications a sink emits. They are called from the
// sink's own goroutines; nil callbacks are skipped.
type Events struct {
	UpdateEnd func()
	CanPlay   func()
	Ended     func()
	Error     func(error)
}

func (e Events) updateEnd() {
	if e.UpdateEnd != nil {
		e.UpdateEnd()
	}
}

func (e Events) canPlay() {
	if e.CanPlay != nil {
		e.CanPlay()
	}
}

func (e Events) ended() {
	if e.Ended != nil {
		e.Ended()
	}
}

func (e Events) error(err error) {
	if e.Error != nil {
		e.Error(err)
	}
}
