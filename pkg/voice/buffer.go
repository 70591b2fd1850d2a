// ABOUTME: Stream buffer manager feeding chunks to the decoding sink
// ABOUTME: Keeps arrival order with at most one append in flight
package voice

import (
	"fmt"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/decode"
)

// StreamBuffer queues chunks until the sink can take them. It is owned by
// the controller loop and is not safe for concurrent use.
type StreamBuffer struct {
	queue     []audio.Chunk
	appending bool
	sink      decode.Sink
}

// NewStreamBuffer creates an empty buffer with no sink
func NewStreamBuffer() *StreamBuffer {
	return &StreamBuffer{}
}

// SetSink points the buffer at a new sink. The append lock starts clear.
func (b *StreamBuffer) SetSink(sink decode.Sink) {
	b.sink = sink
	b.appending = false
}

// Enqueue adds a chunk and tries to drain
func (b *StreamBuffer) Enqueue(chunk audio.Chunk) error {
	b.queue = append(b.queue, chunk)
	return b.Drain()
}

// Drain hands the head chunk to the sink when nothing is in flight.
// Calling it when not ready is a no-op.
func (b *StreamBuffer) Drain() error {
	if b.appending || len(b.queue) == 0 || b.sink == nil || b.sink.Updating() {
		return nil
	}

	b.appending = true
	chunk := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]

	if err := b.sink.Append(chunk); err != nil {
		// The chunk is dropped; re-appending the same bytes cannot succeed
		b.appending = false
		return fmt.Errorf("append rejected: %w", err)
	}
	return nil
}

// AppendDone is the sink's update-end notification
func (b *StreamBuffer) AppendDone() error {
	b.appending = false
	return b.Drain()
}

// Reset clears the queue and the append lock
func (b *StreamBuffer) Reset() {
	b.queue = nil
	b.appending = false
}

// Discard clears the queue but leaves an in-flight append alone
func (b *StreamBuffer) Discard() {
	b.queue = nil
}

// Len is the number of queued chunks
func (b *StreamBuffer) Len() int {
	return len(b.queue)
}

// Appending reports whether an append is outstanding
func (b *StreamBuffer) Appending() bool {
	return b.appending
}
