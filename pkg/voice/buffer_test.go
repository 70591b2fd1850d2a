// ABOUTME: Tests for the stream buffer manager
// ABOUTME: Tests ordering, the append lock and reset semantics
package voice

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/decode"
)

// newBufferedSink returns a sink whose UpdateEnd feeds back into buf
func newBufferedSink(t *testing.T, buf *StreamBuffer) *fakeSink {
	sink := &fakeSink{t: t}
	sink.events = decode.Events{
		UpdateEnd: func() {
			if err := buf.AppendDone(); err != nil {
				t.Errorf("unexpected drain error: %v", err)
			}
		},
	}
	buf.SetSink(sink)
	return sink
}

func TestStreamBufferOrdering(t *testing.T) {
	for _, n := range []int{1, 3, 17} {
		t.Run(fmt.Sprintf("%d chunks", n), func(t *testing.T) {
			buf := NewStreamBuffer()
			sink := newBufferedSink(t, buf)

			var want []string
			for i := 0; i < n; i++ {
				chunk := fmt.Sprintf("c%d", i)
				want = append(want, chunk)
				if err := buf.Enqueue(audio.Chunk(chunk)); err != nil {
					t.Fatalf("enqueue failed: %v", err)
				}
			}

			for buf.Appending() {
				sink.complete()
			}

			if got := sink.chunks(); !equalStrings(got, want) {
				t.Errorf("expected %v, got %v", want, got)
			}
			if buf.Len() != 0 {
				t.Errorf("expected empty queue, got %d", buf.Len())
			}
		})
	}
}

func TestStreamBufferSingleOutstandingAppend(t *testing.T) {
	buf := NewStreamBuffer()
	sink := newBufferedSink(t, buf)

	buf.Enqueue(audio.Chunk("a"))
	buf.Enqueue(audio.Chunk("b"))
	buf.Enqueue(audio.Chunk("c"))

	// Redundant drains are no-ops while the first append is outstanding
	buf.Drain()
	buf.Drain()

	if got := sink.chunks(); !equalStrings(got, []string{"a"}) {
		t.Fatalf("expected only the head chunk appended, got %v", got)
	}
	if buf.Len() != 2 {
		t.Errorf("expected 2 queued chunks, got %d", buf.Len())
	}

	sink.complete()
	if got := sink.chunks(); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("expected a, b after one completion, got %v", got)
	}
}

func TestStreamBufferDrainWithoutSink(t *testing.T) {
	buf := NewStreamBuffer()
	if err := buf.Enqueue(audio.Chunk("a")); err != nil {
		t.Fatalf("enqueue without sink failed: %v", err)
	}
	if buf.Len() != 1 || buf.Appending() {
		t.Errorf("expected chunk to wait for a sink, len=%d appending=%v", buf.Len(), buf.Appending())
	}

	sink := newBufferedSink(t, buf)
	buf.Drain()
	if got := sink.chunks(); !equalStrings(got, []string{"a"}) {
		t.Errorf("expected queued chunk after sink attached, got %v", got)
	}
}

func TestStreamBufferRejectedAppendDropsChunk(t *testing.T) {
	buf := NewStreamBuffer()
	sink := newBufferedSink(t, buf)
	sink.rejectErr = decode.ErrUnsupportedType

	err := buf.Enqueue(audio.Chunk("bad"))
	if !errors.Is(err, decode.ErrUnsupportedType) {
		t.Fatalf("expected wrapped rejection, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected rejected chunk to be dropped, got %d queued", buf.Len())
	}
	if buf.Appending() {
		t.Error("expected append lock to clear after rejection")
	}
}

func TestStreamBufferResetAndDiscard(t *testing.T) {
	buf := NewStreamBuffer()
	newBufferedSink(t, buf)

	buf.Enqueue(audio.Chunk("a"))
	buf.Enqueue(audio.Chunk("b"))

	buf.Discard()
	if buf.Len() != 0 {
		t.Errorf("expected empty queue after discard, got %d", buf.Len())
	}
	if !buf.Appending() {
		t.Error("discard must leave the in-flight append alone")
	}

	buf.Enqueue(audio.Chunk("c"))
	buf.Reset()
	if buf.Len() != 0 || buf.Appending() {
		t.Errorf("expected cleared queue and lock after reset, len=%d appending=%v", buf.Len(), buf.Appending())
	}
}
