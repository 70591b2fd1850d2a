// ABOUTME: MP3 decoding sink
// ABOUTME: Decodes an appended MP3 stream to PCM in the output format
package decode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/resample"
	"github.com/hajimehoshi/go-mp3"
)

// mp3FrameBytes is one decoded MPEG-1 Layer III frame (1152 stereo s16 samples)
const mp3FrameBytes = 1152 * 2 * 2

// MP3Sink decodes an open-ended MP3 stream appended chunk by chunk
type MP3Sink struct {
	mu       sync.Mutex
	stream   *Stream
	out      io.Writer
	format   audio.Format
	events   Events
	updating bool
	ended    bool
	aborted  bool
	closed   bool
	done     chan struct{}
}

// NewMP3Sink creates a sink for mimeType writing PCM in format to out.
// The decoder goroutine starts immediately and waits for the first frame.
func NewMP3Sink(mimeType string, out io.Writer, format audio.Format, events Events) (*MP3Sink, error) {
	if mimeType != audio.MimeMPEG {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("invalid output format: %dHz %dch", format.SampleRate, format.Channels)
	}

	s := &MP3Sink{
		stream: NewStream(),
		out:    out,
		format: format,
		events: events,
		done:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Append queues chunk for decoding; UpdateEnd fires once it is accepted
func (s *MP3Sink) Append(chunk audio.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.ended || s.aborted {
		return ErrClosed
	}
	if s.updating {
		return ErrUpdating
	}
	s.updating = true

	go func() {
		_, err := s.stream.Write(chunk)

		s.mu.Lock()
		s.updating = false
		s.mu.Unlock()

		if err != nil {
			if !s.stopped() {
				s.events.error(fmt.Errorf("append rejected: %w", err))
			}
			return
		}
		s.events.updateEnd()
	}()
	return nil
}

// Updating reports whether an append is in flight
func (s *MP3Sink) Updating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updating
}

// Abort drops undecoded data and stops the decoder
func (s *MP3Sink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.updating {
		return ErrUpdating
	}
	s.aborted = true
	s.stream.Abort(ErrAborted)
	return nil
}

// EndOfStream lets the decoder finish what was appended and then report Ended
func (s *MP3Sink) EndOfStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updating {
		return ErrUpdating
	}
	if s.closed || s.ended || s.aborted {
		return nil
	}
	s.ended = true
	s.stream.CloseWrite()
	return nil
}

// Close stops decoding without waiting for the decoder goroutine
func (s *MP3Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.stream.Abort(ErrClosed)
	return nil
}

// Done is closed when the decoder goroutine has exited
func (s *MP3Sink) Done() <-chan struct{} {
	return s.done
}

// stopped reports whether decoding was cancelled on purpose
func (s *MP3Sink) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.aborted
}

func (s *MP3Sink) run() {
	defer close(s.done)

	dec, err := mp3.NewDecoder(s.stream)
	if err != nil {
		s.finish(err, "failed to read mp3 header")
		return
	}

	// go-mp3 always produces stereo s16le
	rs := resample.New(dec.SampleRate(), s.format.SampleRate, 2)
	log.Printf("MP3 stream: %dHz -> %dHz %dch", dec.SampleRate(), s.format.SampleRate, s.format.Channels)

	buf := make([]byte, mp3FrameBytes)
	playing := false
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			samples := rs.Process(audio.DecodeS16LE(buf[:n]))
			samples = audio.Remix(samples, 2, s.format.Channels)
			if len(samples) > 0 {
				if _, werr := s.out.Write(audio.EncodeS16LE(samples)); werr != nil {
					// Output was rebound to a newer sink
					return
				}
				if !playing {
					playing = true
					s.events.canPlay()
				}
			}
		}
		if err != nil {
			s.finish(err, "mp3 decode failed")
			return
		}
	}
}

// finish classifies the error that ended the decode loop
func (s *MP3Sink) finish(err error, context string) {
	if s.stopped() {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.events.ended()
		return
	}
	s.events.error(fmt.Errorf("%s: %w", context, err))
}
