// ABOUTME: Playback session binding one decoding sink to the output
// ABOUTME: Explicit IDLE/STREAMING/INTERRUPTED/ENDED state machine
package voice

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/output"
)

// SinkFactory creates a decoding sink writing PCM to out
type SinkFactory func(out io.Writer, events decode.Events) (decode.Sink, error)

// MP3Sinks decodes audio/mpeg into the output format
func MP3Sinks(format audio.Format) SinkFactory {
	return func(out io.Writer, events decode.Events) (decode.Sink, error) {
		return decode.NewMP3Sink(audio.MimeMPEG, out, format, events)
	}
}

// binding is one sink feeding one output binding
type binding struct {
	gen     uint64
	sink    decode.Sink
	out     *output.Binding
	failed  bool
	dropped int
}

// SessionHooks are called on the owning loop
type SessionHooks struct {
	// Dispatch runs fn on the owning loop. Sink events arrive on sink
	// goroutines and are routed through it.
	Dispatch func(fn func())

	// Playing fires when the current binding has audio ready to play
	Playing func()

	// Error reports a failure that disabled the current binding
	Error func(error)
}

// Session owns the live playback binding
type Session struct {
	id      string
	output  output.Output
	newSink SinkFactory
	hooks   SessionHooks
	buffer  *StreamBuffer

	state   atomic.Int32
	gen     uint64
	current *binding
}

// NewSession creates an idle session
func NewSession(id string, out output.Output, newSink SinkFactory, hooks SessionHooks) *Session {
	if hooks.Dispatch == nil {
		hooks.Dispatch = func(fn func()) { fn() }
	}
	return &Session{
		id:      id,
		output:  out,
		newSink: newSink,
		hooks:   hooks,
		buffer:  NewStreamBuffer(),
	}
}

// State returns the lifecycle state. Safe from any goroutine.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(state SessionState) {
	old := SessionState(s.state.Swap(int32(state)))
	if old != state {
		log.Printf("[%s] Session %s -> %s", s.id, old, state)
	}
}

// Buffer exposes the stream buffer
func (s *Session) Buffer() *StreamBuffer {
	return s.buffer
}

// Generation identifies the live binding; it increases on every rebind
func (s *Session) Generation() uint64 {
	return s.gen
}

// Start creates the first binding
func (s *Session) Start() error {
	switch s.State() {
	case Ended:
		return errors.New("session ended")
	case Idle:
		s.setState(Streaming)
		return s.bind()
	default:
		return nil
	}
}

// Enqueue queues an inbound chunk, starting the session if needed
func (s *Session) Enqueue(chunk audio.Chunk) error {
	switch s.State() {
	case Ended:
		return nil
	case Idle:
		if err := s.Start(); err != nil {
			return err
		}
	}

	if s.current == nil || s.current.failed {
		if s.current != nil {
			if s.current.dropped == 0 {
				log.Printf("[%s] Binding %d failed, dropping chunks until next barge-in", s.id, s.gen)
			}
			s.current.dropped++
		}
		return nil
	}

	if err := s.buffer.Enqueue(chunk); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// Discard drops queued chunks without touching the sink
func (s *Session) Discard() {
	s.buffer.Discard()
}

// Interrupt replaces the current binding with a fresh one
func (s *Session) Interrupt() error {
	switch s.State() {
	case Ended:
		return nil
	case Idle:
		s.buffer.Reset()
		return nil
	}

	s.setState(Interrupted)

	if b := s.current; b != nil && b.sink != nil {
		// End-of-stream is illegal mid-update, so check before aborting
		if !b.sink.Updating() {
			if err := b.sink.Abort(); err != nil {
				log.Printf("[%s] Abort failed: %v", s.id, err)
			}
		}
		if err := b.sink.EndOfStream(); err != nil {
			log.Printf("[%s] Skipping end-of-stream: %v", s.id, err)
		}
		b.sink.Close()
	}

	s.buffer.Reset()
	s.output.Rewind()

	err := s.bind()
	s.setState(Streaming)
	return err
}

// End tells the current sink no more data is coming
func (s *Session) End() error {
	if s.State() == Ended || s.current == nil || s.current.sink == nil {
		return nil
	}
	if err := s.current.sink.EndOfStream(); err != nil {
		return fmt.Errorf("end of stream: %w", err)
	}
	return nil
}

// Close releases the binding and detaches the output. Safe to call twice.
func (s *Session) Close() {
	if s.State() == Ended {
		return
	}
	s.setState(Ended)

	if s.current != nil && s.current.sink != nil {
		s.current.sink.Close()
	}
	s.current = nil
	s.buffer.Reset()
	s.buffer.SetSink(nil)
	s.output.Detach()
}

// bind creates the next binding; the output is rebound before the sink
// exists so the old decoder can no longer write
func (s *Session) bind() error {
	s.gen++
	gen := s.gen
	out := s.output.Bind()

	events := decode.Events{
		UpdateEnd: func() {
			s.hooks.Dispatch(func() { s.appendDone(gen) })
		},
		CanPlay: func() {
			s.hooks.Dispatch(func() { s.canPlay(gen) })
		},
		Ended: func() {
			s.hooks.Dispatch(func() {
				if gen == s.gen {
					log.Printf("[%s] Stream %d finished", s.id, gen)
				}
			})
		},
		Error: func(err error) {
			s.hooks.Dispatch(func() {
				if gen == s.gen {
					s.fail(err)
				}
			})
		},
	}

	b := &binding{gen: gen, out: out}
	s.current = b

	sink, err := s.newSink(out, events)
	if err != nil {
		s.buffer.SetSink(nil)
		s.fail(fmt.Errorf("failed to create sink: %w", err))
		return err
	}
	b.sink = sink
	s.buffer.SetSink(sink)
	return nil
}

func (s *Session) appendDone(gen uint64) {
	if gen != s.gen || s.State() == Ended {
		return
	}
	if err := s.buffer.AppendDone(); err != nil {
		s.fail(err)
	}
}

func (s *Session) canPlay(gen uint64) {
	if gen != s.gen || s.State() == Ended {
		return
	}
	if err := s.output.Play(); err != nil {
		// Keep buffering; playback resumes once the device allows it
		log.Printf("[%s] Playback blocked: %v", s.id, err)
	}
	if s.hooks.Playing != nil {
		s.hooks.Playing()
	}
}

// fail disables the current binding until the next interrupt
func (s *Session) fail(err error) {
	if s.current == nil || s.current.failed {
		return
	}
	s.current.failed = true
	s.buffer.Reset()
	s.buffer.SetSink(nil)
	log.Printf("[%s] Binding %d failed: %v", s.id, s.current.gen, err)
	if s.hooks.Error != nil {
		s.hooks.Error(err)
	}
}
