// ABOUTME: Test doubles for the voice package
// ABOUTME: Recording sink, output and channel without hardware or network
package voice

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/output"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/protocol"
)

var testFormat = audio.Format{SampleRate: 48000, Channels: 2}

// opLog records operations across fakes so tests can check ordering
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *opLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

// fakeSink accepts one append at a time and fails the test otherwise
type fakeSink struct {
	t      *testing.T
	log    *opLog
	events decode.Events
	out    io.Writer

	mu        sync.Mutex
	appended  []string
	busy      bool
	rejectErr error
	closed    bool
}

func (s *fakeSink) Append(chunk audio.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		s.t.Errorf("append of %q while another append is outstanding", chunk)
		return decode.ErrUpdating
	}
	if s.rejectErr != nil {
		return s.rejectErr
	}
	s.busy = true
	s.appended = append(s.appended, string(chunk))
	return nil
}

func (s *fakeSink) Updating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *fakeSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return decode.ErrUpdating
	}
	s.log.add("abort")
	return nil
}

func (s *fakeSink) EndOfStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return decode.ErrUpdating
	}
	s.log.add("eos")
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.log.add("sink-close")
	return nil
}

// complete finishes the outstanding append and fires UpdateEnd
func (s *fakeSink) complete() {
	s.mu.Lock()
	if !s.busy {
		s.mu.Unlock()
		s.t.Error("complete called with no append outstanding")
		return
	}
	s.busy = false
	s.mu.Unlock()
	s.events.UpdateEnd()
}

func (s *fakeSink) chunks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.appended...)
}

func (s *fakeSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeSinks is a SinkFactory keeping every sink it made
type fakeSinks struct {
	t   *testing.T
	log *opLog

	mu    sync.Mutex
	sinks []*fakeSink
	fail  error
}

func (f *fakeSinks) factory(out io.Writer, events decode.Events) (decode.Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	s := &fakeSink{t: f.t, log: f.log, events: events, out: out}
	f.sinks = append(f.sinks, s)
	f.log.add("bind")
	return s, nil
}

func (f *fakeSinks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sinks)
}

func (f *fakeSinks) last() *fakeSink {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sinks) == 0 {
		return nil
	}
	return f.sinks[len(f.sinks)-1]
}

// fakeOutput wraps a real buffer with a settable position
type fakeOutput struct {
	*output.Buffer
	log *opLog

	pos     atomic.Int64
	playErr error
	plays   atomic.Int32
	closes  atomic.Int32
}

func newFakeOutput(log *opLog) *fakeOutput {
	return &fakeOutput{Buffer: output.NewBuffer(testFormat, nil), log: log}
}

func (o *fakeOutput) Play() error {
	o.plays.Add(1)
	o.log.add("play")
	return o.playErr
}

func (o *fakeOutput) Pause() {
	o.log.add("pause")
}

func (o *fakeOutput) Detach() {
	o.log.add("detach")
	o.Buffer.Detach()
}

func (o *fakeOutput) Rewind() {
	o.log.add("rewind")
	o.pos.Store(0)
	o.Buffer.Rewind()
}

func (o *fakeOutput) Position() time.Duration {
	return time.Duration(o.pos.Load())
}

func (o *fakeOutput) setPosition(d time.Duration) {
	o.pos.Store(int64(d))
}

func (o *fakeOutput) Close() error {
	o.closes.Add(1)
	o.log.add("output-close")
	o.Buffer.Close()
	return nil
}

// fakeChannel delivers frames one at a time
type fakeChannel struct {
	log    *opLog
	frames chan protocol.Frame

	mu     sync.Mutex
	sent   []protocol.Message
	err    error
	closes int
}

func newFakeChannel(log *opLog) *fakeChannel {
	return &fakeChannel{log: log, frames: make(chan protocol.Frame)}
}

func (c *fakeChannel) Frames() <-chan protocol.Frame {
	return c.frames
}

func (c *fakeChannel) SendJSON(v any) error {
	msg, ok := v.(protocol.Message)
	if !ok {
		return errors.New("unexpected message type")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeChannel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.log.add("channel-close")
	return nil
}

func (c *fakeChannel) messages() []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Message(nil), c.sent...)
}

// send blocks until the controller loop has taken the frame
func (c *fakeChannel) send(t *testing.T, frame protocol.Frame) {
	t.Helper()
	select {
	case c.frames <- frame:
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not take frame")
	}
}

func (c *fakeChannel) sendText(t *testing.T, text string) {
	t.Helper()
	c.send(t, protocol.Frame{Data: []byte(text)})
}

func (c *fakeChannel) sendBinary(t *testing.T, data string) {
	t.Helper()
	c.send(t, protocol.Frame{Binary: true, Data: []byte(data)})
}

// fixedTap reports a constant spectrum
type fixedTap struct {
	bins []uint8
}

func (f *fixedTap) FrequencyBinCount() int { return len(f.bins) }

func (f *fixedTap) ByteFrequencyData(dst []uint8) { copy(dst, f.bins) }

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
