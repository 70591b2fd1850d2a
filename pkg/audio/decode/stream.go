// ABOUTME: Unbounded blocking byte stream between appends and the decoder
// ABOUTME: Writes never block; reads wait for data, end of stream or abort
package decode

import (
	"bytes"
	"io"
	"sync"
)

// Stream buffers appended bytes for a decoder running on another goroutine
type Stream struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  bytes.Buffer
	eof  bool
	err  error
}

// NewStream creates an empty stream
func NewStream() *Stream {
	s := &Stream{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Write appends p. It fails once the stream was finished or aborted.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil || s.eof {
		return 0, ErrClosed
	}
	n, _ := s.buf.Write(p)
	s.cond.Broadcast()
	return n, nil
}

// Read blocks until data is available. It returns io.EOF after CloseWrite
// once the buffer is drained, and the abort error immediately after Abort.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.buf.Len() == 0 && !s.eof && s.err == nil {
		s.cond.Wait()
	}
	if s.err != nil {
		return 0, s.err
	}
	if s.buf.Len() == 0 {
		return 0, io.EOF
	}
	return s.buf.Read(p)
}

// CloseWrite marks the end of the stream; buffered bytes stay readable
func (s *Stream) CloseWrite() {
	s.mu.Lock()
	s.eof = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Abort drops buffered bytes and fails pending and future reads with err
func (s *Stream) Abort(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.buf.Reset()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Buffered returns the number of bytes not yet read
func (s *Stream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}
