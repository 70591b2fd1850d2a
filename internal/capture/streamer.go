// ABOUTME: Paced sender of captured audio as audioIn messages
// ABOUTME: Waits for socket ready, then encodes and sends in real time
package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/protocol"
)

// DefaultPCMChunk matches the half-second slices a browser recorder emits
const DefaultPCMChunk = 500 * time.Millisecond

// Sender is the outbound side of a voice session
type Sender interface {
	SendAudio(chunk []byte) error
	SocketReady() bool
}

// Config holds streamer configuration
type Config struct {
	Codec      string // encode.CodecOpus or encode.CodecPCM
	SampleRate int
	Chunk      time.Duration // PCM slice length; Opus always uses 20ms
	Loop       bool

	// OnSent is called after each chunk with the running total
	OnSent func(sent int)
}

// Streamer sends a clip to the agent at real-time pace
type Streamer struct {
	config  Config
	clip    *Clip
	encoder encode.Encoder
	frame   int // samples per send
	period  time.Duration
}

// NewStreamer prepares clip for sending
func NewStreamer(clip *Clip, config Config) (*Streamer, error) {
	if config.Codec == "" {
		config.Codec = encode.CodecOpus
	}
	if config.SampleRate == 0 {
		config.SampleRate = clip.SampleRate
	}
	if config.SampleRate != clip.SampleRate {
		return nil, fmt.Errorf("clip rate %d does not match send rate %d", clip.SampleRate, config.SampleRate)
	}
	if config.Chunk <= 0 {
		config.Chunk = DefaultPCMChunk
	}

	enc, err := encode.New(config.Codec, config.SampleRate, 1)
	if err != nil {
		return nil, err
	}

	frame := enc.FrameSize()
	if frame == 0 {
		frame = int(int64(config.SampleRate) * int64(config.Chunk) / int64(time.Second))
	}
	if frame <= 0 {
		enc.Close()
		return nil, fmt.Errorf("chunk too short: %v", config.Chunk)
	}

	return &Streamer{
		config:  config,
		clip:    clip,
		encoder: enc,
		frame:   frame,
		period:  time.Duration(frame) * time.Second / time.Duration(config.SampleRate),
	}, nil
}

// Chunks is how many sends one pass over the clip takes
func (s *Streamer) Chunks() int {
	return (len(s.clip.Samples) + s.frame - 1) / s.frame
}

// Period is the time between sends
func (s *Streamer) Period() time.Duration {
	return s.period
}

// Run waits for the socket to become ready and streams the clip. It
// returns the number of chunks sent when the clip ends or ctx is done.
func (s *Streamer) Run(ctx context.Context, sender Sender) (int, error) {
	defer s.encoder.Close()

	if err := waitReady(ctx, sender); err != nil {
		return 0, err
	}
	log.Printf("Streaming %v of %s audio at %dHz", s.clip.Duration(), s.config.Codec, s.config.SampleRate)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	sent := 0
	pos := 0
	for {
		if pos >= len(s.clip.Samples) {
			if !s.config.Loop || len(s.clip.Samples) == 0 {
				return sent, nil
			}
			pos = 0
		}

		end := pos + s.frame
		if end > len(s.clip.Samples) {
			end = len(s.clip.Samples)
		}

		data, err := s.encoder.Encode(s.clip.Samples[pos:end])
		if err != nil {
			return sent, fmt.Errorf("failed to encode chunk: %w", err)
		}
		pos = end

		if err := sender.SendAudio(data); err != nil {
			if errors.Is(err, protocol.ErrClosed) {
				return sent, nil
			}
			return sent, fmt.Errorf("failed to send chunk: %w", err)
		}
		sent++
		if s.config.OnSent != nil {
			s.config.OnSent(sent)
		}

		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
		}
	}
}

// waitReady polls until the agent has said ready
func waitReady(ctx context.Context, sender Sender) error {
	if sender.SocketReady() {
		return nil
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if sender.SocketReady() {
				return nil
			}
		}
	}
}
