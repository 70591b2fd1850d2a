// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms int32 frames to Opus packets
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxPacketSize is the largest Opus packet we allocate for
const maxPacketSize = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder   *opus.Encoder
	channels  int
	frameSize int
	pcm       []int16
	packet    []byte
}

// NewOpus creates a VoIP-tuned Opus encoder
func NewOpus(sampleRate, channels int) (*OpusEncoder, error) {
	switch sampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("unsupported opus sample rate: %d", sampleRate)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported opus channel count: %d", channels)
	}

	encoder, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	frameSize := sampleRate / 50 // 20ms frame

	return &OpusEncoder{
		encoder:   encoder,
		channels:  channels,
		frameSize: frameSize,
		pcm:       make([]int16, frameSize*channels),
		packet:    make([]byte, maxPacketSize),
	}, nil
}

// Encode converts one frame of int32 samples to an Opus packet.
// Short frames are padded with silence.
func (e *OpusEncoder) Encode(samples []int32) ([]byte, error) {
	if len(samples) > len(e.pcm) {
		return nil, fmt.Errorf("frame too long: %d samples, want %d", len(samples), len(e.pcm))
	}

	for i := range e.pcm {
		if i < len(samples) {
			e.pcm[i] = audio.SampleToInt16(samples[i])
		} else {
			e.pcm[i] = 0
		}
	}

	n, err := e.encoder.Encode(e.pcm, e.packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	out := make([]byte, n)
	copy(out, e.packet[:n])
	return out, nil
}

// FrameSize is samples per channel in a 20ms frame
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
