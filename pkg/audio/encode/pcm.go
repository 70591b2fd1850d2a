// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to 16-bit little-endian PCM bytes
package encode

import "github.com/Resonate-Protocol/voicewidget-go/pkg/audio"

// PCMEncoder encodes raw s16le PCM
type PCMEncoder struct{}

// NewPCM creates a new PCM encoder
func NewPCM() *PCMEncoder {
	return &PCMEncoder{}
}

// Encode converts int32 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	return audio.EncodeS16LE(samples), nil
}

// FrameSize is 0: PCM has no framing
func (e *PCMEncoder) FrameSize() int {
	return 0
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
