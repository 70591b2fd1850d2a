// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all outbound audio encoders
package encode

import "fmt"

// Encoder encodes PCM int32 samples
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// FrameSize is the samples per channel each Encode call expects,
	// or 0 when any length is accepted
	FrameSize() int

	// Close releases encoder resources
	Close() error
}

// Codec names accepted by New
const (
	CodecPCM  = "pcm"
	CodecOpus = "opus"
)

// New creates an encoder by codec name
func New(codec string, sampleRate, channels int) (Encoder, error) {
	switch codec {
	case CodecPCM:
		return NewPCM(), nil
	case CodecOpus:
		enc, err := NewOpus(sampleRate, channels)
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}
