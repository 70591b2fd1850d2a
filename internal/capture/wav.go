// ABOUTME: WAV file loading for outbound audio
// ABOUTME: Decodes with go-audio/wav and converts to mono at the send rate
package capture

import (
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/resample"
)

// Clip is mono PCM in 24-bit range at a fixed rate
type Clip struct {
	SampleRate int
	Samples    []int32
}

// Duration is the clip length
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// LoadWAV reads a WAV file and converts it to mono at sampleRate
func LoadWAV(path string, sampleRate int) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("wav has no usable format")
	}

	return fromIntBuffer(buf, sampleRate)
}

// fromIntBuffer normalizes depth, downmixes and resamples
func fromIntBuffer(buf *goaudio.IntBuffer, sampleRate int) (*Clip, error) {
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}

	samples := make([]int32, len(buf.Data))
	for i, v := range buf.Data {
		s, err := to24Bit(v, depth)
		if err != nil {
			return nil, err
		}
		samples[i] = s
	}

	mono := audio.Remix(samples, buf.Format.NumChannels, 1)
	rs := resample.New(buf.Format.SampleRate, sampleRate, 1)

	return &Clip{
		SampleRate: sampleRate,
		Samples:    rs.Process(mono),
	}, nil
}

func to24Bit(v, depth int) (int32, error) {
	switch depth {
	case 8:
		return int32(v-128) << 16, nil
	case 16:
		return int32(v) << 8, nil
	case 24:
		return int32(v), nil
	case 32:
		return int32(v >> 8), nil
	default:
		return 0, fmt.Errorf("unsupported wav bit depth: %d", depth)
	}
}
