// ABOUTME: Audio type definitions
// ABOUTME: Defines compressed chunks, PCM formats and sample conversions
package audio

import (
	"encoding/binary"
	"time"
)

// MimeMPEG is the only compressed type the voice agent streams
const MimeMPEG = "audio/mpeg"

// BytesPerSample is the size of one PCM sample on the output path (s16le)
const BytesPerSample = 2

// Chunk is one compressed audio unit as received from the channel.
// Chunks are never mutated after creation.
type Chunk []byte

// NewChunk copies data into a new Chunk so the caller may reuse its buffer
func NewChunk(data []byte) Chunk {
	c := make(Chunk, len(data))
	copy(c, data)
	return c
}

// Format describes the PCM layout of the output path
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerSecond returns the PCM byte rate for the format
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * BytesPerSample
}

// FrameSize returns the number of bytes in one interleaved frame
func (f Format) FrameSize() int {
	return f.Channels * BytesPerSample
}

// Duration converts a PCM byte count into playback time
func (f Format) Duration(n int64) time.Duration {
	bps := int64(f.BytesPerSecond())
	if bps == 0 {
		return 0
	}
	return time.Duration(n * int64(time.Second) / bps)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// DecodeS16LE reads little-endian 16-bit samples into int32 (24-bit range).
// A trailing odd byte is ignored.
func DecodeS16LE(data []byte) []int32 {
	samples := make([]int32, len(data)/2)
	for i := range samples {
		samples[i] = SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return samples
}

// EncodeS16LE writes int32 samples (24-bit range) as little-endian 16-bit PCM
func EncodeS16LE(samples []int32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(SampleToInt16(s)))
	}
	return out
}

// Remix converts interleaved samples between channel counts.
// Stereo to mono averages both channels, mono to stereo duplicates.
func Remix(samples []int32, from, to int) []int32 {
	if from == to || from <= 0 || to <= 0 {
		return samples
	}
	frames := len(samples) / from
	out := make([]int32, frames*to)
	for f := 0; f < frames; f++ {
		var sum int64
		for ch := 0; ch < from; ch++ {
			sum += int64(samples[f*from+ch])
		}
		mixed := int32(sum / int64(from))
		for ch := 0; ch < to; ch++ {
			if from == 1 {
				out[f*to+ch] = samples[f]
			} else {
				out[f*to+ch] = mixed
			}
		}
	}
	return out
}
