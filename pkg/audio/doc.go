// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Chunk types and sample conversion functions
// Package audio provides the types shared by the playback pipeline.
//
// This package defines:
//   - Chunk: one unit of compressed audio exactly as it arrived on the wire
//   - Format: the PCM layout of the output device (signed 16-bit, interleaved)
//
// It also provides helpers for moving samples between int16, int32 and
// little-endian byte slices.
//
// Example:
//
//	format := audio.Format{SampleRate: 48000, Channels: 2}
//	fmt.Println(format.Duration(format.BytesPerSecond())) // 1s
package audio
