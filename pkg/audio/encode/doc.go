// ABOUTME: Audio encoder package for outbound microphone audio
// ABOUTME: Provides Encoder interface with PCM and Opus implementations
// Package encode turns captured PCM into the payload carried by audioIn
// messages.
//
// All encoders accept int32 samples in 24-bit range.
//
// Example:
//
//	enc, err := encode.NewOpus(audio.Format{SampleRate: 48000, Channels: 1})
//	packet, err := enc.Encode(frame)
package encode
