// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded audio to the output device rate
// Package resample provides streaming sample rate conversion.
//
// The resampler keeps the last input frame between calls so chunk
// boundaries do not produce clicks.
//
// Example:
//
//	r := resample.New(24000, 48000, 2)
//	out := r.Process(samples)
package resample
