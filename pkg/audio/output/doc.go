// ABOUTME: Audio output package for playing decoded streams
// ABOUTME: Provides Output interface, PCM buffer and oto implementation
// Package output provides audio playback for decoded PCM.
//
// An Output accepts PCM through a Binding. Binding again (or detaching)
// invalidates the previous Binding and drops whatever it had queued, so a
// stale decoder can never feed the device after a barge-in.
//
// Example:
//
//	out := output.NewOto(audio.Format{SampleRate: 48000, Channels: 2}, tap)
//	err := out.Open()
//	binding := out.Bind()
//	_, err = binding.Write(pcm)
//	err = out.Play()
package output
