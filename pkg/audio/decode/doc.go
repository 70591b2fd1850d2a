// ABOUTME: Incremental decoding sinks for streamed compressed audio
// ABOUTME: Provides the Sink interface and an MP3 implementation
// Package decode provides decoding sinks for open-ended audio streams.
//
// A Sink accepts compressed chunks one append at a time, decodes them in
// the background and writes PCM to an io.Writer (normally an output
// binding). Completion of each append, readiness to play, normal end of
// stream and decode failures are reported through Events.
//
// Example:
//
//	sink, err := decode.NewMP3Sink(audio.MimeMPEG, binding, format, decode.Events{
//	    UpdateEnd: func() { buffer.AppendDone() },
//	})
//	err = sink.Append(chunk)
package decode
