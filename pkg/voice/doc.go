// ABOUTME: Voice agent playback core
// ABOUTME: Stream buffering, playback sessions, activity and the controller loop
// Package voice plays an open-ended MP3 stream sent by a voice agent and
// reports what the widget should show.
//
// A Controller owns one event loop goroutine. Inbound frames, decoder
// notifications and activity ticks are all handled on it, so the stream
// buffer and playback session need no locking of their own. Bar heights are
// sampled on a separate frame goroutine that only reads the analysis tap.
//
// Example:
//
//	ctrl, err := voice.Connect(ctx, voice.Config{
//		AgentID:   "abc",
//		SocketURL: "wss://agent.example.com/ws",
//		OnBars: func(expanded, minimized analysis.BarHeights) { ... },
//	})
//	defer ctrl.Close()
package voice
