// ABOUTME: Voice agent wire protocol package
// ABOUTME: Defines control messages and the websocket client
// Package protocol implements the duplex channel between the widget and a
// voice agent.
//
// Binary frames from the agent carry MP3 chunks. Text frames carry JSON
// objects with a "type" field. The client delivers both kinds on a single
// ordered channel so that control frames are never reordered ahead of
// audio that preceded them on the wire.
//
// Example:
//
//	client, err := protocol.Dial(ctx, protocol.Config{URL: url, AgentID: id})
//	for frame := range client.Frames() {
//		...
//	}
package protocol
