// ABOUTME: Agent profile package
// ABOUTME: Fetches agent metadata and caches avatar images
// Package agent loads what the widget shows about a voice agent before the
// conversation starts: display name, intro message, avatar and placement.
//
// Example:
//
//	client := agent.NewClient("https://api.example.com")
//	profile, err := client.FetchProfile(ctx, "abc")
package agent
