// ABOUTME: mDNS service discovery package
// ABOUTME: Discover and advertise voice agent gateways on the local network
// Package discovery finds voice agent gateways on the local network and lets
// a gateway advertise itself.
//
// Gateways register as _voiceagent._tcp with TXT records naming the
// websocket path (path=) and the agent API path (api=).
//
// Example:
//
//	gw, err := discovery.Discover(ctx, 5*time.Second)
//	socketURL, apiURL := gw.SocketURL(), gw.APIURL()
package discovery
