// ABOUTME: Connect wires a controller to a real agent and audio device
// ABOUTME: Websocket client, oto output, FFT analyser and MP3 sinks
package voice

import (
	"context"
	"fmt"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/analysis"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/output"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/protocol"
)

// Connect dials the agent, opens the audio device and starts a controller
func Connect(ctx context.Context, config Config) (*Controller, error) {
	config.applyDefaults()
	if config.AgentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	client, err := protocol.Dial(ctx, protocol.Config{
		URL:     config.SocketURL,
		AgentID: config.AgentID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to agent: %w", err)
	}

	analyser := analysis.NewAnalyser(analysis.DefaultFFTSize)
	out := output.NewOto(config.Format(), analyser)
	if err := out.Open(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open audio output: %w", err)
	}

	ctrl := New(config, client, out, analyser, MP3Sinks(config.Format()))
	ctrl.Start()
	return ctrl, nil
}
