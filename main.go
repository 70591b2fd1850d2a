// ABOUTME: Entry point for the voice widget client
// ABOUTME: Parses CLI flags and wires the agent session to the TUI
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/internal/capture"
	"github.com/Resonate-Protocol/voicewidget-go/internal/ui"
	"github.com/Resonate-Protocol/voicewidget-go/internal/version"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/agent"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/analysis"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/discovery"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/voice"
	"github.com/spf13/cobra"
)

type options struct {
	agentID           string
	apiURL            string
	socketURL         string
	discover          bool
	discoverTimeout   time.Duration
	outputRate        int
	inactivityTimeout time.Duration
	listeningOnStall  bool
	noTUI             bool
	logFile           string
	micFile           string
	micCodec          string
	micLoop           bool
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "voicewidget",
		Short:         "Terminal voice widget for streaming agents",
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.agentID, "agent", "a", "", "Agent ID to talk to")
	flags.StringVar(&opts.apiURL, "api-url", "", "Agent API base URL (skip mDNS)")
	flags.StringVar(&opts.socketURL, "ws-url", "", "Agent websocket URL (skip mDNS)")
	flags.BoolVar(&opts.discover, "discover", false, "Find the agent gateway over mDNS")
	flags.DurationVar(&opts.discoverTimeout, "discover-timeout", 10*time.Second, "How long to browse for a gateway")
	flags.IntVar(&opts.outputRate, "output-rate", 48000, "Playback sample rate in Hz")
	flags.DurationVar(&opts.inactivityTimeout, "inactivity-timeout", voice.DefaultInactivityTimeout,
		"Stalled playback time before reporting inactivity (negative disables)")
	flags.BoolVar(&opts.listeningOnStall, "listening-on-stall", true, "Show LISTENING when playback stalls")
	flags.BoolVar(&opts.noTUI, "no-tui", false, "Disable TUI, use streaming logs instead")
	flags.StringVar(&opts.logFile, "log-file", "voicewidget.log", "Log file path")
	flags.StringVar(&opts.micFile, "mic-file", "", "WAV file to send as microphone audio")
	flags.StringVar(&opts.micCodec, "mic-codec", encode.CodecOpus, "Codec for outbound audio (opus or pcm)")
	flags.BoolVar(&opts.micLoop, "mic-loop", false, "Repeat the microphone file")
	_ = rootCmd.MarkFlagRequired("agent")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	f, err := os.OpenFile(opts.logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	useTUI := !opts.noTUI
	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	log.Printf("Starting %s", version.String())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := resolveEndpoints(ctx, opts); err != nil {
		return err
	}

	var clip *capture.Clip
	if opts.micFile != "" {
		clip, err = capture.LoadWAV(opts.micFile, micRate(opts.micCodec))
		if err != nil {
			return err
		}
		log.Printf("Loaded %s (%v)", opts.micFile, clip.Duration())
	}

	var tui *ui.TUI
	controls := ui.NewControls()
	tuiDone := make(chan struct{})
	if useTUI {
		tui = ui.New(controls)
		go func() {
			defer close(tuiDone)
			if err := tui.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	}

	status := func(msg ui.StatusMsg) {
		if tui != nil {
			tui.Status(msg)
		}
	}

	config := voice.Config{
		AgentID:           opts.agentID,
		APIURL:            opts.apiURL,
		SocketURL:         opts.socketURL,
		OutputSampleRate:  opts.outputRate,
		InactivityTimeout: opts.inactivityTimeout,
		ListeningOnStall:  opts.listeningOnStall,
		OnBars: func(expanded, minimized analysis.BarHeights) {
			if tui != nil {
				tui.Bars(expanded, minimized)
			}
		},
		OnAgentState: func(state voice.AgentState) {
			log.Printf("Agent is %s", state)
			status(ui.StatusMsg{AgentState: state.String()})
		},
		OnSocketReady: func(ready bool) {
			log.Printf("Socket ready: %v", ready)
			status(ui.StatusMsg{SocketReady: &ready})
		},
		OnError: func(err error) {
			log.Printf("Session error: %v", err)
			status(ui.StatusMsg{Error: err.Error()})
		},
		OnClose: func(err error) {
			reason := "closed"
			if err != nil {
				reason = err.Error()
			}
			status(ui.StatusMsg{Closed: &reason})
		},
	}

	ctrl, err := voice.Connect(ctx, config)
	if err != nil {
		if tui != nil {
			tui.Stop()
			<-tuiDone
		}
		return err
	}
	connected := true
	status(ui.StatusMsg{Connected: &connected})
	log.Printf("Connected to agent %s (session %s)", opts.agentID, ctrl.ID())
	go loadProfile(ctx, ctrl, tui)

	mic := &micControl{clip: clip, opts: opts, ctrl: ctrl, status: status}
	if clip != nil && !useTUI {
		mic.toggle(ctx)
	}

	for {
		select {
		case <-controls.Capture:
			mic.toggle(ctx)
			continue
		case <-controls.Quit:
			log.Printf("Received quit signal from TUI")
		case <-ctx.Done():
			log.Printf("Shutdown signal received")
		case <-ctrl.Done():
			log.Printf("Session ended: %v", ctrl.Err())
			if tui != nil {
				// leave the closed state on screen until the user quits
				select {
				case <-controls.Quit:
				case <-ctx.Done():
				}
			}
		}
		break
	}

	mic.stop()
	if err := ctrl.Close(); err != nil {
		log.Printf("Session ended with error: %v", err)
	}
	if tui != nil {
		tui.Stop()
		<-tuiDone
	}

	log.Printf("Widget stopped")
	return nil
}

// resolveEndpoints fills in the API and socket URLs, browsing mDNS when
// asked to or when neither was given
func resolveEndpoints(ctx context.Context, opts *options) error {
	if !opts.discover && opts.socketURL != "" {
		return nil
	}

	log.Printf("Starting gateway discovery...")
	gw, err := discovery.Discover(ctx, opts.discoverTimeout)
	if err != nil {
		return err
	}
	log.Printf("Discovered gateway %s at %s:%d", gw.Name, gw.Host, gw.Port)

	if opts.socketURL == "" || opts.discover {
		opts.socketURL = gw.SocketURL()
	}
	if opts.apiURL == "" || opts.discover {
		opts.apiURL = gw.APIURL()
	}
	return nil
}

// loadProfile fetches the agent profile and avatar for the header. Failures
// only cost the header its details.
func loadProfile(ctx context.Context, ctrl *voice.Controller, tui *ui.TUI) {
	profile, err := ctrl.Profile(ctx)
	if errors.Is(err, voice.ErrNoAPI) {
		return
	}
	if err != nil {
		log.Printf("Failed to fetch agent profile: %v", err)
		return
	}
	log.Printf("Agent profile: %s (%s)", profile.DisplayName, profile.Position)

	msg := ui.ProfileMsg{
		Name:     profile.DisplayName,
		Intro:    profile.IntroMessage,
		Position: string(profile.Position),
	}
	if profile.CalendlyURL != nil {
		msg.Calendly = *profile.CalendlyURL
	}

	if profile.AvatarURL != "" {
		cache, err := agent.NewAvatarCache(filepath.Join(os.TempDir(), "voicewidget-avatars"))
		if err != nil {
			log.Printf("Avatar cache unavailable: %v", err)
		} else if path, err := cache.Fetch(ctx, profile.AvatarURL); err != nil {
			log.Printf("Failed to fetch avatar: %v", err)
		} else {
			msg.AvatarPath = path
		}
	}

	if tui != nil {
		tui.Profile(msg)
	}
}

func micRate(codec string) int {
	if codec == encode.CodecPCM {
		return 16000
	}
	return 48000
}

// micControl starts and stops streaming the microphone file
type micControl struct {
	clip   *capture.Clip
	opts   *options
	ctrl   *voice.Controller
	status func(ui.StatusMsg)

	cancel context.CancelFunc
	done   chan struct{}
}

func (m *micControl) running() bool {
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

func (m *micControl) toggle(ctx context.Context) {
	if m.running() {
		m.stop()
		return
	}
	if m.clip == nil {
		log.Printf("No --mic-file given, nothing to send")
		return
	}

	streamer, err := capture.NewStreamer(m.clip, capture.Config{
		Codec: m.opts.micCodec,
		Loop:  m.opts.micLoop,
		OnSent: func(sent int) {
			m.status(ui.StatusMsg{Sent: sent})
		},
	})
	if err != nil {
		log.Printf("Failed to start capture: %v", err)
		m.status(ui.StatusMsg{Error: err.Error()})
		return
	}

	capturing := true
	m.status(ui.StatusMsg{Capturing: &capturing})

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		sent, err := streamer.Run(runCtx, m.ctrl)
		if err != nil && runCtx.Err() == nil {
			log.Printf("Capture stopped: %v", err)
		}
		log.Printf("Sent %d audio chunks", sent)
		stopped := false
		m.status(ui.StatusMsg{Capturing: &stopped})
	}(m.done)
}

func (m *micControl) stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}
