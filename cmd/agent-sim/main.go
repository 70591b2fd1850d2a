// ABOUTME: Entry point for the simulated voice agent gateway
// ABOUTME: Streams an MP3 reply per turn and advertises over mDNS
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/internal/agentsim"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/agent"
	"github.com/spf13/cobra"
)

func main() {
	var (
		config    agentsim.Config
		audioFile string
		logFile   string
		noMDNS    bool
		position  string
	)

	rootCmd := &cobra.Command{
		Use:           "agent-sim",
		Short:         "Simulated voice agent gateway",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
			if err != nil {
				return fmt.Errorf("error opening log file: %w", err)
			}
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))

			if audioFile != "" {
				config.Audio, err = os.ReadFile(audioFile)
				if err != nil {
					return fmt.Errorf("failed to read audio: %w", err)
				}
			} else {
				log.Printf("No --audio given, the agent will stay silent")
			}
			config.EnableMDNS = !noMDNS
			config.Profile.Position = agent.Position(position)

			if config.Name == "" {
				hostname, err := os.Hostname()
				if err != nil {
					hostname = "unknown"
				}
				config.Name = fmt.Sprintf("%s-agent-sim", hostname)
			}

			srv := agentsim.New(config)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				log.Printf("Received %v signal, shutting down gracefully...", sig)
				srv.Stop()
			}()

			return srv.Start()
		},
	}

	flags := rootCmd.Flags()
	flags.IntVar(&config.Port, "port", 8930, "HTTP and websocket port")
	flags.StringVar(&config.Name, "name", "", "Gateway name (default: hostname-agent-sim)")
	flags.StringVar(&audioFile, "audio", "", "MP3 file streamed as the agent's reply")
	flags.IntVar(&config.ChunkSize, "chunk-size", 8*1024, "Bytes per binary frame")
	flags.DurationVar(&config.ChunkInterval, "chunk-interval", 250*time.Millisecond, "Delay between frames")
	flags.IntVar(&config.BurstThreshold, "burst", 3, "audioIn messages that start a user turn")
	flags.DurationVar(&config.QuietAfter, "quiet-after", time.Second, "Silence that ends a user turn")
	flags.StringVar(&config.Profile.DisplayName, "display-name", "Simulated Agent", "Profile display name")
	flags.StringVar(&config.Profile.IntroMessage, "intro", "Hi! Ask me anything.", "Profile intro message")
	flags.StringVar(&config.Profile.AvatarURL, "avatar-url", "", "Profile avatar URL")
	flags.StringVar(&position, "position", "right", "Widget position (right, left, center)")
	flags.StringVar(&logFile, "log-file", "agent-sim.log", "Log file path")
	flags.BoolVar(&noMDNS, "no-mdns", false, "Disable mDNS advertisement")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Simulator error: %v", err)
	}
}
