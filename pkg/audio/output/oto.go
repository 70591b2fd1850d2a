// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays the PCM buffer through one process-wide oto context
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// oto only allows one context per process
var (
	sharedMu     sync.Mutex
	sharedCtx    *oto.Context
	sharedFormat audio.Format
)

func otoContext(format audio.Format) (*oto.Context, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedCtx != nil {
		if sharedFormat != format {
			log.Printf("Warning: oto context already running at %dHz %dch, ignoring %dHz %dch",
				sharedFormat.SampleRate, sharedFormat.Channels, format.SampleRate, format.Channels)
		}
		if err := sharedCtx.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume oto context: %w", err)
		}
		return sharedCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   40 * time.Millisecond,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	sharedCtx = ctx
	sharedFormat = format
	return ctx, nil
}

// Oto plays a Buffer through the oto library
type Oto struct {
	*Buffer

	mu     sync.Mutex
	otoCtx *oto.Context
	player *oto.Player
	closed bool
}

// NewOto creates an unopened output; tap receives everything played
func NewOto(format audio.Format, tap Tap) *Oto {
	return &Oto{Buffer: NewBuffer(format, tap)}
}

// Open initializes the device and a persistent player reading the buffer
func (o *Oto) Open() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.player != nil {
		return nil
	}

	ctx, err := otoContext(o.Format())
	if err != nil {
		return err
	}

	o.otoCtx = ctx
	o.player = ctx.NewPlayer(o.Buffer)

	log.Printf("Audio output initialized: %dHz, %d channels", o.Format().SampleRate, o.Format().Channels)
	return nil
}

// Play starts consuming the buffer. A device refusal is returned but the
// buffer keeps accepting PCM so playback can resume later.
func (o *Oto) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.player == nil {
		return fmt.Errorf("output not initialized")
	}

	o.Buffer.SetPlaying(true)
	o.player.Play()
	if err := o.player.Err(); err != nil {
		return fmt.Errorf("playback refused: %w", err)
	}
	return nil
}

// Pause stops consuming the buffer
func (o *Oto) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.Buffer.SetPlaying(false)
	if o.player != nil {
		o.player.Pause()
	}
}

// Close releases the player and suspends the shared context
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	o.Buffer.Close()

	var firstErr error
	if o.player != nil {
		o.player.Pause()
		if err := o.player.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close player: %w", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to suspend oto context: %w", err)
		}
		o.otoCtx = nil
	}
	return firstErr
}
