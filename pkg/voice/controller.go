// ABOUTME: Stream controller running the session event loop
// ABOUTME: Dispatches inbound frames, sink events and activity ticks in order
package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/agent"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/analysis"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/audio/output"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/protocol"
	"github.com/google/uuid"
)

// ErrChannelClosed is reported when the agent closes the channel cleanly
var ErrChannelClosed = errors.New("channel closed")

// ErrNoAPI is returned by Profile when no API URL is configured
var ErrNoAPI = errors.New("no agent API URL configured")

// Config holds controller configuration
type Config struct {
	AgentID   string
	APIURL    string
	SocketURL string

	OutputSampleRate int
	OutputChannels   int

	ExpandedScale  float64
	MinimizedScale float64

	FrameInterval     time.Duration
	ActivityInterval  time.Duration
	InactivityTimeout time.Duration // negative disables inactivity reports
	ListeningOnStall  bool

	// Callbacks. OnBars runs on the frame goroutine, the rest on the
	// controller loop. None of them may call Close.
	OnBars        func(expanded, minimized analysis.BarHeights)
	OnAgentState  func(AgentState)
	OnSocketReady func(bool)
	OnError       func(error)
	OnClose       func(error)
}

func (c *Config) applyDefaults() {
	if c.OutputSampleRate == 0 {
		c.OutputSampleRate = 48000
	}
	if c.OutputChannels == 0 {
		c.OutputChannels = 2
	}
	if c.ExpandedScale == 0 {
		c.ExpandedScale = 1
	}
	if c.MinimizedScale == 0 {
		c.MinimizedScale = 0.2
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = DefaultFrameInterval
	}
	if c.ActivityInterval == 0 {
		c.ActivityInterval = DefaultActivityInterval
	}
	if c.InactivityTimeout == 0 {
		c.InactivityTimeout = DefaultInactivityTimeout
	}
}

// Format is the PCM format handed to the output
func (c Config) Format() audio.Format {
	return audio.Format{SampleRate: c.OutputSampleRate, Channels: c.OutputChannels}
}

// Channel is the duplex connection to the agent
type Channel interface {
	Frames() <-chan protocol.Frame
	SendJSON(v any) error
	Err() error
	Close() error
}

// Controller ties the channel, session, monitor and frame loop together
type Controller struct {
	id      string
	config  Config
	channel Channel
	output  output.Output

	session *Session
	monitor *ActivityMonitor
	frames  *FrameLoop

	events chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// ticks overrides the activity ticker in tests
	ticks <-chan time.Time

	startOnce sync.Once
	started   atomic.Bool
	closeOnce sync.Once

	agentState atomic.Int32
	ready      atomic.Bool

	mu  sync.Mutex
	err error
}

// New creates a controller. Start begins processing.
func New(config Config, channel Channel, out output.Output, tap analysis.Tap, sinks SinkFactory) *Controller {
	config.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:      uuid.New().String()[:8],
		config:  config,
		channel: channel,
		output:  out,
		events:  make(chan func(), 32),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	c.agentState.Store(int32(Thinking))

	c.session = NewSession(c.id, out, sinks, SessionHooks{
		Dispatch: c.dispatch,
		Playing:  func() { c.setAgentState(Speaking) },
		Error:    c.notifyError,
	})

	c.monitor = NewActivityMonitor(out.Position, config.InactivityTimeout)
	c.monitor.OnStall = c.handleStall
	c.monitor.OnInactive = c.handleInactive

	c.frames = NewFrameLoop(tap, config.FrameInterval, config.ExpandedScale, config.MinimizedScale, config.OnBars)
	return c
}

// ID is the short session id used in logs
func (c *Controller) ID() string {
	return c.id
}

// Start launches the event loop and frame loop
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		c.started.Store(true)
		log.Printf("[%s] Session started for agent %s", c.id, c.config.AgentID)
		c.frames.Start()
		go c.run()
	})
}

// Done is closed once teardown has finished
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err reports why the session ended; nil after Close
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// AgentState returns the current agent state
func (c *Controller) AgentState() AgentState {
	return AgentState(c.agentState.Load())
}

// SocketReady reports whether the agent accepts outbound audio
func (c *Controller) SocketReady() bool {
	return c.ready.Load()
}

// Profile fetches the agent's profile from the configured API
func (c *Controller) Profile(ctx context.Context) (*agent.Profile, error) {
	if c.config.APIURL == "" {
		return nil, ErrNoAPI
	}
	return agent.NewClient(c.config.APIURL).FetchProfile(ctx, c.config.AgentID)
}

// SessionState returns the playback session state
func (c *Controller) SessionState() SessionState {
	return c.session.State()
}

// SendAudio forwards one captured chunk as audioIn
func (c *Controller) SendAudio(chunk []byte) error {
	select {
	case <-c.done:
		return protocol.ErrClosed
	default:
	}
	if !c.ready.Load() {
		return protocol.ErrNotReady
	}
	return c.channel.SendJSON(protocol.NewAudioIn(chunk))
}

// Close tears the session down and waits for it. Safe to call twice. It
// returns the error that ended the session, nil for a local close.
func (c *Controller) Close() error {
	c.cancel()
	if c.started.Load() {
		<-c.done
		return c.Err()
	}
	// Never started: claim the start so it cannot run later
	c.startOnce.Do(func() {})
	c.teardown(nil)
	return c.Err()
}

func (c *Controller) run() {
	var ticks <-chan time.Time
	var ticker *time.Ticker
	if c.ticks != nil {
		ticks = c.ticks
	} else {
		ticker = time.NewTicker(c.config.ActivityInterval)
		ticks = ticker.C
	}
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
		}
		ticks = nil
	}

	var reason error
	defer func() {
		c.teardownWith(reason, stopTicker)
	}()

	frames := c.channel.Frames()
	for {
		select {
		case <-c.ctx.Done():
			return

		case frame, ok := <-frames:
			if !ok {
				reason = c.channel.Err()
				if reason == nil {
					reason = ErrChannelClosed
				}
				log.Printf("[%s] Channel ended: %v", c.id, reason)
				return
			}
			c.handleFrame(frame)

		case fn := <-c.events:
			fn()

		case now := <-ticks:
			c.monitor.Check(now)
		}
	}
}

// dispatch runs fn on the loop; it gives up once the session is closing
func (c *Controller) dispatch(fn func()) {
	select {
	case c.events <- fn:
	case <-c.ctx.Done():
	}
}

func (c *Controller) handleFrame(frame protocol.Frame) {
	if c.session.State() == Ended {
		return
	}

	if frame.Binary {
		if err := c.session.Enqueue(audio.NewChunk(frame.Data)); err != nil {
			log.Printf("[%s] Chunk rejected: %v", c.id, err)
		}
		return
	}

	ctrl, err := protocol.ParseControl(frame.Data)
	if err != nil {
		log.Printf("[%s] Dropping control frame: %v", c.id, err)
		return
	}

	switch ctrl.Type {
	case protocol.TypeVoiceActivityStart:
		if err := c.session.Interrupt(); err != nil {
			log.Printf("[%s] Interrupt failed: %v", c.id, err)
		}
		c.monitor.Reset()
		c.setAgentState(Listening)

	case protocol.TypeVoiceActivityEnd:
		c.setAgentState(Thinking)

	case protocol.TypeNewAudioStream:
		c.session.Discard()

	case protocol.TypeReady:
		if !c.ready.Swap(true) {
			log.Printf("[%s] Socket ready", c.id)
			if c.config.OnSocketReady != nil {
				c.config.OnSocketReady(true)
			}
		}

	default:
		log.Printf("[%s] Ignoring message type: %q", c.id, ctrl.Type)
	}
}

func (c *Controller) handleStall() {
	if c.config.ListeningOnStall && c.AgentState() == Speaking {
		c.setAgentState(Listening)
	}
}

func (c *Controller) handleInactive() {
	log.Printf("[%s] Playback stalled for %v, reporting inactivity", c.id, c.config.InactivityTimeout)
	if err := c.channel.SendJSON(protocol.NewInactivity()); err != nil {
		c.notifyError(fmt.Errorf("failed to send inactivity: %w", err))
	}
}

func (c *Controller) setAgentState(state AgentState) {
	old := AgentState(c.agentState.Swap(int32(state)))
	if old == state {
		return
	}
	log.Printf("[%s] Agent %s -> %s", c.id, old, state)
	if c.config.OnAgentState != nil {
		c.config.OnAgentState(state)
	}
}

func (c *Controller) notifyError(err error) {
	if c.config.OnError != nil {
		c.config.OnError(err)
	}
}

func (c *Controller) teardown(reason error) {
	c.teardownWith(reason, func() {})
}

// teardownWith stops everything in a fixed order: activity ticker, frame
// loop, output, then the decoding and analysis graph
func (c *Controller) teardownWith(reason error, stopTicker func()) {
	c.closeOnce.Do(func() {
		c.cancel()

		stopTicker()
		c.frames.Stop()

		c.output.Pause()
		c.output.Detach()

		c.session.Close()
		if err := c.output.Close(); err != nil {
			log.Printf("[%s] Failed to close output: %v", c.id, err)
		}
		if err := c.channel.Close(); err != nil {
			log.Printf("[%s] Failed to close channel: %v", c.id, err)
		}

		if c.ready.Swap(false) && c.config.OnSocketReady != nil {
			c.config.OnSocketReady(false)
		}

		c.mu.Lock()
		c.err = reason
		c.mu.Unlock()

		log.Printf("[%s] Session closed", c.id)
		if c.config.OnClose != nil {
			c.config.OnClose(reason)
		}
		close(c.done)
	})
}
