// ABOUTME: Simulated voice agent gateway for local testing
// ABOUTME: Serves agent-data and a websocket that streams MP3 replies
package agentsim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/agent"
	"github.com/Resonate-Protocol/voicewidget-go/pkg/discovery"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	SocketPath = "/ws"
	APIPath    = "/api"
)

// Config holds simulator configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool

	// Audio is the MP3 reply streamed after ready and after every turn
	Audio         []byte
	ChunkSize     int
	ChunkInterval time.Duration

	// BurstThreshold audioIn messages mark the user as speaking; QuietAfter
	// without audioIn ends the turn
	BurstThreshold int
	QuietAfter     time.Duration

	Profile agent.Profile
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8930
	}
	if c.Name == "" {
		c.Name = "agent-sim"
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 8 * 1024
	}
	if c.ChunkInterval == 0 {
		c.ChunkInterval = 250 * time.Millisecond
	}
	if c.BurstThreshold == 0 {
		c.BurstThreshold = 3
	}
	if c.QuietAfter == 0 {
		c.QuietAfter = time.Second
	}
	if c.Profile.DisplayName == "" {
		c.Profile.DisplayName = "Simulated Agent"
	}
	if c.Profile.Position == "" {
		c.Profile.Position = agent.PositionRight
	}
}

// Server is the simulated gateway
type Server struct {
	config   Config
	serverID string
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	httpServer  *http.Server
	mdnsManager *discovery.Manager

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a simulator
func New(config Config) *Server {
	config.applyDefaults()

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// local testing tool, any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(APIPath+"/agent-data/", s.handleAgentData)
	s.mux.HandleFunc(SocketPath, s.handleWebSocket)
	return s
}

// Handler exposes the routes, used by tests with httptest
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop is called or the listener fails
func (s *Server) Start() error {
	log.Printf("Agent simulator starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			SocketPath:  SocketPath,
			APIPath:     APIPath,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}
	log.Printf("Listening on %s (socket %s, api %s)", addr, SocketPath, APIPath)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Simulator shutting down...")
	case err := <-errChan:
		serverErr = err
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop ends Start and every open session
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Server) handleAgentData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, APIPath+"/agent-data/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	log.Printf("Profile requested for agent %s", id)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.config.Profile); err != nil {
		log.Printf("Error writing profile: %v", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agentID")
	if agentID == "" {
		http.Error(w, "agentID is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	log.Printf("New connection for agent %s from %s", agentID, r.RemoteAddr)

	s.wg.Add(1)
	defer s.wg.Done()
	newSession(s.config, conn, s.stopChan).run()
}
