// ABOUTME: One simulated conversation over a websocket
// ABOUTME: Turn taking driven by audioIn bursts and quiet periods
package agentsim

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicewidget-go/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeDeadline = 10 * time.Second

type session struct {
	id     string
	config Config
	conn   *websocket.Conn
	stop   <-chan struct{}

	sendChan chan interface{}
	inbound  chan protocol.Message
	closed   chan struct{}

	streamStop chan struct{}
	streamWG   sync.WaitGroup

	heard    int
	speaking bool
}

func newSession(config Config, conn *websocket.Conn, stop <-chan struct{}) *session {
	return &session{
		id:       uuid.New().String()[:8],
		config:   config,
		conn:     conn,
		stop:     stop,
		sendChan: make(chan interface{}, 256),
		inbound:  make(chan protocol.Message, 64),
		closed:   make(chan struct{}),
	}
}

// run owns all turn state; reader and writer only move bytes
func (s *session) run() {
	defer s.conn.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writer()
	}()
	go s.reader()

	defer func() {
		s.stopStream()
		close(s.sendChan)
		<-writerDone
		log.Printf("[%s] Session closed", s.id)
	}()

	s.send(protocol.Message{Type: protocol.TypeReady})
	s.startStream()

	quiet := time.NewTimer(s.config.QuietAfter)
	quiet.Stop()

	for {
		select {
		case msg := <-s.inbound:
			if msg.Type != protocol.TypeAudioIn {
				log.Printf("[%s] Client sent %s", s.id, msg.Type)
				continue
			}
			s.heard++
			if !s.speaking && s.heard >= s.config.BurstThreshold {
				s.speaking = true
				s.stopStream()
				log.Printf("[%s] User started speaking", s.id)
				s.send(protocol.Message{Type: protocol.TypeVoiceActivityStart})
			}
			quiet.Reset(s.config.QuietAfter)

		case <-quiet.C:
			s.heard = 0
			if !s.speaking {
				continue
			}
			s.speaking = false
			log.Printf("[%s] User stopped speaking, replying", s.id)
			s.send(protocol.Message{Type: protocol.TypeVoiceActivityEnd})
			s.send(protocol.Message{Type: protocol.TypeNewAudioStream})
			s.startStream()

		case <-s.closed:
			return
		case <-s.stop:
			return
		}
	}
}

func (s *session) reader() {
	defer close(s.closed)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[%s] WebSocket error: %v", s.id, err)
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[%s] Error unmarshaling message: %v", s.id, err)
			continue
		}
		if msg.Type == protocol.TypeAudioIn {
			if _, err := msg.Decode(); err != nil {
				log.Printf("[%s] Dropping audioIn: %v", s.id, err)
				continue
			}
		}

		select {
		case s.inbound <- msg:
		case <-s.stop:
			return
		}
	}
}

// writer is the only goroutine touching the connection for writes
func (s *session) writer() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.sendChan:
			if !ok {
				_ = s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}

			s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			switch v := msg.(type) {
			case []byte:
				if err := s.conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("[%s] Error writing binary message: %v", s.id, err)
					s.drain()
					return
				}
			default:
				if err := s.conn.WriteJSON(v); err != nil {
					log.Printf("[%s] Error writing text message: %v", s.id, err)
					s.drain()
					return
				}
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				s.drain()
				return
			}
		}
	}
}

// drain discards queued writes after a write failure so senders never block
func (s *session) drain() {
	for range s.sendChan {
	}
}

func (s *session) send(msg interface{}) {
	select {
	case s.sendChan <- msg:
	default:
		log.Printf("[%s] Send buffer full, dropping %T", s.id, msg)
	}
}

// startStream paces the reply MP3 out in chunks
func (s *session) startStream() {
	s.stopStream()
	if len(s.config.Audio) == 0 {
		return
	}

	stop := make(chan struct{})
	s.streamStop = stop
	s.streamWG.Add(1)
	go func() {
		defer s.streamWG.Done()

		ticker := time.NewTicker(s.config.ChunkInterval)
		defer ticker.Stop()

		audio := s.config.Audio
		for off := 0; off < len(audio); off += s.config.ChunkSize {
			end := off + s.config.ChunkSize
			if end > len(audio) {
				end = len(audio)
			}
			select {
			case s.sendChan <- audio[off:end]:
			case <-stop:
				return
			}

			select {
			case <-ticker.C:
			case <-stop:
				return
			}
		}
		log.Printf("[%s] Reply streamed (%d bytes)", s.id, len(audio))
	}()
}

func (s *session) stopStream() {
	if s.streamStop == nil {
		return
	}
	close(s.streamStop)
	s.streamWG.Wait()
	s.streamStop = nil
}
