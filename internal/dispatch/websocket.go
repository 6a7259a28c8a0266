package dispatch

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// WebsocketSink forwards triggers to the automation host as JSON frames
// over a single websocket connection. Dispatch blocks the caller for at
// most the write deadline, so a stalled host cannot wedge the IRC event
// loop indefinitely. On a write failure the connection is re-dialed once;
// if that fails too the event is dropped.
type WebsocketSink struct {
	url string
	log *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

type frame struct {
	Trigger string         `json:"trigger"`
	Payload map[string]any `json:"payload"`
}

// NewWebsocketSink dials the host and returns a connected sink.
func NewWebsocketSink(url string, log *slog.Logger) (*WebsocketSink, error) {
	s := &WebsocketSink{url: url, log: log}
	if err := s.dial(); err != nil {
		return nil, err
	}
	return s, nil
}

// dial must be called with mu held (or before the sink is shared).
func (s *WebsocketSink) dial() error {
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	s.conn = conn
	return nil
}

func (s *WebsocketSink) Dispatch(trigger string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := frame{Trigger: trigger, Payload: payload}

	if s.conn != nil {
		if err := s.write(f); err == nil {
			return nil
		}
		s.conn.Close()
		s.conn = nil
		s.log.Warn("websocket write failed, re-dialing", "url", s.url)
	}

	if err := s.dial(); err != nil {
		return err
	}
	return s.write(f)
}

func (s *WebsocketSink) write(f frame) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(f)
}

func (s *WebsocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := s.conn.Close()
	s.conn = nil
	return err
}
