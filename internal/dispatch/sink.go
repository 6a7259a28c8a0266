// Package dispatch delivers normalized triggers to the automation host.
//
// Delivery semantics beyond a single blocking call are the host's
// problem: the relay fires and forgets, and a failed dispatch drops the
// event.
package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/ircops/ircrelay/internal/config"
)

// Sink receives (trigger name, payload) pairs.
type Sink interface {
	Dispatch(trigger string, payload map[string]any) error
	Close() error
}

// FromConfig builds the sink selected by the configuration.
func FromConfig(cfg config.SinkConfig, log *slog.Logger) (Sink, error) {
	switch cfg.Type {
	case "", config.SinkLog:
		return NewLogSink(log), nil
	case config.SinkWebsocket:
		return NewWebsocketSink(cfg.URL, log)
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}

// LogSink writes triggers to the structured log. It stands in for a real
// host during development and smoke testing.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Dispatch(trigger string, payload map[string]any) error {
	s.log.Info("trigger", "name", trigger, "payload", payload)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
