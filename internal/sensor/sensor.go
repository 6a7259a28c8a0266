// Package sensor is the host-facing lifecycle wrapper around the IRC
// session: construct, Setup, Run (blocking), Cleanup.
package sensor

import (
	"errors"
	"log/slog"

	"github.com/ircops/ircrelay/internal/config"
	"github.com/ircops/ircrelay/internal/dispatch"
	"github.com/ircops/ircrelay/internal/events"
	"github.com/ircops/ircrelay/internal/irc"
	"github.com/ircops/ircrelay/internal/metrics"
)

// Sensor forwards normalized IRC events to a dispatch sink.
type Sensor struct {
	cfg  *config.Config
	sink dispatch.Sink
	log  *slog.Logger
	bot  *irc.Session
}

// New stores the collaborators; no network I/O happens here.
func New(cfg *config.Config, sink dispatch.Sink, log *slog.Logger) *Sensor {
	return &Sensor{
		cfg:  cfg,
		sink: sink,
		log:  log,
	}
}

// Setup builds the handler mapping and the session. SASL is used if and
// only if a password is configured.
func (s *Sensor) Setup() {
	handlers := make(map[events.Kind]irc.Handler, len(events.Kinds))
	for _, kind := range events.Kinds {
		handlers[kind] = s.handleTrigger
	}

	s.bot = irc.NewSession(s.cfg, handlers, s.log)

	s.log.Info("sensor ready",
		"server", s.cfg.Server,
		"nickname", s.cfg.Nickname,
		"sasl", s.bot.SASLEnabled(),
		"channels", len(s.cfg.Channels))
}

// Run drives the session's blocking event loop.
func (s *Sensor) Run() error {
	if s.bot == nil {
		return errors.New("sensor: Run called before Setup")
	}
	return s.bot.Start()
}

// Cleanup disconnects and releases the sink. Idempotent.
func (s *Sensor) Cleanup() {
	if s.bot != nil {
		s.bot.Stop(s.cfg.QuitMessage)
	}
	if err := s.sink.Close(); err != nil {
		s.log.Error("failed to close sink", "error", err)
	}
}

// The trigger set this sensor emits is fixed, so the host-side trigger
// CRUD hooks have nothing to do.

func (s *Sensor) AddTrigger(name string)    {}
func (s *Sensor) UpdateTrigger(name string) {}
func (s *Sensor) RemoveTrigger(name string) {}

func (s *Sensor) handleTrigger(t events.Trigger) {
	metrics.EventsTotal.WithLabelValues(t.Name()).Inc()
	if err := s.sink.Dispatch(t.Name(), t.Payload()); err != nil {
		metrics.DispatchErrors.Inc()
		s.log.Error("dispatch failed", "trigger", t.Name(), "error", err)
	}
}
