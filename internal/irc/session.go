package irc

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
	"github.com/ircops/ircrelay/internal/config"
	"github.com/ircops/ircrelay/internal/events"
	"github.com/ircops/ircrelay/internal/metrics"
)

// Version information (set at build time or here)
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const nickSuffixRange = 1000

// rejoinDelay is how long to wait before rejoining a channel after a kick.
var rejoinDelay = 2 * time.Second

// Handler consumes a normalized trigger. Handlers run on the connection's
// read loop and must return before the next event is processed.
type Handler func(events.Trigger)

// Session wraps one IRC connection and reacts to server events. The
// underlying library owns reconnection after non-fatal network drops;
// the session only decides what happens on welcome, nick collisions,
// kicks and fatal authentication errors.
type Session struct {
	conn     *ircevent.Connection
	cfg      *config.Config
	log      *slog.Logger
	handlers map[events.Kind]Handler
	auth     authStrategy
	kick     behaviorPolicy

	// Connection operations, indirected so handler behavior is testable
	// without a live socket.
	join    func(channel string)
	setNick func(nick string)
	die     func()

	mu          sync.Mutex
	closed      bool
	terminated  bool
	lastSuffix  int
	nickRetries int
}

// NewSession builds a session for the given configuration. Handlers
// missing from the map mean the corresponding event kind is ignored.
// No network I/O happens until Start.
func NewSession(cfg *config.Config, handlers map[events.Kind]Handler, log *slog.Logger) *Session {
	s := &Session{
		cfg:      cfg,
		log:      log,
		handlers: handlers,
	}

	if cfg.SASLEnabled() {
		s.auth = saslAuth{login: cfg.Nickname, password: cfg.Password}
	} else {
		s.auth = anonAuth{}
	}
	if cfg.RejoinOnKick {
		s.kick = rejoinOnKick{}
	} else {
		s.kick = ignoreKick{}
	}

	// EnableCTCP makes the library strip \x01-delimited requests out of
	// PRIVMSG and answer VERSION/PING itself, so CTCP traffic never
	// reaches the event handlers as pubmsg/privmsg.
	conn := &ircevent.Connection{
		Server:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Nick:          cfg.Nickname,
		User:          cfg.Nickname,
		RealName:      cfg.Nickname,
		QuitMessage:   cfg.QuitMessage,
		Debug:         false,
		UseTLS:        cfg.UseTLS,
		TLSConfig:     &tls.Config{ServerName: cfg.Host},
		ReconnectFreq: time.Minute,
		EnableCTCP:    true,
		Version:       fmt.Sprintf("ircrelay %s (built %s, commit %s)", Version, BuildDate, GitCommit),
	}
	s.auth.apply(conn)
	s.conn = conn

	s.join = func(channel string) { s.conn.Join(channel) }
	s.setNick = func(nick string) { s.conn.SetNick(nick) }
	s.die = func() { s.conn.Quit() }

	s.registerHandlers()

	return s
}

func (s *Session) registerHandlers() {
	// Registration complete
	s.conn.AddCallback("001", s.onWelcome) // RPL_WELCOME

	// Nick issues
	s.conn.AddCallback("433", s.onNickInUse) // ERR_NICKNAMEINUSE

	// Fatal authentication errors
	s.conn.AddCallback("904", s.onSASLFailed) // ERR_SASLFAIL
	s.conn.AddCallback("ERROR", s.onServerError)

	// Channel membership
	s.conn.AddCallback("KICK", s.onKick)

	// Events forwarded to the host. CTCP VERSION is answered by the
	// library's own responder using the Version string above.
	s.conn.AddCallback("PRIVMSG", s.onEvent)
	s.conn.AddCallback("JOIN", s.onEvent)
	s.conn.AddCallback("PART", s.onEvent)
}

// Start connects and drives the event loop. It blocks until the session
// is stopped, terminated, or the connection is lost for good. A fatal
// authentication failure ends the session rather than returning an error.
func (s *Session) Start() error {
	if err := s.conn.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.conn.Loop()
	return nil
}

// Stop gracefully disconnects, sending reason as the quit message if
// still connected. Safe to call from outside the event loop and safe to
// call more than once.
func (s *Session) Stop(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if reason != "" {
		s.conn.QuitMessage = reason
	}
	metrics.Connected.Set(0)
	s.die()
}

// Terminated reports whether the session ended due to a fatal
// authentication error.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// SASLEnabled reports which auth strategy the session was built with.
func (s *Session) SASLEnabled() bool {
	_, ok := s.auth.(saslAuth)
	return ok
}

// terminate ends the session permanently. Unlike Stop it is not an
// orderly host-requested shutdown: it marks the session dead so no
// further joins are attempted even if more server events arrive.
func (s *Session) terminate() {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	s.closed = true
	s.mu.Unlock()

	metrics.Connected.Set(0)
	s.die()
}

func (s *Session) onWelcome(e ircmsg.Message) {
	s.mu.Lock()
	dead := s.terminated
	s.nickRetries = 0
	s.mu.Unlock()
	if dead {
		return
	}

	s.log.Debug("connected to the server", "server", s.cfg.Server)
	metrics.Connected.Set(1)

	for _, channel := range s.cfg.Channels {
		s.log.Debug("joining channel", "channel", channel)
		s.join(channel)
	}
}

func (s *Session) onNickInUse(e ircmsg.Message) {
	s.mu.Lock()
	if s.cfg.NickRetryLimit > 0 && s.nickRetries >= s.cfg.NickRetryLimit {
		s.mu.Unlock()
		s.log.Error("nickname retry limit reached", "nickname", s.cfg.Nickname,
			"limit", s.cfg.NickRetryLimit)
		s.terminate()
		return
	}
	s.nickRetries++
	s.lastSuffix = nextSuffix(s.lastSuffix)
	next := collisionNick(s.cfg.Nickname, s.lastSuffix)
	s.mu.Unlock()

	// During registration the library's own 433 fallback also requests a
	// placeholder nick; ours is sent after it and wins.

	s.log.Debug("nickname in use, trying another", "nickname", next)
	s.setNick(next)
}

func (s *Session) onSASLFailed(e ircmsg.Message) {
	// 904 ERR_SASLFAIL: invalid credentials or an unregistered nickname.
	// Misconfiguration the operator must fix, so no retry.
	s.log.Error("SASL authentication failed; use the correct nickname:password " +
		"and make sure the nickname is registered with the server")
	s.terminate()
}

func (s *Session) onServerError(e ircmsg.Message) {
	text := strings.Join(e.Params, " ")
	if !strings.Contains(text, "SASL access only") {
		return
	}
	s.log.Error("this server requires SASL authentication; " +
		"register the nickname and configure both nickname and password")
	s.terminate()
}

func (s *Session) onKick(e ircmsg.Message) {
	if len(e.Params) < 2 {
		return
	}
	if !strings.EqualFold(e.Params[1], s.conn.CurrentNick()) {
		return
	}
	s.kick.handleKick(s, e.Params[0])
}

func (s *Session) onEvent(e ircmsg.Message) {
	t, ok := events.Normalize(e, time.Now())
	if !ok {
		return
	}
	handler, ok := s.handlers[t.Kind]
	if !ok {
		return
	}
	handler(t)
}

// nextSuffix draws a fresh random suffix in [1, nickSuffixRange], never
// repeating the previous one.
func nextSuffix(last int) int {
	n := 1 + rand.Intn(nickSuffixRange)
	for n == last {
		n = 1 + rand.Intn(nickSuffixRange)
	}
	return n
}

func collisionNick(base string, suffix int) string {
	return fmt.Sprintf("%s-%d", base, suffix)
}
