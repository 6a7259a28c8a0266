package irc

import (
	"time"

	"github.com/ergochat/irc-go/ircevent"
)

// authStrategy configures how the connection registers with the server.
// The handshake itself is performed by the IRC library; the strategy only
// selects it.
type authStrategy interface {
	apply(conn *ircevent.Connection)
}

// saslAuth registers with SASL PLAIN using the configured credentials.
type saslAuth struct {
	login    string
	password string
}

func (a saslAuth) apply(conn *ircevent.Connection) {
	conn.SASLLogin = a.login
	conn.SASLPassword = a.password
}

// anonAuth registers without authentication.
type anonAuth struct{}

func (anonAuth) apply(*ircevent.Connection) {}

// behaviorPolicy decides how the session reacts to being kicked from a
// channel it was told to sit in.
type behaviorPolicy interface {
	handleKick(s *Session, channel string)
}

// rejoinOnKick rejoins the channel after a short delay.
type rejoinOnKick struct{}

func (rejoinOnKick) handleKick(s *Session, channel string) {
	s.log.Debug("kicked from channel, rejoining", "channel", channel)
	go func() {
		time.Sleep(rejoinDelay)
		s.join(channel)
	}()
}

// ignoreKick accepts the kick and stays out.
type ignoreKick struct{}

func (ignoreKick) handleKick(s *Session, channel string) {
	s.log.Debug("kicked from channel", "channel", channel)
}
