package events

import (
	"strings"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
)

// Kind enumerates the event kinds the relay emits. Anything else coming
// off the wire is ignored.
type Kind string

const (
	Pubmsg  Kind = "pubmsg"
	Privmsg Kind = "privmsg"
	Join    Kind = "join"
	Part    Kind = "part"
)

// Kinds lists every kind the relay can produce.
var Kinds = []Kind{Pubmsg, Privmsg, Join, Part}

// Source identifies who generated an event. Host is the user@host part
// of the IRC prefix when the user portion is known.
type Source struct {
	Nick string
	Host string
}

// Trigger is a one-shot normalized event. It is built from a raw message,
// handed to the dispatch sink, and discarded.
type Trigger struct {
	Kind      Kind
	Source    Source
	Channel   string // pubmsg/join/part only
	Message   string // pubmsg/privmsg only
	Timestamp int64  // local receipt time, seconds since epoch
}

// Name returns the trigger name sent to the sink, e.g. "irc.pubmsg".
func (t Trigger) Name() string {
	return "irc." + string(t.Kind)
}

// Payload builds the wire payload for the trigger. Exactly the fields
// defined for the kind are present, nothing else.
func (t Trigger) Payload() map[string]any {
	p := map[string]any{
		"source": map[string]any{
			"nick": t.Source.Nick,
			"host": t.Source.Host,
		},
		"timestamp": t.Timestamp,
	}
	switch t.Kind {
	case Pubmsg:
		p["channel"] = t.Channel
		p["message"] = t.Message
	case Privmsg:
		p["message"] = t.Message
	case Join, Part:
		p["channel"] = t.Channel
	}
	return p
}

// Normalize maps a raw IRC message to a Trigger. The timestamp is taken
// from now (the adapter's receipt time), never from the server; clock
// skew against the server is not corrected. Messages with no mapping
// return ok=false and are not an error.
func Normalize(msg ircmsg.Message, now time.Time) (Trigger, bool) {
	nuh, err := msg.NUH()
	if err != nil {
		return Trigger{}, false
	}

	src := Source{Nick: nuh.Name, Host: nuh.Host}
	if nuh.User != "" {
		src.Host = nuh.User + "@" + nuh.Host
	}

	t := Trigger{Source: src, Timestamp: now.Unix()}

	switch msg.Command {
	case "PRIVMSG":
		if len(msg.Params) < 2 {
			return Trigger{}, false
		}
		t.Message = msg.Params[1]
		if isChannel(msg.Params[0]) {
			t.Kind = Pubmsg
			t.Channel = msg.Params[0]
		} else {
			t.Kind = Privmsg
		}
	case "JOIN":
		if len(msg.Params) < 1 {
			return Trigger{}, false
		}
		t.Kind = Join
		t.Channel = msg.Params[0]
	case "PART":
		if len(msg.Params) < 1 {
			return Trigger{}, false
		}
		t.Kind = Part
		t.Channel = msg.Params[0]
	default:
		return Trigger{}, false
	}

	return t, true
}

func isChannel(target string) bool {
	return strings.HasPrefix(target, "#") || strings.HasPrefix(target, "&")
}
