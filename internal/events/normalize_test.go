package events

import (
	"reflect"
	"testing"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
)

func TestNormalizePubmsg(t *testing.T) {
	now := time.Unix(1700000000, 0)
	msg := ircmsg.Message{
		Source:  "alice!alice@host",
		Command: "PRIVMSG",
		Params:  []string{"#ops", "deploy v2"},
	}

	trigger, ok := Normalize(msg, now)
	if !ok {
		t.Fatal("Expected pubmsg to normalize")
	}
	if trigger.Kind != Pubmsg {
		t.Errorf("Expected pubmsg kind, got %q", trigger.Kind)
	}
	if trigger.Name() != "irc.pubmsg" {
		t.Errorf("Expected trigger name irc.pubmsg, got %q", trigger.Name())
	}

	expected := map[string]any{
		"source": map[string]any{
			"nick": "alice",
			"host": "alice@host",
		},
		"channel":   "#ops",
		"timestamp": int64(1700000000),
		"message":   "deploy v2",
	}
	if !reflect.DeepEqual(trigger.Payload(), expected) {
		t.Errorf("Payload mismatch:\nexpected %v\ngot      %v", expected, trigger.Payload())
	}
}

func TestNormalizePrivmsg(t *testing.T) {
	now := time.Unix(1700000001, 0)
	msg := ircmsg.Message{
		Source:  "alice!alice@host",
		Command: "PRIVMSG",
		Params:  []string{"bot1", "hello there"},
	}

	trigger, ok := Normalize(msg, now)
	if !ok {
		t.Fatal("Expected privmsg to normalize")
	}
	if trigger.Kind != Privmsg {
		t.Errorf("Expected privmsg kind, got %q", trigger.Kind)
	}

	// No channel key for direct messages.
	expected := map[string]any{
		"source": map[string]any{
			"nick": "alice",
			"host": "alice@host",
		},
		"timestamp": int64(1700000001),
		"message":   "hello there",
	}
	if !reflect.DeepEqual(trigger.Payload(), expected) {
		t.Errorf("Payload mismatch:\nexpected %v\ngot      %v", expected, trigger.Payload())
	}
}

func TestNormalizeJoinAndPart(t *testing.T) {
	now := time.Unix(1700000002, 0)

	for _, tc := range []struct {
		command string
		kind    Kind
		name    string
	}{
		{"JOIN", Join, "irc.join"},
		{"PART", Part, "irc.part"},
	} {
		msg := ircmsg.Message{
			Source:  "bob!bob@example.net",
			Command: tc.command,
			Params:  []string{"#ops"},
		}

		trigger, ok := Normalize(msg, now)
		if !ok {
			t.Fatalf("Expected %s to normalize", tc.command)
		}
		if trigger.Kind != tc.kind {
			t.Errorf("%s: expected kind %q, got %q", tc.command, tc.kind, trigger.Kind)
		}
		if trigger.Name() != tc.name {
			t.Errorf("%s: expected name %q, got %q", tc.command, tc.name, trigger.Name())
		}

		// No message key for membership events.
		expected := map[string]any{
			"source": map[string]any{
				"nick": "bob",
				"host": "bob@example.net",
			},
			"channel":   "#ops",
			"timestamp": int64(1700000002),
		}
		if !reflect.DeepEqual(trigger.Payload(), expected) {
			t.Errorf("%s payload mismatch:\nexpected %v\ngot      %v",
				tc.command, expected, trigger.Payload())
		}
	}
}

func TestNormalizeTimestampIsReceiptTime(t *testing.T) {
	before := time.Now()
	msg := ircmsg.Message{
		Source:  "alice!alice@host",
		Command: "PRIVMSG",
		Params:  []string{"#ops", "hi"},
	}

	trigger, ok := Normalize(msg, time.Now())
	if !ok {
		t.Fatal("Expected message to normalize")
	}
	if trigger.Timestamp < before.Unix() {
		t.Errorf("Timestamp %d is before receipt time %d", trigger.Timestamp, before.Unix())
	}
}

func TestNormalizeIgnoresUnmappedCommands(t *testing.T) {
	now := time.Now()
	for _, command := range []string{"TOPIC", "MODE", "NOTICE", "QUIT", "353"} {
		msg := ircmsg.Message{
			Source:  "alice!alice@host",
			Command: command,
			Params:  []string{"#ops", "whatever"},
		}
		if _, ok := Normalize(msg, now); ok {
			t.Errorf("Expected %s to be ignored", command)
		}
	}
}

func TestNormalizeAmpersandChannel(t *testing.T) {
	msg := ircmsg.Message{
		Source:  "alice!alice@host",
		Command: "PRIVMSG",
		Params:  []string{"&local", "hi"},
	}

	trigger, ok := Normalize(msg, time.Now())
	if !ok {
		t.Fatal("Expected message to normalize")
	}
	if trigger.Kind != Pubmsg {
		t.Errorf("&-prefixed target should be a channel message, got %q", trigger.Kind)
	}
	if trigger.Channel != "&local" {
		t.Errorf("Expected channel &local, got %q", trigger.Channel)
	}
}

func TestNormalizeShortMessages(t *testing.T) {
	now := time.Now()

	// PRIVMSG with no body
	msg := ircmsg.Message{Source: "alice!alice@host", Command: "PRIVMSG", Params: []string{"#ops"}}
	if _, ok := Normalize(msg, now); ok {
		t.Error("Expected PRIVMSG without a body to be ignored")
	}

	// JOIN with no channel
	msg = ircmsg.Message{Source: "alice!alice@host", Command: "JOIN", Params: nil}
	if _, ok := Normalize(msg, now); ok {
		t.Error("Expected JOIN without a channel to be ignored")
	}
}
