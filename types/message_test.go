package types

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	body, err := msgpack.Marshal(&m)
	if err != nil {
		t.Fatalf("Marshal(%v): %v", m, err)
	}
	var out Message
	if err := msgpack.Unmarshal(body, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return out
}

func TestMessageMsgpackRoundTrip(t *testing.T) {
	v4 := NewProcessId("10.0.0.1", 9000, 1)
	v6 := NewProcessId("fe80::1", 9001, 2)
	ballot := BallotNumber{Round: 3, Owner: v4}
	cmd := Command{Client: v6, RequestId: []byte("req-1"), Operation: []byte("op-bytes")}
	emptyCmd := Command{}
	accepted := NewAccepted()
	accepted.Put(PValue{Ballot: ballot, Slot: 7, Command: cmd})

	cases := []struct {
		name string
		msg  Message
	}{
		{"P1A", NewP1A(v4, ballot)},
		{"P1B with empty accepted", NewP1B(v4, ballot, NewAccepted())},
		{"P1B with non-empty accepted", NewP1B(v4, ballot, accepted)},
		{"P2A", NewP2A(v4, ballot, 7, cmd)},
		{"P2A with zero-byte operation", NewP2A(v4, ballot, 7, emptyCmd)},
		{"P2B", NewP2B(v6, ballot, 7)},
		{"Preempt", NewPreempt(v6, ballot)},
		{"Adopt", NewAdopt(v4, ballot, accepted)},
		{"Decision", NewDecision(v4, 42, cmd)},
		{"Request", NewRequest(v6, cmd)},
		{"Propose", NewPropose(v4, 11, cmd)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := roundTrip(t, c.msg)
			if got.Kind != c.msg.Kind {
				t.Errorf("Kind = %v, want %v", got.Kind, c.msg.Kind)
			}
			if got.From != c.msg.From {
				t.Errorf("From = %v, want %v", got.From, c.msg.From)
			}
			if !got.Ballot.Equal(c.msg.Ballot) {
				t.Errorf("Ballot = %v, want %v", got.Ballot, c.msg.Ballot)
			}
			if got.Slot != c.msg.Slot {
				t.Errorf("Slot = %v, want %v", got.Slot, c.msg.Slot)
			}
			if !got.Command.Equal(c.msg.Command) {
				t.Errorf("Command = %v, want %v", got.Command, c.msg.Command)
			}
			if len(got.Accepted) != len(c.msg.Accepted) {
				t.Errorf("Accepted has %d entries, want %d", len(got.Accepted), len(c.msg.Accepted))
			}
			for slot, pv := range c.msg.Accepted {
				gotPv, found := got.Accepted[slot]
				if !found {
					t.Errorf("Accepted missing slot %d after round-trip", slot)
					continue
				}
				if !gotPv.Ballot.Equal(pv.Ballot) || gotPv.Slot != pv.Slot || !gotPv.Command.Equal(pv.Command) {
					t.Errorf("Accepted[%d] = %v, want %v", slot, gotPv, pv)
				}
			}
		})
	}
}
