package network

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/routhusundeep/paxos/types"
)

// TestFrameRoundTrip covers spec.md §8's wire round-trip property at the
// framing level (length prefix + msgpack envelope), complementing
// types.TestMessageMsgpackRoundTrip which covers the inner Message shape
// directly: decode(encode(m)) == m for representative WireMessage
// envelopes, v4 and v6 addressed.
func TestFrameRoundTrip(t *testing.T) {
	v4 := types.NewProcessId("10.0.0.1", 9000, 1)
	v6 := types.NewProcessId("fe80::1", 9001, 2)
	cmd := types.Command{Client: v6, RequestId: []byte("req-1"), Operation: []byte("op-bytes")}
	accepted := types.NewAccepted()
	accepted.Put(types.PValue{Ballot: types.BallotNumber{Round: 2, Owner: v4}, Slot: 7, Command: cmd})

	cases := []struct {
		name string
		env  WireMessage
	}{
		{"P1A to v4", WireMessage{To: v4, Message: types.NewP1A(v6, types.FirstBallot(v4))}},
		{"P1B to v6 with accepted", WireMessage{To: v6, Message: types.NewP1B(v4, types.FirstBallot(v4), accepted)}},
		{"Decision with zero-length request id", WireMessage{To: v4, Message: types.NewDecision(v4, 3, types.Command{})}},
		{"Request with multi-byte payload", WireMessage{To: v6, Message: types.NewRequest(v6, cmd)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeFrame(&buf, c.env); err != nil {
				t.Fatalf("writeFrame: %v", err)
			}
			got, err := readFrame(bufio.NewReader(&buf))
			if err != nil {
				t.Fatalf("readFrame: %v", err)
			}
			if got.To != c.env.To {
				t.Errorf("To = %v, want %v", got.To, c.env.To)
			}
			if got.Message.Kind != c.env.Message.Kind {
				t.Errorf("Kind = %v, want %v", got.Message.Kind, c.env.Message.Kind)
			}
			if !got.Message.Command.Equal(c.env.Message.Command) {
				t.Errorf("Command = %v, want %v", got.Message.Command, c.env.Message.Command)
			}
			if len(got.Message.Accepted) != len(c.env.Message.Accepted) {
				t.Errorf("Accepted has %d entries, want %d", len(got.Message.Accepted), len(c.env.Message.Accepted))
			}
		})
	}
}

// TestReadFrameRejectsOversizedLength guards the maxFrameSize check: a
// length prefix claiming more than maxFrameSize is a corrupt stream, not
// an invitation to allocate unbounded memory.
func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	if _, err := readFrame(bufio.NewReader(&buf)); err == nil {
		t.Fatalf("expected an error for an oversized frame length")
	}
}
