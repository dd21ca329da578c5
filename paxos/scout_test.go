package paxos

import (
	"testing"
	"time"

	"github.com/routhusundeep/paxos/env"
	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
)

// chanRouter is a router.Router whose Send forwards onto a channel, so
// a test can synchronously drain exactly the messages a role under test
// sent without racing on a slice.
type chanRouter struct {
	ch chan sentMessage
}

func newChanRouter(capacity int) *chanRouter {
	return &chanRouter{ch: make(chan sentMessage, capacity)}
}

func (r *chanRouter) Send(to types.ProcessId, msg types.Message) {
	r.ch <- sentMessage{to: to, msg: msg}
}

func (r *chanRouter) drain(t *testing.T, n int) []sentMessage {
	t.Helper()
	out := make([]sentMessage, 0, n)
	for i := 0; i < n; i++ {
		select {
		case m := <-r.ch:
			out = append(out, m)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d/%d", i+1, n)
		}
	}
	return out
}

func newTestEnv(rt router.Router, acceptors ...types.ProcessId) *env.Env {
	e := env.New(testLogger(), rt, nil, "127.0.0.1", 0)
	for _, a := range acceptors {
		e.Cluster().Add(types.ProcessAcceptor, a)
	}
	return e
}

func TestScoutAdoptsOnMajorityP1B(t *testing.T) {
	leader, scoutId := pid(1), pid(2)
	a1, a2, a3 := pid(10), pid(11), pid(12)
	rt := newChanRouter(8)
	e := newTestEnv(rt, a1, a2, a3)

	ballot := types.FirstBallot(leader)
	s := NewScout(scoutId, leader, ballot, e, testLogger(), 5*time.Millisecond, nil)
	inbox := router.NewInbox()
	go s.Run(inbox)

	broadcasts := rt.drain(t, 3)
	for _, b := range broadcasts {
		if b.msg.Kind != types.KindP1A {
			t.Fatalf("broadcast kind = %v, want P1A", b.msg.Kind)
		}
	}

	cmd := types.Command{Client: pid(99), RequestId: []byte("r1")}
	accA1 := types.NewAccepted()
	accA1.Put(types.PValue{Ballot: ballot, Slot: 1, Command: cmd})
	inbox <- types.NewP1B(a1, ballot, accA1)
	inbox <- types.NewP1B(a2, ballot, types.NewAccepted())

	result := rt.drain(t, 1)[0]
	if result.to != leader {
		t.Fatalf("final message sent to %v, want leader %v", result.to, leader)
	}
	if result.msg.Kind != types.KindAdopt {
		t.Fatalf("final message kind = %v, want Adopt", result.msg.Kind)
	}
	if len(result.msg.Accepted) != 1 {
		t.Fatalf("Adopt carries %d accepted slots, want 1", len(result.msg.Accepted))
	}
}

func TestScoutDoesNotAdoptOnNonMajority(t *testing.T) {
	leader, scoutId := pid(1), pid(2)
	a1, a2, a3 := pid(10), pid(11), pid(12)
	rt := newChanRouter(8)
	e := newTestEnv(rt, a1, a2, a3)

	ballot := types.FirstBallot(leader)
	s := NewScout(scoutId, leader, ballot, e, testLogger(), 5*time.Millisecond, nil)
	inbox := router.NewInbox()
	go s.Run(inbox)

	rt.drain(t, 3)
	inbox <- types.NewP1B(a1, ballot, types.NewAccepted())

	select {
	case m := <-rt.ch:
		t.Fatalf("scout should not have decided yet, got %v", m.msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScoutPreemptsOnHigherBallotReply(t *testing.T) {
	leader, scoutId := pid(1), pid(2)
	a1, a2, a3 := pid(10), pid(11), pid(12)
	rt := newChanRouter(8)
	e := newTestEnv(rt, a1, a2, a3)

	ballot := types.FirstBallot(leader)
	s := NewScout(scoutId, leader, ballot, e, testLogger(), 5*time.Millisecond, nil)
	inbox := router.NewInbox()
	go s.Run(inbox)

	rt.drain(t, 3)
	higher := types.BallotNumber{Round: ballot.Round + 1, Owner: pid(77)}
	inbox <- types.NewP1B(a1, higher, types.NewAccepted())

	result := rt.drain(t, 1)[0]
	if result.to != leader {
		t.Fatalf("preempt sent to %v, want leader %v", result.to, leader)
	}
	if result.msg.Kind != types.KindPreempt {
		t.Fatalf("message kind = %v, want Preempt", result.msg.Kind)
	}
	if !result.msg.Ballot.Equal(higher) {
		t.Errorf("preempt ballot = %v, want %v", result.msg.Ballot, higher)
	}
}

func TestScoutSingleAcceptorClusterAdoptsAlone(t *testing.T) {
	leader, scoutId := pid(1), pid(2)
	a1 := pid(10)
	rt := newChanRouter(4)
	e := newTestEnv(rt, a1)

	ballot := types.FirstBallot(leader)
	s := NewScout(scoutId, leader, ballot, e, testLogger(), 5*time.Millisecond, nil)
	inbox := router.NewInbox()
	go s.Run(inbox)

	rt.drain(t, 1) // the lone P1A broadcast
	inbox <- types.NewP1B(a1, ballot, types.NewAccepted())

	result := rt.drain(t, 1)[0]
	if result.msg.Kind != types.KindAdopt {
		t.Fatalf("a single acceptor is its own majority; want Adopt, got %v", result.msg.Kind)
	}
}

func TestScoutTwoAcceptorClusterNeedsBoth(t *testing.T) {
	leader, scoutId := pid(1), pid(2)
	a1, a2 := pid(10), pid(11)
	rt := newChanRouter(8)
	e := newTestEnv(rt, a1, a2)

	ballot := types.FirstBallot(leader)
	s := NewScout(scoutId, leader, ballot, e, testLogger(), 5*time.Millisecond, nil)
	inbox := router.NewInbox()
	go s.Run(inbox)

	rt.drain(t, 2)
	inbox <- types.NewP1B(a1, ballot, types.NewAccepted())

	select {
	case m := <-rt.ch:
		t.Fatalf("a 2-acceptor cluster needs both replies before deciding, got %v early", m.msg)
	case <-time.After(50 * time.Millisecond):
	}

	inbox <- types.NewP1B(a2, ballot, types.NewAccepted())
	result := rt.drain(t, 1)[0]
	if result.msg.Kind != types.KindAdopt {
		t.Fatalf("message kind = %v, want Adopt once both acceptors reply", result.msg.Kind)
	}
}
