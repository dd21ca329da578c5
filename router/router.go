// Package router defines the Router contract every transport (in-process
// or wire) satisfies, plus the in-process implementation used by tests
// and single-binary demos. Router is the one seam a role ever touches:
// no role code imports network directly (see
// env.Env.Router()).
package router

import (
	"time"

	"github.com/routhusundeep/paxos/types"
)

// Router delivers messages addressed by process id. Delivery is
// at-least-once, unordered and unreliable: the protocol tolerates loss
// and reordering by design (spec.md §5), so Router implementations never
// need to buffer indefinitely or guarantee FIFO.
//
// Send must be safe to call concurrently from any number of goroutines.
type Router interface {
	Send(to types.ProcessId, msg types.Message)
}

// Inbox is the receive side of one process's mailbox: a single-consumer
// channel the process's role loop blocks on. Buffered so Send from a
// busy peer doesn't stall on a slow receiver indefinitely, matching the
// "multi-producer single-consumer channel" shape spec.md §6.2 calls for.
type Inbox chan types.Message

const defaultInboxCapacity = 256

// NewInbox allocates a fresh inbox ready to be registered with a Router.
func NewInbox() Inbox {
	return make(Inbox, defaultInboxCapacity)
}

// Get blocks for up to pollInterval for the next message, returning
// ok=false on timeout so the caller can re-check its loop condition and
// wait again. This is the one suspension point a role loop has (spec.md §5):
// everything else in a role is non-blocking. pollInterval is a tuning
// knob, not a protocol parameter (spec.md §9).
func (ib Inbox) Get(pollInterval time.Duration) (types.Message, bool) {
	select {
	case m := <-ib:
		return m, true
	case <-time.After(pollInterval):
		return types.Message{}, false
	}
}
