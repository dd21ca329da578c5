package router

import (
	"sync"

	"github.com/go-kit/kit/log"

	"github.com/routhusundeep/paxos/types"
	"github.com/routhusundeep/paxos/utils"
)

// InProcessRouter is the local-queue transport from spec.md §6.2: each
// registered process's inbox is a buffered Go channel, and Send is a
// non-blocking enqueue of a message onto the target's channel. Its
// sender table is the one piece of shared mutable state (spec.md §5) and
// is guarded by a RWMutex: reads (Send) are far more frequent than
// writes (Register), so readers never block each other.
type InProcessRouter struct {
	logger log.Logger

	mu      sync.RWMutex
	inboxes map[types.ProcessId]Inbox
}

// NewInProcessRouter returns an empty router ready for Register calls.
func NewInProcessRouter(logger log.Logger) *InProcessRouter {
	return &InProcessRouter{
		logger:  logger,
		inboxes: make(map[types.ProcessId]Inbox),
	}
}

// Register associates id with ib. Called once per process, from Env;
// never called concurrently with itself for the same id.
func (r *InProcessRouter) Register(id types.ProcessId, ib Inbox) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inboxes[id] = ib
}

// Unregister drops id's inbox. Intended for ephemeral Scouts/Commanders
// once they exit (spec.md §9: "the task's exit should be the signal to
// remove the inbox").
func (r *InProcessRouter) Unregister(id types.ProcessId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inboxes, id)
}

// Lookup returns the inbox registered for id, if any. Exposed so the
// wire transport's Listener can demultiplex an inbound WireMessage to
// the right local inbox without reaching into the router's internals.
func (r *InProcessRouter) Lookup(id types.ProcessId) (Inbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ib, found := r.inboxes[id]
	return ib, found
}

// Send enqueues msg onto to's inbox if it is still registered. A full
// inbox or an unregistered target both silently drop the message: the
// transport contract is at-least-once, unordered, unreliable delivery,
// and the protocol's state machines are built to tolerate that.
func (r *InProcessRouter) Send(to types.ProcessId, msg types.Message) {
	r.mu.RLock()
	ib, found := r.inboxes[to]
	r.mu.RUnlock()
	if !found {
		utils.DebugLog(r.logger, "msg", "Send to unknown process dropped.", "to", to, "message", msg)
		return
	}
	select {
	case ib <- msg:
	default:
		utils.DebugLog(r.logger, "msg", "Send dropped, inbox full.", "to", to, "message", msg)
	}
}
