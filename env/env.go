// Package env hosts role execution: it owns the Cluster directory and
// Router for one process group, mints fresh ids for ephemeral
// Scouts/Commanders, and starts each role's loop as an independent
// goroutine. No role ever reaches into another role's state directly;
// everything flows through the Env's Router.
package env

import (
	"sync/atomic"

	"github.com/go-kit/kit/log"

	"github.com/routhusundeep/paxos/cluster"
	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
)

// Executor is anything Env can register and start: a long-lived role
// (Acceptor, Leader, Replica) or an ephemeral one (Scout, Commander).
// Run receives the inbox Env created for this process and must loop
// until it decides to exit (forever, for the long-lived roles).
type Executor interface {
	Run(inbox router.Inbox)
}

// Env is the role host described in spec.md §4.6: it exposes Router(),
// Cluster(), and NewId(), and Register starts an Executor's Run loop in
// its own goroutine with a freshly allocated inbox.
type Env struct {
	logger   log.Logger
	ir       *router.InProcessRouter
	rt       router.Router
	cl       *cluster.Cluster
	host     string
	basePort uint32
	counter  uint64
}

// New builds an Env. rt is the Router every registered process will be
// reachable through; ir, if non-nil, additionally receives Register
// calls so that in-process delivery works even when rt is a wire
// router multiplexing across a process boundary. host/basePort seed the
// addresses minted by NewId for ephemeral processes on this Env.
func New(logger log.Logger, rt router.Router, ir *router.InProcessRouter, host string, basePort uint32) *Env {
	return &Env{
		logger:   logger,
		rt:       rt,
		ir:       ir,
		cl:       cluster.New(),
		host:     host,
		basePort: basePort,
	}
}

// Router returns the Router every role sends through.
func (e *Env) Router() router.Router { return e.rt }

// Cluster returns the process directory.
func (e *Env) Cluster() *cluster.Cluster { return e.cl }

// NewId mints a fresh ProcessId for a Scout or Commander, using a
// monotonically increasing instance counter so sibling ephemeral
// processes started from the same leader never collide in the Router's
// inbox table (spec.md §3, §4.6).
func (e *Env) NewId() types.ProcessId {
	n := atomic.AddUint64(&e.counter, 1)
	return types.NewProcessId(e.host, e.basePort, uint32(n))
}

// Register adds id to the Cluster under pt, creates its inbox, wires it
// into the Router(s), and starts exec.Run in its own goroutine.
func (e *Env) Register(id types.ProcessId, pt types.ProcessType, exec Executor) router.Inbox {
	inbox := router.NewInbox()
	if e.ir != nil {
		e.ir.Register(id, inbox)
	}
	e.cl.Add(pt, id)
	go exec.Run(inbox)
	return inbox
}

// Unregister removes an ephemeral process's inbox once its Run loop
// exits (spec.md §9: ephemeral actors should not linger in the Router's
// table past their lifetime).
func (e *Env) Unregister(id types.ProcessId) {
	if e.ir != nil {
		e.ir.Unregister(id)
	}
}

// Logger returns the Env's base logger, for roles to derive their own
// per-process logger from via log.With.
func (e *Env) Logger() log.Logger { return e.logger }
