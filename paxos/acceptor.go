package paxos

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/routhusundeep/paxos/paxosmetrics"
	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
	"github.com/routhusundeep/paxos/utils"
	"github.com/routhusundeep/paxos/utils/status"
)

// Acceptor is the durable-memory quorum participant (spec.md §4.1): it
// tracks the highest ballot it has promised and the p-values it has
// accepted, one per slot, always the highest-ballot one. It processes
// only P1A and P2A; any other message arriving in its inbox is a
// protocol bug and is fatal to this role (spec.md §7).
//
// The reference design keeps ballot/accepted in volatile memory only
// (spec.md §9); a deployment that needs to survive acceptor restarts
// without violating safety would add a write-ahead log on the two state
// transitions below before replying, which this implementation does not
// do.
type Acceptor struct {
	me           types.ProcessId
	logger       log.Logger
	router       router.Router
	pollInterval time.Duration
	metrics      *paxosmetrics.Metrics

	ballot   types.BallotNumber
	accepted types.Accepted
}

// NewAcceptor constructs an Acceptor that has promised nothing yet:
// ballot = first(me), accepted = {}.
func NewAcceptor(me types.ProcessId, rt router.Router, logger log.Logger, pollInterval time.Duration, metrics *paxosmetrics.Metrics) *Acceptor {
	return &Acceptor{
		me:           me,
		logger:       log.With(logger, "role", "acceptor", "id", me),
		router:       rt,
		pollInterval: pollInterval,
		metrics:      metrics,
		ballot:       types.FirstBallot(me),
		accepted:     types.NewAccepted(),
	}
}

// Run is the Acceptor's blocking receive loop. It never returns: a
// crashed acceptor simply stops being scheduled (spec.md §4.1,
// "Failure").
func (a *Acceptor) Run(inbox router.Inbox) {
	for {
		msg, ok := inbox.Get(a.pollInterval)
		if !ok {
			continue
		}
		a.handle(msg)
	}
}

func (a *Acceptor) handle(msg types.Message) {
	switch msg.Kind {
	case types.KindP1A:
		a.onP1A(msg)
	case types.KindP2A:
		a.onP2A(msg)
	default:
		panic(fmt.Sprintf("acceptor %v: unexpected message kind %v in inbox", a.me, msg.Kind))
	}
}

// onP1A implements: if b > ballot, adopt b; always reply with the
// ballot from the request (not necessarily our own), so the Scout can
// detect preemption just by comparing replies against the ballot it
// sent.
func (a *Acceptor) onP1A(msg types.Message) {
	if a.metrics != nil {
		a.metrics.AcceptorP1A.Inc()
	}
	if a.ballot.Less(msg.Ballot) {
		a.ballot = msg.Ballot
	}
	utils.DebugLog(a.logger, "msg", "P1A received.", "from", msg.From, "ballot", msg.Ballot)
	a.router.Send(msg.From, types.NewP1B(a.me, msg.Ballot, a.accepted.Clone()))
}

// onP2A implements: if b >= ballot, adopt b and record (b, s, c),
// keeping the per-slot max; always reply with our *current* ballot,
// which reveals preemption to the Commander even when we reject.
func (a *Acceptor) onP2A(msg types.Message) {
	if a.metrics != nil {
		a.metrics.AcceptorP2A.Inc()
	}
	if !msg.Ballot.Less(a.ballot) {
		a.ballot = msg.Ballot
		a.accepted.Put(types.PValue{Ballot: msg.Ballot, Slot: msg.Slot, Command: msg.Command})
	}
	utils.DebugLog(a.logger, "msg", "P2A received.", "from", msg.From, "ballot", msg.Ballot, "slot", msg.Slot)
	a.router.Send(msg.From, types.NewP2B(a.me, a.ballot, msg.Slot))
}

// Status implements the server-wide status-introspection convention
// (see utils/status): it reports the acceptor's promised ballot and the
// number of slots it holds an accepted value for.
func (a *Acceptor) Status(sc *status.StatusConsumer) {
	sc.Emit(fmt.Sprintf("Acceptor %v: ballot=%v, accepted slots=%d", a.me, a.ballot, len(a.accepted)))
	sc.Join()
}
