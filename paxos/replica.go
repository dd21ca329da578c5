package paxos

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/routhusundeep/paxos/env"
	"github.com/routhusundeep/paxos/paxosmetrics"
	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
	"github.com/routhusundeep/paxos/utils"
	"github.com/routhusundeep/paxos/utils/status"
)

// Applier is the opaque application hook a Replica calls once it has
// performed a command in slot order; the core treats the command's
// Operation as opaque bytes and never interprets it itself (spec.md
// §1, "out of scope: application state machine").
type Applier interface {
	Apply(slot types.SlotNumber, cmd types.Command)
}

// ApplierFunc adapts a plain function to Applier.
type ApplierFunc func(slot types.SlotNumber, cmd types.Command)

func (f ApplierFunc) Apply(slot types.SlotNumber, cmd types.Command) { f(slot, cmd) }

// Replica accepts client requests, assigns candidate slot numbers,
// forwards proposals to every leader, and applies decisions in slot
// order (spec.md §4.5).
type Replica struct {
	me           types.ProcessId
	logger       log.Logger
	env          *env.Env
	pollInterval time.Duration
	metrics      *paxosmetrics.Metrics
	applier      Applier

	slot       types.SlotNumber
	proposals  map[types.SlotNumber]types.Command
	decisions  map[types.SlotNumber]types.Command
	proposedAt map[types.SlotNumber]time.Time
}

// NewReplica constructs a Replica with slot=1 and no proposals or
// decisions recorded yet. applier may be nil, in which case decided
// commands are simply dropped after bookkeeping (useful for tests that
// only care about the decision stream observed via metrics/logging).
func NewReplica(me types.ProcessId, e *env.Env, logger log.Logger, pollInterval time.Duration, metrics *paxosmetrics.Metrics, applier Applier) *Replica {
	return &Replica{
		me:           me,
		logger:       log.With(logger, "role", "replica", "id", me),
		env:          e,
		pollInterval: pollInterval,
		metrics:      metrics,
		applier:      applier,
		slot:         1,
		proposals:    make(map[types.SlotNumber]types.Command),
		decisions:    make(map[types.SlotNumber]types.Command),
		proposedAt:   make(map[types.SlotNumber]time.Time),
	}
}

// Run handles Request and Decision messages forever (spec.md §4.5); any
// other kind is a protocol bug.
func (r *Replica) Run(inbox router.Inbox) {
	for {
		msg, ok := inbox.Get(r.pollInterval)
		if !ok {
			continue
		}
		switch msg.Kind {
		case types.KindRequest:
			r.propose(msg.Command)
		case types.KindDecision:
			r.onDecision(msg)
		default:
			panic(fmt.Sprintf("replica %v: unexpected message kind %v in inbox", r.me, msg.Kind))
		}
	}
}

// propose implements spec.md §4.5's propose(c): a command already
// decided anywhere is never re-proposed; otherwise the first slot that
// is free in both proposals and decisions is claimed for it, and
// Propose is sent to every leader.
func (r *Replica) propose(c types.Command) {
	for _, decided := range r.decisions {
		if decided.Equal(c) {
			return
		}
	}

	slot := types.SlotNumber(1)
	for {
		_, inProposals := r.proposals[slot]
		_, inDecisions := r.decisions[slot]
		if !inProposals && !inDecisions {
			break
		}
		slot++
	}
	r.proposals[slot] = c
	r.proposedAt[slot] = time.Now()
	utils.DebugLog(r.logger, "msg", "Proposing.", "slot", slot, "command", c)
	for _, leader := range r.env.Cluster().Leaders() {
		r.env.Router().Send(leader, types.NewPropose(r.me, slot, c))
	}
}

// onDecision implements spec.md §4.5's Decision handler: record the
// decision, then drain every consecutive slot starting at r.slot that
// now has a decision, reproposing any of our own proposals a decision
// superseded before finally performing the decided command.
func (r *Replica) onDecision(msg types.Message) {
	r.decisions[msg.Slot] = msg.Command

	for {
		decided, found := r.decisions[r.slot]
		if !found {
			return
		}
		if proposed, ok := r.proposals[r.slot]; ok && !proposed.Equal(decided) {
			r.propose(proposed)
		}
		r.perform(decided)
	}
}

// perform delivers c to the application unless an earlier slot already
// decided the identical command, in which case it is a duplicate and
// only the slot counter advances (spec.md §4.5). This is what collapses
// commands that multiple leaders settled at different slots down to a
// single execution.
func (r *Replica) perform(c types.Command) {
	alreadyExecuted := false
	for s, decided := range r.decisions {
		if s < r.slot && decided.Equal(c) {
			alreadyExecuted = true
			break
		}
	}
	if !alreadyExecuted && r.applier != nil {
		r.applier.Apply(r.slot, c)
	}
	if !alreadyExecuted && r.metrics != nil {
		r.metrics.DecisionsApplied.Inc()
		if proposed, mine := r.proposals[r.slot]; mine && proposed.Equal(c) {
			r.metrics.DecisionLatency.Observe(time.Since(r.proposedAt[r.slot]).Seconds())
		}
	}
	delete(r.proposals, r.slot)
	delete(r.proposedAt, r.slot)
	r.slot++
}

// Status reports the replica's next slot and how many proposals and
// decisions it currently holds.
func (r *Replica) Status(sc *status.StatusConsumer) {
	sc.Emit(fmt.Sprintf("Replica %v: slot=%d, proposals=%d, decisions=%d", r.me, r.slot, len(r.proposals), len(r.decisions)))
	sc.Join()
}
