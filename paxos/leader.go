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

type proposalStatus uint8

const (
	proposalPending proposalStatus = iota
	proposalDone
)

type proposalEntry struct {
	command types.Command
	status  proposalStatus
}

// Leader runs the stable-leader loop from spec.md §4.2: for its current
// ballot, it turns Propose requests into p-values and drives them to
// chosen status via Commanders, and re-scouts whenever it is preempted.
//
// A Leader is single-threaded: it owns proposals exclusively and mutates
// it only while processing one message at a time off its own inbox, so
// none of the methods below need any locking.
type Leader struct {
	me           types.ProcessId
	logger       log.Logger
	env          *env.Env
	pollInterval time.Duration
	metrics      *paxosmetrics.Metrics

	ballot    types.BallotNumber
	active    bool
	proposals map[types.SlotNumber]*proposalEntry
}

// NewLeader constructs a Leader starting inactive at ballot first(me).
func NewLeader(me types.ProcessId, e *env.Env, logger log.Logger, pollInterval time.Duration, metrics *paxosmetrics.Metrics) *Leader {
	return &Leader{
		me:           me,
		logger:       log.With(logger, "role", "leader", "id", me),
		env:          e,
		pollInterval: pollInterval,
		metrics:      metrics,
		ballot:       types.FirstBallot(me),
		proposals:    make(map[types.SlotNumber]*proposalEntry),
	}
}

// Run spawns the initial Scout and then loops forever handling Propose,
// Adopt, Preempt and Decision messages (spec.md §4.2). Any other kind
// arriving here is a protocol bug.
func (l *Leader) Run(inbox router.Inbox) {
	l.spawnScout(l.ballot)
	l.updateBallotMetric()

	for {
		msg, ok := inbox.Get(l.pollInterval)
		if !ok {
			continue
		}
		switch msg.Kind {
		case types.KindPropose:
			l.onPropose(msg)
		case types.KindAdopt:
			l.onAdopt(msg)
		case types.KindPreempt:
			l.onPreempt(msg)
		case types.KindDecision:
			l.onDecision(msg)
		default:
			panic(fmt.Sprintf("leader %v: unexpected message kind %v in inbox", l.me, msg.Kind))
		}
	}
}

// onPropose records a pending proposal for a slot this leader hasn't
// seen before, and if already active, immediately spawns a Commander
// for it at the current ballot.
func (l *Leader) onPropose(msg types.Message) {
	if _, found := l.proposals[msg.Slot]; !found {
		l.proposals[msg.Slot] = &proposalEntry{command: msg.Command, status: proposalPending}
		utils.DebugLog(l.logger, "msg", "Propose received.", "slot", msg.Slot)
		if l.active {
			l.spawnCommander(msg.Slot, msg.Command)
		}
	}
}

// onAdopt merges a majority's accepted p-values into proposals — for
// each slot the Scout learned about, the proposal is overwritten with
// the command of the highest-ballot p-value for that slot, since vals
// already holds the per-slot max. It then replays *every* currently
// pending proposal (not just the ones just learned) by spawning a
// Commander for each at the new ballot: requests that arrived while
// this leader was inactive must not be silently dropped (spec.md §4.2,
// "Key design point"). Adopts for a ballot this leader has since moved
// past are discarded.
func (l *Leader) onAdopt(msg types.Message) {
	if !msg.Ballot.Equal(l.ballot) {
		utils.DebugLog(l.logger, "msg", "Stale adopt discarded.", "adoptBallot", msg.Ballot)
		return
	}

	for slot, pv := range msg.Accepted {
		l.proposals[slot] = &proposalEntry{command: pv.Command, status: proposalPending}
	}

	l.active = true
	for slot, entry := range l.proposals {
		if entry.status == proposalPending {
			l.spawnCommander(slot, entry.command)
		}
	}
	utils.DebugLog(l.logger, "msg", "Adopted, now active.", "ballot", l.ballot)
}

// onPreempt advances to a strictly higher ballot owned by this leader
// and starts a fresh Scout. Preempts at or below the current ballot are
// stale and ignored.
func (l *Leader) onPreempt(msg types.Message) {
	if !l.ballot.Less(msg.Ballot) {
		return
	}
	l.ballot = l.ballot.Next(l.me, msg.Ballot.Round)
	l.active = false
	utils.DebugLog(l.logger, "msg", "Preempted, rescouting.", "newBallot", l.ballot)
	l.spawnScout(l.ballot)
	l.updateBallotMetric()
}

// onDecision marks a slot's proposal DONE so that a later Adopt does not
// re-propose it; purely a local hint, no reply is sent.
func (l *Leader) onDecision(msg types.Message) {
	if entry, found := l.proposals[msg.Slot]; found {
		entry.status = proposalDone
	}
}

func (l *Leader) spawnScout(ballot types.BallotNumber) {
	id := l.env.NewId()
	scout := NewScout(id, l.me, ballot, l.env, l.logger, l.pollInterval, l.metrics)
	l.env.Register(id, types.ProcessScout, scout)
}

func (l *Leader) spawnCommander(slot types.SlotNumber, cmd types.Command) {
	id := l.env.NewId()
	commander := NewCommander(id, l.me, l.ballot, slot, cmd, l.env, l.logger, l.pollInterval, l.metrics)
	l.env.Register(id, types.ProcessCommander, commander)
}

func (l *Leader) updateBallotMetric() {
	if l.metrics != nil {
		l.metrics.LeaderBallotRound.Set(float64(l.ballot.Round))
	}
}

// Status reports this leader's ballot, active flag and proposal counts.
func (l *Leader) Status(sc *status.StatusConsumer) {
	pending, done := 0, 0
	for _, entry := range l.proposals {
		if entry.status == proposalPending {
			pending++
		} else {
			done++
		}
	}
	sc.Emit(fmt.Sprintf("Leader %v: ballot=%v, active=%v, pending=%d, done=%d", l.me, l.ballot, l.active, pending, done))
	sc.Join()
}
