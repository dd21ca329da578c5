package paxos

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/routhusundeep/paxos/cluster"
	"github.com/routhusundeep/paxos/env"
	"github.com/routhusundeep/paxos/paxosmetrics"
	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
	"github.com/routhusundeep/paxos/utils"
)

// Commander is the single-use phase-2 worker spawned by a Leader
// (spec.md §4.4): it drives one (ballot, slot, command) triple to a
// majority of P2B acks, then broadcasts Decision to every Replica and
// to its parent Leader, and exits.
type Commander struct {
	me           types.ProcessId
	leader       types.ProcessId
	ballot       types.BallotNumber
	slot         types.SlotNumber
	command      types.Command
	logger       log.Logger
	env          *env.Env
	pollInterval time.Duration
	metrics      *paxosmetrics.Metrics
}

// NewCommander constructs a Commander driving (ballot, slot, command) to
// consensus, to be run by its own goroutine via env.Register.
func NewCommander(me, leader types.ProcessId, ballot types.BallotNumber, slot types.SlotNumber, cmd types.Command, e *env.Env, logger log.Logger, pollInterval time.Duration, metrics *paxosmetrics.Metrics) *Commander {
	return &Commander{
		me:           me,
		leader:       leader,
		ballot:       ballot,
		slot:         slot,
		command:      cmd,
		logger:       log.With(logger, "role", "commander", "id", me, "ballot", ballot, "slot", slot),
		env:          e,
		pollInterval: pollInterval,
		metrics:      metrics,
	}
}

// Run implements the algorithm in spec.md §4.4: broadcast P2A, collect
// P2B from a strict majority of acceptors still at this ballot; any P2B
// carrying a different ballot is an immediate Preempt and Run exits.
func (c *Commander) Run(inbox router.Inbox) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.ActiveCommanders.Inc()
		defer c.metrics.ActiveCommanders.Dec()
	}
	defer func() {
		if c.metrics != nil {
			c.metrics.CommanderLifespan.Observe(time.Since(start).Seconds())
		}
		c.env.Unregister(c.me)
	}()

	acceptors := c.env.Cluster().Acceptors()
	wait := make(map[types.ProcessId]utils.EmptyStruct, len(acceptors))
	for _, a := range acceptors {
		wait[a] = utils.EmptyStructVal
		c.env.Router().Send(a, types.NewP2A(c.me, c.ballot, c.slot, c.command))
	}

	total := len(acceptors)

	// Same majority-loop convention as Scout (spec.md §4.3, §4.4).
	for !cluster.IsMajority(total-len(wait), total) {
		msg, ok := inbox.Get(c.pollInterval)
		if !ok {
			continue
		}
		if msg.Kind != types.KindP2B {
			panic(fmt.Sprintf("commander %v: unexpected message kind %v in inbox", c.me, msg.Kind))
		}

		if !msg.Ballot.Equal(c.ballot) {
			utils.DebugLog(c.logger, "msg", "Preempted.", "by", msg.Ballot)
			c.env.Router().Send(c.leader, types.NewPreempt(c.me, msg.Ballot))
			return
		}

		if _, stillWaiting := wait[msg.From]; stillWaiting {
			delete(wait, msg.From)
		}
	}

	utils.DebugLog(c.logger, "msg", "Decided.")
	decision := types.NewDecision(c.me, c.slot, c.command)
	for _, r := range c.env.Cluster().Replicas() {
		c.env.Router().Send(r, decision)
	}
	c.env.Router().Send(c.leader, decision)
}
