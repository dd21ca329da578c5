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

// Scout is the single-use phase-1 worker spawned by a Leader (spec.md
// §4.3): it sends P1A to every acceptor for one ballot, waits for a
// majority of P1B replies, and reports Adopt (carrying the merged
// accepted-sets) or Preempt to its parent, then exits. A Scout that
// never reaches majority just blocks forever on its inbox, holding no
// resources of interest (spec.md §5).
type Scout struct {
	me           types.ProcessId
	leader       types.ProcessId
	ballot       types.BallotNumber
	logger       log.Logger
	env          *env.Env
	pollInterval time.Duration
	metrics      *paxosmetrics.Metrics
}

// NewScout constructs a Scout for ballot, to be run by its own
// goroutine via env.Register.
func NewScout(me, leader types.ProcessId, ballot types.BallotNumber, e *env.Env, logger log.Logger, pollInterval time.Duration, metrics *paxosmetrics.Metrics) *Scout {
	return &Scout{
		me:           me,
		leader:       leader,
		ballot:       ballot,
		logger:       log.With(logger, "role", "scout", "id", me, "ballot", ballot),
		env:          e,
		pollInterval: pollInterval,
		metrics:      metrics,
	}
}

// Run implements the algorithm in spec.md §4.3: broadcast P1A, collect
// P1B from a strict majority of acceptors (cluster.IsMajority), merging
// their accepted-sets per-slot-max as they arrive; any P1B at a
// different ballot is an immediate Preempt and Run exits.
func (s *Scout) Run(inbox router.Inbox) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.ActiveScouts.Inc()
		defer s.metrics.ActiveScouts.Dec()
	}
	defer func() {
		if s.metrics != nil {
			s.metrics.ScoutLifespan.Observe(time.Since(start).Seconds())
		}
		s.env.Unregister(s.me)
	}()

	acceptors := s.env.Cluster().Acceptors()
	wait := make(map[types.ProcessId]utils.EmptyStruct, len(acceptors))
	for _, a := range acceptors {
		wait[a] = utils.EmptyStructVal
		s.env.Router().Send(a, types.NewP1A(s.me, s.ballot))
	}

	values := types.NewAccepted()
	total := len(acceptors)

	// Loop until the acceptors that have answered so far form a strict
	// majority (cluster.IsMajority breaks ties toward "not yet majority",
	// spec.md §4.3).
	for !cluster.IsMajority(total-len(wait), total) {
		msg, ok := inbox.Get(s.pollInterval)
		if !ok {
			continue
		}
		if msg.Kind != types.KindP1B {
			panic(fmt.Sprintf("scout %v: unexpected message kind %v in inbox", s.me, msg.Kind))
		}

		if !msg.Ballot.Equal(s.ballot) {
			utils.DebugLog(s.logger, "msg", "Preempted.", "by", msg.Ballot)
			s.env.Router().Send(s.leader, types.NewPreempt(s.me, msg.Ballot))
			return
		}

		if _, stillWaiting := wait[msg.From]; stillWaiting {
			delete(wait, msg.From)
			values.Merge(msg.Accepted)
		}
	}

	utils.DebugLog(s.logger, "msg", "Adopted.")
	s.env.Router().Send(s.leader, types.NewAdopt(s.me, s.ballot, values))
}
