// Package paxosmetrics exposes the prometheus metrics the roles update.
// It follows the same shape as goshawkdb's ProposerMetrics in
// paxos/proposermanager.go (a small struct of Gauge/Observer handles
// handed to the component that updates them) generalized from one
// metric family per txn proposer to one per Paxos role.
package paxosmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the gauges and histograms updated by the Leader, Scout,
// Commander, Acceptor and Replica implementations.
type Metrics struct {
	ActiveScouts      prometheus.Gauge
	ActiveCommanders  prometheus.Gauge
	LeaderBallotRound prometheus.Gauge
	ScoutLifespan     prometheus.Observer
	CommanderLifespan prometheus.Observer
	DecisionsApplied  prometheus.Counter
	DecisionLatency   prometheus.Observer
	AcceptorP1A       prometheus.Counter
	AcceptorP2A       prometheus.Counter
}

// NewMetrics registers a full set of Paxos metrics against reg and
// returns the handles. Pass a distinct pid label per process so a
// multi-role-per-binary harness (as used in the test suite and the demo
// command) doesn't collide series.
func NewMetrics(reg prometheus.Registerer, pid string) *Metrics {
	labels := prometheus.Labels{"process": pid}

	m := &Metrics{
		ActiveScouts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "paxos",
			Name:        "active_scouts",
			Help:        "Number of Scouts currently running for this leader.",
			ConstLabels: labels,
		}),
		ActiveCommanders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "paxos",
			Name:        "active_commanders",
			Help:        "Number of Commanders currently running for this leader.",
			ConstLabels: labels,
		}),
		LeaderBallotRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "paxos",
			Name:        "leader_ballot_round",
			Help:        "Current ballot round this leader is using.",
			ConstLabels: labels,
		}),
		ScoutLifespan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "paxos",
			Name:        "scout_lifespan_seconds",
			Help:        "Time from Scout creation to Adopt or Preempt.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		CommanderLifespan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "paxos",
			Name:        "commander_lifespan_seconds",
			Help:        "Time from Commander creation to Decision or Preempt.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		DecisionsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "paxos",
			Name:        "decisions_applied_total",
			Help:        "Number of Decisions a Replica has performed (post-dedup).",
			ConstLabels: labels,
		}),
		DecisionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "paxos",
			Name:        "decision_latency_seconds",
			Help:        "Time from a Replica proposing a command to it being performed.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		AcceptorP1A: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "paxos",
			Name:        "acceptor_p1a_total",
			Help:        "Number of P1A messages this acceptor has processed.",
			ConstLabels: labels,
		}),
		AcceptorP2A: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "paxos",
			Name:        "acceptor_p2a_total",
			Help:        "Number of P2A messages this acceptor has processed.",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.ActiveScouts, m.ActiveCommanders, m.LeaderBallotRound,
		m.ScoutLifespan, m.CommanderLifespan, m.DecisionsApplied,
		m.DecisionLatency, m.AcceptorP1A, m.AcceptorP2A,
	} {
		if reg != nil {
			reg.MustRegister(c)
		}
	}
	return m
}
