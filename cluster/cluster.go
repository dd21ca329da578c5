// Package cluster implements the process directory every role consults
// to find its peers: "all acceptors", "all leaders", "all replicas".
package cluster

import (
	"sync"

	"github.com/routhusundeep/paxos/types"
)

// Cluster is a thread-safe directory mapping ProcessType to an ordered
// list of ProcessId. It is written only during registration and read
// often by Scouts, Commanders, Leaders and Replicas; Add takes the write
// lock, the accessor methods take the read lock and return a snapshot
// copy so callers can iterate without holding any lock (spec.md §4.6,
// §9: "never hold its lock across a send").
type Cluster struct {
	mu      sync.RWMutex
	members map[types.ProcessType][]types.ProcessId
}

// New returns an empty Cluster.
func New() *Cluster {
	return &Cluster{members: make(map[types.ProcessType][]types.ProcessId)}
}

// Add registers id under type. Safe to call concurrently with any
// accessor; registrations after startup (ephemeral Scouts/Commanders
// registering under ProcessScout/ProcessCommander) are supported, though
// the core roles only ever read the Acceptors/Leaders/Replicas lists.
func (c *Cluster) Add(pt types.ProcessType, id types.ProcessId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members[pt] = append(c.members[pt], id)
}

func (c *Cluster) snapshot(pt types.ProcessType) []types.ProcessId {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.members[pt]
	out := make([]types.ProcessId, len(ids))
	copy(out, ids)
	return out
}

// Acceptors returns a snapshot of every registered acceptor id.
func (c *Cluster) Acceptors() []types.ProcessId { return c.snapshot(types.ProcessAcceptor) }

// Leaders returns a snapshot of every registered leader id.
func (c *Cluster) Leaders() []types.ProcessId { return c.snapshot(types.ProcessLeader) }

// Replicas returns a snapshot of every registered replica id.
func (c *Cluster) Replicas() []types.ProcessId { return c.snapshot(types.ProcessReplica) }

// IsMajority reports whether count constitutes a strict majority of
// total, using the convention spec.md §4.3 pins down: ties break toward
// "not yet majority", so an even-sized cluster still needs strictly more
// than half to have answered.
func IsMajority(count, total int) bool {
	return 2*count > total
}
