package cluster

import (
	"testing"

	"github.com/routhusundeep/paxos/types"
)

func pid(n uint32) types.ProcessId { return types.NewProcessId("10.0.0.1", 9000, n) }

func TestClusterAddAndSnapshot(t *testing.T) {
	c := New()
	a1, a2 := pid(1), pid(2)
	c.Add(types.ProcessAcceptor, a1)
	c.Add(types.ProcessAcceptor, a2)
	c.Add(types.ProcessLeader, pid(10))

	acceptors := c.Acceptors()
	if len(acceptors) != 2 {
		t.Fatalf("Acceptors() = %v, want 2 entries", acceptors)
	}
	if len(c.Leaders()) != 1 {
		t.Fatalf("Leaders() returned %d, want 1", len(c.Leaders()))
	}
	if len(c.Replicas()) != 0 {
		t.Fatalf("Replicas() returned %d, want 0", len(c.Replicas()))
	}

	// A snapshot must be independent of later registrations.
	c.Add(types.ProcessAcceptor, pid(3))
	if len(acceptors) != 2 {
		t.Fatalf("earlier snapshot mutated after a later Add: %v", acceptors)
	}
}

func TestIsMajority(t *testing.T) {
	cases := []struct {
		count, total int
		want         bool
	}{
		{0, 1, false},
		{1, 1, true},
		{1, 2, false}, // ties break toward "not yet majority"
		{2, 2, true},
		{1, 3, false},
		{2, 3, true},
		{2, 4, false}, // even cluster still needs strictly more than half
		{3, 4, true},
	}
	for _, c := range cases {
		if got := IsMajority(c.count, c.total); got != c.want {
			t.Errorf("IsMajority(%d, %d) = %v, want %v", c.count, c.total, got, c.want)
		}
	}
}
