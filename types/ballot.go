package types

import "fmt"

// BallotNumber is (round, owner), totally ordered lexicographically. A
// leader advances by constructing a new ballot with round+1 and its own
// id; ballots themselves are immutable values.
type BallotNumber struct {
	Round uint64
	Owner ProcessId
}

// FirstBallot is first(pid) from spec.md §3: round 0, owned by pid.
func FirstBallot(pid ProcessId) BallotNumber {
	return BallotNumber{Round: 0, Owner: pid}
}

// Next constructs the ballot a leader advances to after being preempted
// by a ballot with round r: (r+1, me).
func (b BallotNumber) Next(me ProcessId, preemptingRound uint64) BallotNumber {
	return BallotNumber{Round: preemptingRound + 1, Owner: me}
}

// Less implements the total order (round, owner) lexicographically.
func (b BallotNumber) Less(o BallotNumber) bool {
	if b.Round != o.Round {
		return b.Round < o.Round
	}
	return b.Owner.Less(o.Owner)
}

func (b BallotNumber) Equal(o BallotNumber) bool {
	return b.Round == o.Round && b.Owner == o.Owner
}

func (b BallotNumber) String() string {
	return fmt.Sprintf("(%d,%v)", b.Round, b.Owner)
}

// SlotNumber indexes the replicated command log. Densely assigned by
// replicas starting at 1.
type SlotNumber uint64
