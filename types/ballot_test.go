package types

import "testing"

func TestBallotNumberLess(t *testing.T) {
	low := NewProcessId("10.0.0.1", 9000, 1)
	high := NewProcessId("10.0.0.2", 9000, 1)

	cases := []struct {
		name string
		a, b BallotNumber
		want bool
	}{
		{"lower round wins regardless of owner", BallotNumber{Round: 0, Owner: high}, BallotNumber{Round: 1, Owner: low}, true},
		{"equal round breaks on owner", BallotNumber{Round: 5, Owner: low}, BallotNumber{Round: 5, Owner: high}, true},
		{"equal round and owner is not less", BallotNumber{Round: 5, Owner: low}, BallotNumber{Round: 5, Owner: low}, false},
		{"higher round is not less", BallotNumber{Round: 9, Owner: low}, BallotNumber{Round: 3, Owner: high}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Less(c.b); got != c.want {
				t.Errorf("%v.Less(%v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestBallotNumberNext(t *testing.T) {
	me := NewProcessId("10.0.0.1", 9000, 1)
	b := FirstBallot(me)
	next := b.Next(me, 4)
	if next.Round != 5 {
		t.Errorf("Next round = %d, want 5", next.Round)
	}
	if next.Owner != me {
		t.Errorf("Next owner = %v, want %v", next.Owner, me)
	}
}

func TestFirstBallotIsRoundZero(t *testing.T) {
	me := NewProcessId("10.0.0.1", 9000, 1)
	b := FirstBallot(me)
	if b.Round != 0 || b.Owner != me {
		t.Errorf("FirstBallot = %v, want round 0 owned by %v", b, me)
	}
}
