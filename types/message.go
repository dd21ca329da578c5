package types

import "fmt"

// MessageKind tags the nine message variants the core roles exchange.
type MessageKind uint8

const (
	KindP1A MessageKind = iota
	KindP1B
	KindP2A
	KindP2B
	KindPreempt
	KindAdopt
	KindDecision
	KindRequest
	KindPropose
)

func (k MessageKind) String() string {
	switch k {
	case KindP1A:
		return "P1A"
	case KindP1B:
		return "P1B"
	case KindP2A:
		return "P2A"
	case KindP2B:
		return "P2B"
	case KindPreempt:
		return "Preempt"
	case KindAdopt:
		return "Adopt"
	case KindDecision:
		return "Decision"
	case KindRequest:
		return "Request"
	case KindPropose:
		return "Propose"
	default:
		return "Unknown"
	}
}

// Message is the one wire-shaped struct every role sends and receives.
// Every variant carries From (the sender's ProcessId) as its first
// logical field; the remaining fields are populated per Kind, matching
// the "optional fields" shape spec.md §6.1 describes for the wire form.
// Keeping one flat struct (rather than nine distinct Go types behind an
// interface) is what lets the wire codec round-trip a Message with a
// single msgpack struct tag set, with no type registry.
type Message struct {
	Kind     MessageKind  `msgpack:"k"`
	From     ProcessId    `msgpack:"f"`
	Ballot   BallotNumber `msgpack:"b"`
	Slot     SlotNumber   `msgpack:"s"`
	Command  Command      `msgpack:"c"`
	Accepted Accepted     `msgpack:"a"`
}

func (m Message) String() string {
	return fmt.Sprintf("%v{from:%v, ballot:%v, slot:%d, cmd:%v, accepted:%d}",
		m.Kind, m.From, m.Ballot, m.Slot, m.Command, len(m.Accepted))
}

func NewP1A(from ProcessId, ballot BallotNumber) Message {
	return Message{Kind: KindP1A, From: from, Ballot: ballot}
}

func NewP1B(from ProcessId, ballot BallotNumber, accepted Accepted) Message {
	return Message{Kind: KindP1B, From: from, Ballot: ballot, Accepted: accepted}
}

func NewP2A(from ProcessId, ballot BallotNumber, slot SlotNumber, cmd Command) Message {
	return Message{Kind: KindP2A, From: from, Ballot: ballot, Slot: slot, Command: cmd}
}

func NewP2B(from ProcessId, ballot BallotNumber, slot SlotNumber) Message {
	return Message{Kind: KindP2B, From: from, Ballot: ballot, Slot: slot}
}

func NewPreempt(from ProcessId, ballot BallotNumber) Message {
	return Message{Kind: KindPreempt, From: from, Ballot: ballot}
}

func NewAdopt(from ProcessId, ballot BallotNumber, accepted Accepted) Message {
	return Message{Kind: KindAdopt, From: from, Ballot: ballot, Accepted: accepted}
}

func NewDecision(from ProcessId, slot SlotNumber, cmd Command) Message {
	return Message{Kind: KindDecision, From: from, Slot: slot, Command: cmd}
}

func NewRequest(from ProcessId, cmd Command) Message {
	return Message{Kind: KindRequest, From: from, Command: cmd}
}

func NewPropose(from ProcessId, slot SlotNumber, cmd Command) Message {
	return Message{Kind: KindPropose, From: from, Slot: slot, Command: cmd}
}
