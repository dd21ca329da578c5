// Package types defines the core Multi-Paxos data model: process
// identifiers, ballots, slots, commands and p-values. Nothing in this
// package depends on any particular transport or role implementation.
package types

import (
	"fmt"
	"net"
)

// ProcessType names a role a ProcessId was registered under. Used by the
// Cluster directory to group ids; Scouts and Commanders register as
// themselves, not under a shared type, since they are ephemeral.
type ProcessType uint8

const (
	ProcessAcceptor ProcessType = iota
	ProcessLeader
	ProcessReplica
	ProcessScout
	ProcessCommander
	ProcessClient
)

func (pt ProcessType) String() string {
	switch pt {
	case ProcessAcceptor:
		return "acceptor"
	case ProcessLeader:
		return "leader"
	case ProcessReplica:
		return "replica"
	case ProcessScout:
		return "scout"
	case ProcessCommander:
		return "commander"
	case ProcessClient:
		return "client"
	default:
		return "unknown"
	}
}

// ProcessId is a globally unique, hashable, totally ordered identifier
// for a process. It carries enough addressing information (host + port +
// instance counter) for the wire transport to deliver to it directly, so
// it doubles as the process's network address.
//
// ProcessId is a plain value: copy it freely, compare it with ==, use it
// as a map key.
type ProcessId struct {
	IP   string // dotted-quad or bracket-free IPv6 literal; empty for in-process-only ids
	Port uint32
	Id   uint32
}

// NewProcessId builds an id addressable over the wire transport.
func NewProcessId(ip string, port uint32, id uint32) ProcessId {
	return ProcessId{IP: ip, Port: port, Id: id}
}

// Addr renders the host:port this id's wire transport listens on.
func (p ProcessId) Addr() string {
	return net.JoinHostPort(p.IP, fmt.Sprint(p.Port))
}

// Less gives ProcessId a total order: by IP, then port, then instance
// counter. Used only to make BallotNumber totally ordered; the protocol
// never otherwise compares ids by magnitude.
func (p ProcessId) Less(o ProcessId) bool {
	if p.IP != o.IP {
		return p.IP < o.IP
	}
	if p.Port != o.Port {
		return p.Port < o.Port
	}
	return p.Id < o.Id
}

func (p ProcessId) String() string {
	return fmt.Sprintf("%s/%d", p.Addr(), p.Id)
}
