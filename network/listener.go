package network

import (
	"bufio"
	"net"

	"github.com/go-kit/kit/log"

	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
	"github.com/routhusundeep/paxos/utils"
)

// InboxLookup resolves a WireMessage's destination ProcessId to the
// local inbox it should be enqueued on. The network package never owns
// inboxes itself; Env/Router do, and the harness wires a lookup closure
// over whichever directory it is using.
type InboxLookup func(types.ProcessId) (router.Inbox, bool)

// Listener binds the single PULL-style endpoint a process exposes
// (spec.md §6.2): a poller goroutine per accepted connection reads
// length-delimited WireMessage frames and enqueues the inner Message on
// the local inbox named by the envelope's To field.
type Listener struct {
	logger log.Logger
	ln     net.Listener
	lookup InboxLookup
}

// NewListener binds addr and starts accepting connections in the
// background. Call Close to stop.
func NewListener(addr string, lookup InboxLookup, logger log.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l := &Listener{logger: log.With(logger, "component", "network.Listener", "addr", addr), ln: ln, lookup: lookup}
	go l.acceptLoop()
	return l, nil
}

func (l *Listener) Close() error { return l.ln.Close() }

func (l *Listener) acceptLoop() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			utils.DebugLog(l.logger, "msg", "Listener accept stopped.", "error", err)
			return
		}
		go l.serve(conn)
	}
}

// serve is the per-connection poller. A serialization failure, or a
// WireMessage addressed to a process this node doesn't know about,
// ends this poller (spec.md §7); other connections are unaffected.
func (l *Listener) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		env, err := readFrame(r)
		if err != nil {
			utils.DebugLog(l.logger, "msg", "Poller stopping.", "error", err, "remote", conn.RemoteAddr())
			return
		}
		inbox, found := l.lookup(env.To)
		if !found {
			l.logger.Log("msg", "Fatal: WireMessage addressed to unknown local process, routing table desynced.", "to", env.To)
			return
		}
		select {
		case inbox <- env.Message:
		default:
			utils.DebugLog(l.logger, "msg", "Inbox full, dropping inbound message.", "to", env.To)
		}
	}
}
