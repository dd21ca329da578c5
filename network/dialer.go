package network

import (
	"context"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"golang.org/x/sync/semaphore"

	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
	"github.com/routhusundeep/paxos/utils"
)

// peerConn tracks the one persistent outbound connection a Dialer keeps
// per destination, plus the backoff state used while that destination
// is unreachable.
type peerConn struct {
	conn        net.Conn
	backoff     *utils.BinaryBackoffEngine
	nextAttempt time.Time
}

// Dialer is the PUSH side of the wire transport (spec.md §6.2): it
// multiplexes Send calls from every local role onto one long-lived
// net.Conn per destination process, reconnecting with a jittered binary
// backoff (utils.BinaryBackoffEngine, the same engine the teacher uses
// for its own connection retries) and bounding how many connections may
// be mid-dial at once with a weighted semaphore so a large cluster
// start doesn't open hundreds of sockets simultaneously.
//
// Dialer satisfies router.Router, so a role never knows whether it is
// talking to a local or a remote peer.
type Dialer struct {
	logger  log.Logger
	dialSem *semaphore.Weighted
	rng     *rand.Rand

	mu    sync.Mutex
	peers map[types.ProcessId]*peerConn
}

// NewDialer returns a Dialer allowing at most maxConcurrentDials
// in-flight connection attempts at a time.
func NewDialer(logger log.Logger, maxConcurrentDials int64) *Dialer {
	return &Dialer{
		logger:  log.With(logger, "component", "network.Dialer"),
		dialSem: semaphore.NewWeighted(maxConcurrentDials),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		peers:   make(map[types.ProcessId]*peerConn),
	}
}

// Send writes msg, wrapped in a WireMessage addressed to to, on the
// persistent connection for to, dialing one if none exists yet. Any
// failure (dial or write) is logged and the message is dropped: the
// protocol already tolerates message loss (spec.md §5, §7).
func (d *Dialer) Send(to types.ProcessId, msg types.Message) {
	pc := d.peerState(to)

	d.mu.Lock()
	skip := time.Now().Before(pc.nextAttempt)
	conn := pc.conn
	d.mu.Unlock()
	if skip {
		utils.DebugLog(d.logger, "msg", "Send dropped, peer in backoff.", "to", to)
		return
	}

	if conn == nil {
		var err error
		conn, err = d.dial(to)
		if err != nil {
			d.onDialFailure(to, pc, err)
			return
		}
		d.mu.Lock()
		pc.conn = conn
		pc.backoff.Shrink(0)
		d.mu.Unlock()
	}

	if err := writeFrame(conn, WireMessage{To: to, Message: msg}); err != nil {
		utils.DebugLog(d.logger, "msg", "Write failed, dropping connection.", "to", to, "error", err)
		conn.Close()
		d.mu.Lock()
		if pc.conn == conn {
			pc.conn = nil
		}
		d.mu.Unlock()
	}
}

func (d *Dialer) peerState(to types.ProcessId) *peerConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	pc, found := d.peers[to]
	if !found {
		pc = &peerConn{backoff: utils.NewBinaryBackoffEngine(d.rng, 10*time.Millisecond, 5*time.Second)}
		d.peers[to] = pc
	}
	return pc
}

func (d *Dialer) dial(to types.ProcessId) (net.Conn, error) {
	if err := d.dialSem.Acquire(context.Background(), 1); err != nil {
		return nil, err
	}
	defer d.dialSem.Release(1)
	return net.DialTimeout("tcp", to.Addr(), 2*time.Second)
}

func (d *Dialer) onDialFailure(to types.ProcessId, pc *peerConn, err error) {
	utils.DebugLog(d.logger, "msg", "Dial failed, backing off.", "to", to, "error", err)
	d.mu.Lock()
	defer d.mu.Unlock()
	pc.nextAttempt = time.Now().Add(pc.backoff.Advance())
}

var _ router.Router = (*Dialer)(nil)
