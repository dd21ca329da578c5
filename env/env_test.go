package env

import (
	"testing"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
)

type recordingExecutor struct {
	started chan router.Inbox
}

func (e *recordingExecutor) Run(inbox router.Inbox) {
	e.started <- inbox
}

func TestEnvRegisterAddsToClusterAndStartsExecutor(t *testing.T) {
	ir := router.NewInProcessRouter(log.NewNopLogger())
	e := New(log.NewNopLogger(), ir, ir, "127.0.0.1", 9000)

	id := e.NewId()
	exec := &recordingExecutor{started: make(chan router.Inbox, 1)}
	inbox := e.Register(id, types.ProcessAcceptor, exec)

	select {
	case got := <-exec.started:
		if got != inbox {
			t.Fatalf("executor started with a different inbox than Register returned")
		}
	case <-time.After(time.Second):
		t.Fatal("executor's Run was never started")
	}

	acceptors := e.Cluster().Acceptors()
	if len(acceptors) != 1 || acceptors[0] != id {
		t.Fatalf("Cluster().Acceptors() = %v, want [%v]", acceptors, id)
	}

	if _, found := ir.Lookup(id); !found {
		t.Fatalf("Register did not wire the inbox into the in-process router")
	}
}

func TestEnvNewIdMintsDistinctIds(t *testing.T) {
	e := New(log.NewNopLogger(), nil, nil, "127.0.0.1", 9000)
	a := e.NewId()
	b := e.NewId()
	if a == b {
		t.Fatalf("NewId returned the same id twice: %v", a)
	}
	if a.IP != "127.0.0.1" || a.Port != 9000 {
		t.Fatalf("NewId ignored the Env's host/basePort: %v", a)
	}
}

func TestEnvUnregisterRemovesFromRouter(t *testing.T) {
	ir := router.NewInProcessRouter(log.NewNopLogger())
	e := New(log.NewNopLogger(), ir, ir, "127.0.0.1", 9000)

	id := e.NewId()
	exec := &recordingExecutor{started: make(chan router.Inbox, 1)}
	e.Register(id, types.ProcessScout, exec)
	<-exec.started

	e.Unregister(id)
	if _, found := ir.Lookup(id); found {
		t.Fatalf("Unregister left %v registered", id)
	}
}
