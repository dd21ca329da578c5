// Package configuration holds the static description of a cluster: how
// many processes of each role exist and where each one listens. Unlike
// the teacher's Configuration/Topology pair (which is versioned,
// capnproto-encoded and exchanged at runtime to support live
// reconfiguration), this one is loaded once at startup and never
// changes afterwards — reconfiguration is an explicit non-goal of the
// protocol this builds (spec.md §1).
package configuration

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/routhusundeep/paxos/types"
)

// ProcessSpec names one acceptor/leader/replica's network address.
type ProcessSpec struct {
	Host string `json:"host"`
	Port uint32 `json:"port"`
}

// Cluster is the JSON document a quorumd binary is started with: the
// full, fixed membership of every role plus the one tuning knob the
// protocol exposes (spec.md §9: poll interval is a performance
// parameter, not a correctness one).
type Cluster struct {
	Acceptors    []ProcessSpec `json:"acceptors"`
	Leaders      []ProcessSpec `json:"leaders"`
	Replicas     []ProcessSpec `json:"replicas"`
	PollInterval time.Duration `json:"pollIntervalMS"`
}

// Load reads and validates a Cluster document from path.
func Load(path string) (*Cluster, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configuration: reading %s: %w", path, err)
	}
	var raw struct {
		Acceptors      []ProcessSpec `json:"acceptors"`
		Leaders        []ProcessSpec `json:"leaders"`
		Replicas       []ProcessSpec `json:"replicas"`
		PollIntervalMS int64         `json:"pollIntervalMS"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("configuration: parsing %s: %w", path, err)
	}
	c := &Cluster{
		Acceptors:    raw.Acceptors,
		Leaders:      raw.Leaders,
		Replicas:     raw.Replicas,
		PollInterval: time.Duration(raw.PollIntervalMS) * time.Millisecond,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the minimum shape spec.md §9 assumes of any cluster:
// at least one acceptor and one leader (a cluster with neither can
// never reach a decision), and a positive poll interval.
func (c *Cluster) Validate() error {
	if len(c.Acceptors) == 0 {
		return fmt.Errorf("configuration: cluster has no acceptors")
	}
	if len(c.Leaders) == 0 {
		return fmt.Errorf("configuration: cluster has no leaders")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("configuration: pollIntervalMS must be positive")
	}
	return nil
}

func (ps ProcessSpec) addr() string {
	return fmt.Sprintf("%s:%d", ps.Host, ps.Port)
}

// ProcessId turns a ProcessSpec into the ProcessId a Router/Env need;
// id distinguishes multiple roles sharing one host:port in tests.
func (ps ProcessSpec) ProcessId(id uint32) types.ProcessId {
	return types.NewProcessId(ps.Host, ps.Port, id)
}
