package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/routhusundeep/paxos/configuration"
	"github.com/routhusundeep/paxos/env"
	"github.com/routhusundeep/paxos/network"
	"github.com/routhusundeep/paxos/paxos"
	"github.com/routhusundeep/paxos/paxosmetrics"
	"github.com/routhusundeep/paxos/router"
	"github.com/routhusundeep/paxos/types"
	"github.com/routhusundeep/paxos/utils"
	"github.com/routhusundeep/paxos/utils/status"
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	var configFile, role string
	var index, promPort int
	var demo bool
	flag.StringVar(&configFile, "config", "", "`Path` to cluster configuration JSON (required unless -demo).")
	flag.StringVar(&role, "role", "", "Role this process runs: acceptor, leader or replica (required unless -demo).")
	flag.IntVar(&index, "index", 0, "Index of this process within its role's list in the configuration file.")
	flag.IntVar(&promPort, "prometheusPort", 9090, "Port to serve Prometheus metrics on. 0 disables it.")
	flag.BoolVar(&demo, "demo", false, "Run a small in-process cluster instead of reading -config.")
	flag.Parse()

	logger.Log("msg", "Starting quorumd.", "args", fmt.Sprint(os.Args))

	if promPort != 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", promPort)
			logger.Log("msg", "Serving Prometheus metrics.", "addr", addr)
			utils.CheckWarn(http.ListenAndServe(addr, mux), logger)
		}()
	}

	if demo {
		runDemo(logger)
		return
	}

	if configFile == "" || role == "" {
		fmt.Fprintln(os.Stderr, "either -demo, or both -config and -role, must be given")
		flag.Usage()
		os.Exit(1)
	}
	runWire(logger, configFile, role, index)
}

func signalWait(logger log.Logger, roots ...interface{ Status(*status.StatusConsumer) }) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	for sig := range sigCh {
		if sig == syscall.SIGUSR1 {
			sc := status.NewStatusConsumer()
			go func() {
				for _, r := range roots {
					r.Status(sc.Fork())
				}
				sc.Join()
			}()
			logger.Log("msg", "Status dump.", "status", sc.Wait())
			continue
		}
		logger.Log("msg", "Signal received, shutting down.", "signal", sig)
		return
	}
}

// runWire starts exactly one role process of a multi-binary cluster,
// wired to its peers over the network transport (spec.md §6.2).
func runWire(logger log.Logger, configFile, role string, index int) {
	cluster, err := configuration.Load(configFile)
	if err != nil {
		logger.Log("msg", "Failed to load configuration.", "error", err)
		os.Exit(1)
	}

	var self configuration.ProcessSpec
	var pt types.ProcessType
	switch role {
	case "acceptor":
		self, pt = cluster.Acceptors[index], types.ProcessAcceptor
	case "leader":
		self, pt = cluster.Leaders[index], types.ProcessLeader
	case "replica":
		self, pt = cluster.Replicas[index], types.ProcessReplica
	default:
		logger.Log("msg", "Unknown role.", "role", role)
		os.Exit(1)
	}
	me := self.ProcessId(uint32(index))

	metrics := paxosmetrics.NewMetrics(prometheus.DefaultRegisterer, me.String())

	ir := router.NewInProcessRouter(logger)
	dialer := network.NewDialer(logger, 32)
	e := env.New(logger, dialer, ir, self.Host, self.Port)

	for i, spec := range cluster.Acceptors {
		e.Cluster().Add(types.ProcessAcceptor, spec.ProcessId(uint32(i)))
	}
	for i, spec := range cluster.Leaders {
		e.Cluster().Add(types.ProcessLeader, spec.ProcessId(uint32(i)))
	}
	for i, spec := range cluster.Replicas {
		e.Cluster().Add(types.ProcessReplica, spec.ProcessId(uint32(i)))
	}

	listener, err := network.NewListener(self.ProcessId(uint32(index)).Addr(), ir.Lookup, logger)
	if err != nil {
		logger.Log("msg", "Failed to start listener.", "error", err)
		os.Exit(1)
	}
	defer func() { utils.CheckWarn(listener.Close(), logger) }()

	var statusRoot interface{ Status(*status.StatusConsumer) }
	switch pt {
	case types.ProcessAcceptor:
		a := paxos.NewAcceptor(me, e.Router(), logger, cluster.PollInterval, metrics)
		e.Register(me, pt, a)
		statusRoot = a
	case types.ProcessLeader:
		l := paxos.NewLeader(me, e, logger, cluster.PollInterval, metrics)
		e.Register(me, pt, l)
		statusRoot = l
	case types.ProcessReplica:
		applier := paxos.ApplierFunc(func(slot types.SlotNumber, cmd types.Command) {
			logger.Log("msg", "Decided command applied.", "slot", slot, "command", cmd)
		})
		r := paxos.NewReplica(me, e, logger, cluster.PollInterval, metrics, applier)
		e.Register(me, pt, r)
		statusRoot = r
	}

	logger.Log("msg", "quorumd process running.", "role", role, "id", me)
	signalWait(logger, statusRoot)
}

// runDemo spins up a complete cluster in one process over the
// in-process router, submits a handful of client requests, and runs
// until interrupted. Useful for trying the protocol out without
// standing up a real multi-host cluster.
func runDemo(logger log.Logger) {
	metrics := paxosmetrics.NewMetrics(prometheus.DefaultRegisterer, "demo")

	ir := router.NewInProcessRouter(logger)
	e := env.New(logger, ir, ir, "127.0.0.1", 0)

	const nAcceptors, nLeaders, nReplicas = 3, 2, 2
	pollInterval := 20 * time.Millisecond

	var replicas []*paxos.Replica
	for i := 0; i < nAcceptors; i++ {
		id := e.NewId()
		a := paxos.NewAcceptor(id, e.Router(), logger, pollInterval, metrics)
		e.Register(id, types.ProcessAcceptor, a)
	}
	for i := 0; i < nLeaders; i++ {
		id := e.NewId()
		l := paxos.NewLeader(id, e, logger, pollInterval, metrics)
		e.Register(id, types.ProcessLeader, l)
	}
	for i := 0; i < nReplicas; i++ {
		id := e.NewId()
		r := paxos.NewReplica(id, e, logger, pollInterval, metrics, paxos.ApplierFunc(
			func(slot types.SlotNumber, cmd types.Command) {
				logger.Log("msg", "Applied.", "slot", slot, "command", cmd)
			}))
		e.Register(id, types.ProcessReplica, r)
		replicas = append(replicas, r)
	}

	client := e.NewId()
	for i := 0; i < 5; i++ {
		cmd := types.Command{Client: client, RequestId: []byte(fmt.Sprintf("req-%d", i)), Operation: []byte(fmt.Sprintf("op-%d", i))}
		for _, id := range e.Cluster().Replicas() {
			e.Router().Send(id, types.NewRequest(client, cmd))
		}
	}

	logger.Log("msg", "Demo cluster running.", "acceptors", nAcceptors, "leaders", nLeaders, "replicas", nReplicas)
	signalWait(logger, replicas[0])
}
