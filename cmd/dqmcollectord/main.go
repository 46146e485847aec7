// Command dqmcollectord runs a DQM collector daemon: it wires a
// MonitorElementManager, a transport Bus, a RunControl, an Archiver,
// and the plugin manager into one process, and serves until a
// termination signal arrives.
//
// Grounded on the teacher's cmd/musclefs/musclefs.go main(): the gops
// diagnostics agent, signal-driven graceful shutdown, and -base flag
// defaulting to config.DefaultBaseDirectoryPath are all carried over
// in spirit.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	log "github.com/sirupsen/logrus"

	"github.com/dqm4hep/dqm4hep-go/internal/archiver"
	"github.com/dqm4hep/dqm4hep-go/internal/blobstore"
	"github.com/dqm4hep/dqm4hep-go/internal/buffer"
	"github.com/dqm4hep/dqm4hep-go/internal/config"
	"github.com/dqm4hep/dqm4hep-go/internal/manager"
	"github.com/dqm4hep/dqm4hep-go/internal/plugin"
	"github.com/dqm4hep/dqm4hep-go/internal/run"
	"github.com/dqm4hep/dqm4hep-go/internal/runcontrol"
	"github.com/dqm4hep/dqm4hep-go/internal/transport"
	"github.com/dqm4hep/dqm4hep-go/internal/transport/binarybus"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	if err := agent.Listen(agent.Options{}); err != nil {
		log.WithError(err).Warn("could not start gops agent")
	}
	// Do NOT use agent.ShutdownCleanup: a collector killed mid-flush
	// would lose the run currently being archived.
	defer agent.Close()

	base := flag.String("base", config.DefaultBaseDirectoryPath, "base directory for configuration, logs and archived containers")
	flag.Parse()

	cfg, err := config.Load(*base)
	if err != nil {
		log.WithError(err).Fatalf("could not load configuration from %q", *base)
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.WithError(err).Warnf("unrecognized log level %q, keeping default", cfg.LogLevel)
	} else {
		log.SetLevel(level)
	}

	mgr := manager.New(nil, nil)

	bus, err := binarybus.Listen(cfg.ListenNet, cfg.ListenAddr)
	if err != nil {
		log.WithError(err).Fatal("could not start transport")
	}
	defer bus.Close()

	rc := runcontrol.New()
	rc.SetName(cfg.RunControlName)
	if cfg.RunControlPassword != "" {
		if err := rc.SetPassword(cfg.RunControlPassword); err != nil {
			log.WithError(err).Fatal("could not set run control password")
		}
	}

	var sink blobstore.Store
	if cfg.ArchiverStorage != "" {
		sink, err = blobstore.New(cfg)
		if err != nil {
			log.WithError(err).Fatal("could not build archiver blob store")
		}
	}
	arch := archiver.New(sink)
	wireRunControlToArchiver(rc, mgr, arch, cfg)
	wireRunControlToReset(rc, mgr)

	plugins := plugin.New(nil, nil)
	if err := plugins.LoadAll(cfg.PluginPaths); err != nil {
		log.WithError(err).Fatal("could not load plugins")
	}
	defer func() {
		if err := plugins.Close(); err != nil {
			log.WithError(err).Warn("error tearing down plugins")
		}
	}()
	log.WithField("plugins", plugins.Loaded()).Info("plugins loaded")

	service, err := bus.NewService(cfg.CollectorName)
	if err != nil {
		log.WithError(err).Fatal("could not register collector service")
	}
	defer service.Close()
	bus.HandleRequest("find", requestHandler(mgr))
	bus.HandleCommand("startNewRun", startRunHandler(rc, cfg.RunControlPassword))
	bus.HandleCommand("endCurrentRun", endRunHandler(rc, cfg.RunControlPassword))

	log.WithFields(log.Fields{
		"collector": cfg.CollectorName,
		"transport": cfg.TransportBackend,
		"service":   service.Name(),
	}).Info("dqmcollectord ready")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	log.WithField("signal", sig.String()).Info("shutting down")

	if rc.IsRunning() {
		if err := rc.EndCurrentRun(map[string]string{"reason": "shutdown"}, cfg.RunControlPassword); err != nil {
			log.WithError(err).Warn("could not cleanly end the current run on shutdown")
		}
	}
}

// wireRunControlToArchiver archives the element storage at every
// end-of-run, naming the container after the collector and run number
// (§4.9, §C.1).
func wireRunControlToArchiver(rc *runcontrol.RunControl, mgr *manager.Manager, arch *archiver.Archiver, cfg *config.C) {
	rc.EOR().Connect(arch, func(r *run.Run) {
		name := cfg.CollectorName + ".container"
		if err := arch.Open(name, false, int(r.Number)); err != nil {
			log.WithError(err).Error("could not open archive container")
			return
		}
		if err := arch.Archive(mgr.Storage(), "", archiver.AcceptAll); err != nil {
			log.WithError(err).Error("could not archive monitor elements")
		}
		if err := arch.Close(); err != nil {
			log.WithError(err).Error("could not close archive container")
		}
	})
}

// wireRunControlToReset clears every reset-eligible element at the
// start of each run (§C.2).
func wireRunControlToReset(rc *runcontrol.RunControl, mgr *manager.Manager) {
	rc.SOR().Connect(mgr, func(*run.Run) {
		mgr.Reset()
	})
}

// findRequest is the gob-encoded shape of a "find" request payload.
type findRequest struct {
	Path string
	Name string
}

func requestHandler(mgr *manager.Manager) transport.RequestHandler {
	return func(ctx context.Context, request buffer.Buffer) (buffer.Buffer, error) {
		var req findRequest
		if err := request.DecodeValue(&req); err != nil {
			return buffer.NullBuffer(), err
		}
		elem, err := mgr.Find(req.Path, req.Name)
		if err != nil {
			return buffer.NullBuffer(), err
		}
		return buffer.FromString(elem.String()), nil
	}
}

func startRunHandler(rc *runcontrol.RunControl, password string) transport.CommandHandler {
	return func(ctx context.Context, command buffer.Buffer) error {
		r := run.New(uint32(time.Now().Unix()))
		return rc.StartNewRun(r, password)
	}
}

func endRunHandler(rc *runcontrol.RunControl, password string) transport.CommandHandler {
	return func(ctx context.Context, command buffer.Buffer) error {
		return rc.EndCurrentRun(nil, password)
	}
}
