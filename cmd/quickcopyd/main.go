// cmd/quickcopyd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OsbornePro/quickcopy/internal/api"
	"github.com/OsbornePro/quickcopy/internal/config"
	"github.com/OsbornePro/quickcopy/internal/events"
	"github.com/OsbornePro/quickcopy/internal/handoff"
	"github.com/OsbornePro/quickcopy/internal/host"
	"github.com/OsbornePro/quickcopy/internal/logging"
	"github.com/OsbornePro/quickcopy/internal/token"
	"github.com/OsbornePro/quickcopy/internal/window"
	"github.com/kardianos/service"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// Service
type program struct {
	configPath string

	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	ctrl *window.Controller
}

func (p *program) Start(s service.Service) error {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return err
	}
	if err := logging.Init(cfg); err != nil {
		return err
	}
	if !service.Interactive() {
		if hook, err := newServiceLogHook(s, logrus.WarnLevel); err == nil {
			logrus.AddHook(hook)
		} else {
			logrus.WithError(err).Warn("service log unavailable")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		if err := p.run(ctx, cfg); err != nil {
			logrus.Fatalf("quickcopyd: %v", err)
		}
	}()
	return nil
}

func (p *program) run(ctx context.Context, cfg *config.Config) error {
	tok, err := token.LoadOrCreate(token.Options{
		UseKeyring: config.BoolDeref(cfg.UseKeyring, true),
		File:       cfg.TokenFile,
	})
	if err != nil {
		return fmt.Errorf("API token: %w", err)
	}
	logging.AddSecret(tok)

	bus, shutdownBus, err := startBus(cfg, tok)
	if err != nil {
		return err
	}
	defer shutdownBus()

	hostOpts := []host.Option{
		host.WithCloseTimeout(time.Duration(cfg.View.CloseTimeoutMs) * time.Millisecond),
		host.WithPresentation(presentationFor(cfg.View)),
		host.WithEnv(host.EnvAPI + "=http://" + cfg.ListenAddr),
	}
	if p.configPath != "" {
		if abs, err := filepath.Abs(p.configPath); err == nil {
			hostOpts = append(hostOpts, host.WithEnv(host.EnvConfig+"="+abs))
		}
	}
	h := host.NewProcessHost(cfg.View.Command, hostOpts...)

	ctrl := window.NewController(handoff.New(), h, bus, window.DefaultOptions())
	h.SetOnExit(ctrl.HostClosed)

	p.mu.Lock()
	p.ctrl = ctrl
	p.mu.Unlock()

	srv := api.NewServer(ctrl, api.Options{
		Token:       tok,
		TokenHeader: cfg.TokenHeader,
		MaxBodyLen:  int64(cfg.MaxPayloadLen),
	})

	logrus.WithFields(logrus.Fields{
		"version": version,
		"listen":  cfg.ListenAddr,
		"view":    cfg.View.Command,
	}).Info("quickcopyd starting")
	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}

// startBus picks the closure broadcast transport: an external NATS server,
// an embedded one guarded by the API token, or none.
func startBus(cfg *config.Config, tok string) (window.Broadcaster, func(), error) {
	if !config.BoolDeref(cfg.NATS.Enabled, true) {
		logrus.Info("closure broadcast disabled")
		return &events.NoopPublisher{}, func() {}, nil
	}

	url := cfg.NATS.URL
	var (
		emb     *events.Embedded
		natsOpt []nats.Option
	)
	if url == "" {
		var err error
		emb, err = events.StartEmbedded(cfg.NATS.Listen, tok)
		if err != nil {
			return nil, nil, err
		}
		url = emb.ClientURL()
		natsOpt = append(natsOpt, nats.Token(tok))
		logrus.WithField("url", url).Info("embedded NATS started")
	}

	pub, err := events.NewNATSPublisher(url, natsOpt...)
	if err != nil {
		if emb != nil {
			emb.Shutdown()
		}
		return nil, nil, err
	}
	return pub, func() {
		_ = pub.Close()
		if emb != nil {
			emb.Shutdown()
		}
	}, nil
}

func (p *program) Stop(s service.Service) error {
	p.mu.Lock()
	ctrl := p.ctrl
	p.mu.Unlock()

	if ctrl != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := ctrl.Close(ctx); err != nil {
			logrus.WithError(err).Warn("closing quick copy window on stop")
		}
		cancel()
	}

	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		select {
		case <-p.done:
		case <-time.After(10 * time.Second):
			return errors.New("timed out waiting for quickcopyd to stop")
		}
	}
	logrus.Info("quickcopyd stopped")
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to quickcopy.yaml/.yml/.json")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 && args[0] == "version" {
		fmt.Printf("quickcopyd %s (built %s)\n", version, buildDate)
		os.Exit(0)
	}

	svcConfig := &service.Config{
		Name:        "QuickCopy",
		DisplayName: "QuickCopy Daemon",
		Description: "Quick copy window hand-off daemon",
	}
	if *configPath != "" {
		svcConfig.Arguments = []string{"-config", *configPath}
	}

	prg := &program{configPath: *configPath}
	s, err := service.New(prg, svcConfig)
	if err != nil {
		logrus.Fatal(err)
	}

	if len(args) > 0 {
		if err := service.Control(s, args[0]); err != nil {
			logrus.Fatalf("%s: %v (valid actions: %v)", args[0], err, service.ControlAction)
		}
		return
	}

	if err := s.Run(); err != nil {
		logrus.Fatal(err)
	}
}
