package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/Dilaz/sanabotti/config"
	"github.com/Dilaz/sanabotti/dictionary"
	"github.com/Dilaz/sanabotti/game"
	"github.com/Dilaz/sanabotti/gateway"
	"github.com/Dilaz/sanabotti/llm"
	"github.com/Dilaz/sanabotti/metrics"
	"github.com/Dilaz/sanabotti/pipeline"
	"github.com/Dilaz/sanabotti/scheduler"
)

// App wires the validation service together: dictionary, game state,
// batch scheduler, pipeline, and the NATS gateway.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	embeddedServer *server.Server
	natsConn       *nats.Conn

	dict    *dictionary.Dictionary
	game    *game.State
	sched   *scheduler.Scheduler
	pipe    *pipeline.Pipeline
	gw      *gateway.Gateway
	metrics *http.Server

	cancel context.CancelFunc
}

// NewApp creates an application instance from validated configuration.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, logger: logger}
}

// Start initializes and starts all components. Background goroutines run
// until Shutdown is called; ctx only bounds startup itself.
func (a *App) Start(ctx context.Context) error {
	// Component goroutines outlive ctx so a startup deadline does not
	// tear down the running service.
	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	dict, err := dictionary.Load(a.cfg.Dictionary.Path, a.logger)
	if err != nil {
		cancel()
		return fmt.Errorf("load dictionary: %w", err)
	}
	a.dict = dict
	a.logger.Info("Dictionary loaded", "path", a.cfg.Dictionary.Path, "words", dict.Len())

	if a.cfg.Dictionary.Watch {
		watcher, err := dictionary.NewWatcher(dict, a.logger)
		if err != nil {
			cancel()
			return fmt.Errorf("create dictionary watcher: %w", err)
		}
		go func() {
			if err := watcher.Run(runCtx); err != nil && runCtx.Err() == nil {
				a.logger.Error("Dictionary watcher stopped", "error", err)
			}
		}()
	}

	if err := a.startNATS(); err != nil {
		cancel()
		return fmt.Errorf("start NATS: %w", err)
	}

	subjects := gateway.NewSubjects(a.cfg.NATS.SubjectPrefix)
	sink := gateway.NewSink(a.natsConn, subjects, a.logger)

	a.game = game.NewState(a.logger)
	a.game.Start(runCtx)

	confirmer := llm.NewConfirmer(a.buildLLMClient())

	a.sched = scheduler.New(scheduler.Config{
		MaxBatchSize:   a.cfg.Batch.MaxSize,
		FlushTimeout:   a.cfg.Batch.GetFlushTimeout(),
		PollInterval:   a.cfg.Batch.GetPollInterval(),
		ConfirmTimeout: a.cfg.Batch.GetConfirmTimeout(),
	}, confirmer, a.game, sink, a.logger)
	a.sched.Start(runCtx)

	a.pipe = pipeline.New(a.game, a.dict, a.sched, sink, a.logger,
		pipeline.WithRuleTimeout(a.cfg.Game.GetRuleTimeout()))

	a.gw = gateway.New(a.natsConn, subjects, a.pipe, a.logger)
	if err := a.gw.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start gateway: %w", err)
	}

	if a.cfg.Metrics.Addr != "" {
		a.startMetrics()
	}

	return nil
}

func (a *App) startNATS() error {
	url := a.cfg.NATS.URL

	if a.cfg.NATS.Embedded {
		a.logger.Info("Starting embedded NATS server")
		ns, err := server.NewServer(&server.Options{
			Port:   -1,
			NoLog:  true,
			NoSigs: true,
		})
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()
		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}

		a.embeddedServer = ns
		url = ns.ClientURL()
	}

	a.logger.Info("Connecting to NATS", "url", url)
	conn, err := nats.Connect(url,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	a.natsConn = conn
	return nil
}

func (a *App) buildLLMClient() *llm.Client {
	endpoint := llm.Endpoint{
		Provider: a.cfg.LLM.Provider,
		URL:      a.cfg.LLM.URL,
		Model:    a.cfg.LLM.Model,
	}
	if a.cfg.LLM.Temperature >= 0 {
		t := a.cfg.LLM.Temperature
		endpoint.Temperature = &t
	}
	return llm.NewClient(endpoint, llm.WithLogger(a.logger))
}

func (a *App) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	a.metrics = &http.Server{
		Addr:    a.cfg.Metrics.Addr,
		Handler: mux,
	}

	a.logger.Info("Metrics endpoint listening", "addr", a.cfg.Metrics.Addr)
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
}

// Shutdown stops all components, draining NATS first so no new words
// arrive while the pipeline winds down.
func (a *App) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.gw != nil {
		if err := a.gw.Stop(); err != nil {
			a.logger.Warn("Gateway stop failed", "error", err)
		}
	}

	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Warn("NATS drain failed", "error", err)
		}
		a.natsConn.Close()
	}

	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}

	a.logger.Info("Shutdown complete")
}
