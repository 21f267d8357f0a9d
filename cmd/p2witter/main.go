// Command p2witter runs a single peer-to-peer chat node: it loads
// configuration and identity, opens the durable log, starts the network
// loop, and drives it from an interactive terminal controller.
package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/taisan11/p2witter-go/pkg/config"
	"github.com/taisan11/p2witter-go/pkg/controller"
	"github.com/taisan11/p2witter-go/pkg/identity"
	"github.com/taisan11/p2witter-go/pkg/logstore"
	"github.com/taisan11/p2witter-go/pkg/metrics"
	"github.com/taisan11/p2witter-go/pkg/network"
	"github.com/taisan11/p2witter-go/pkg/statusweb"
	"github.com/taisan11/p2witter-go/pkg/token"
)

func main() {
	app := cli.NewApp()
	app.Name = "p2witter"
	app.Usage = "a small peer-to-peer chat node"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Value: "./config.yml", Usage: "path to the node's configuration file"},
		cli.StringFlag{Name: "handle", Value: "@anon", Usage: "initial local handle"},
		cli.StringFlag{Name: "status-addr", Usage: "override the config file's StatusAddr"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, _, err := config.NewLogger(cfg, false)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	idStore, err := identity.Open(filepath.Join(cfg.DataDir, "identity"))
	if err != nil {
		return fmt.Errorf("opening identity store: %w", err)
	}
	defer idStore.Close()

	id, err := identity.LoadOrGenerate(idStore)
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}

	handle, err := identity.Handle(idStore)
	if err != nil {
		return fmt.Errorf("loading handle: %w", err)
	}
	if handle == "" {
		handle = ctx.String("handle")
	}

	tokenKey, err := resolveTokenKey(cfg)
	if err != nil {
		return err
	}
	tokens, err := token.New(tokenKey)
	if err != nil {
		return fmt.Errorf("building token codec: %w", err)
	}

	log, err := logstore.Open(filepath.Join(cfg.DataDir, "messages.db"))
	if err != nil {
		return fmt.Errorf("opening logstore: %w", err)
	}
	defer log.Close()

	reg := prometheus.NewRegistry()
	collectors := metrics.New(reg)
	go serveMetrics(logger, reg)

	commands := make(chan network.Command, 32)
	events := make(chan string, 256)

	loop := network.New(network.Config{
		Identity: id,
		Handle:   handle,
		Tokens:   tokens,
		Log:      log,
		Logger:   logger,
		Metrics:  collectors,
		Commands: commands,
		Events:   events,
	})

	statusAddr := ctx.String("status-addr")
	if statusAddr == "" {
		statusAddr = cfg.StatusAddr
	}
	var status *statusweb.Server
	if statusAddr != "" {
		status = statusweb.New(logger)
		go serveStatus(logger, statusAddr, status)
	}

	ctrl, err := controller.New(controller.Options{
		Commands: commands,
		Events:   events,
		Store:    idStore,
		Log:      log,
		Logger:   logger,
		OnPublish: func(ev string) {
			if status != nil {
				status.Publish(ev)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("starting controller: %w", err)
	}
	defer ctrl.Close()

	go loop.Run()
	go ctrl.PumpEvents()

	os.Exit(ctrl.Run())
	return nil
}

// resolveTokenKey returns the shared AEAD key from configuration. It
// returns an error if TokenKeyHex is unset or not valid hex: every
// participating node must be configured with the same key.
func resolveTokenKey(cfg config.Config) ([]byte, error) {
	if cfg.TokenKeyHex == "" {
		return nil, fmt.Errorf("config: TokenKeyHex is required")
	}
	key, err := hex.DecodeString(cfg.TokenKeyHex)
	if err != nil {
		return nil, fmt.Errorf("config: TokenKeyHex: %w", err)
	}
	return key, nil
}

func serveMetrics(logger *zap.Logger, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe("127.0.0.1:9469", mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

func serveStatus(logger *zap.Logger, addr string, s *statusweb.Server) {
	if err := http.ListenAndServe(addr, s); err != nil {
		logger.Warn("status server stopped", zap.Error(err))
	}
}
