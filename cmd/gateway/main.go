// cmd/gateway/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tamzrod/modbus-gateway/internal/api"
	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/eventlog"
	"github.com/tamzrod/modbus-gateway/internal/gateway"
	gwmodbus "github.com/tamzrod/modbus-gateway/internal/gateway/modbus"
	"github.com/tamzrod/modbus-gateway/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: gateway <config.yaml>")
	}

	cfgPath := os.Args[1]
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// --------------------
	// Load + validate config
	// --------------------

	raw, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	cfg, warnings := config.Validate(raw)
	for _, w := range warnings {
		logger.Warn("config corrected", "context", w.Context, "message", w.Message)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --------------------
	// Event log
	// --------------------

	events, err := eventlog.Open(cfg.Gateway.EventLog.Path, logger)
	if err != nil {
		log.Fatalf("event log open failed: %v", err)
	}
	defer events.Close()
	go events.Run(ctx)

	for _, w := range warnings {
		events.Record("config_corrected", w.String())
	}

	// --------------------
	// Downstream bus + outward register server
	// --------------------

	bus, err := gwmodbus.New(cfg.Gateway.Bus)
	if err != nil {
		log.Fatalf("bus connect failed: %v", err)
	}
	defer bus.Close()

	srv := server.New()
	if err := srv.ListenTCP(cfg.Gateway.Server.Listen); err != nil {
		log.Fatalf("register server listen failed: %v", err)
	}
	defer srv.Close()

	// --------------------
	// Gateway core
	// --------------------

	gw, err := gateway.New(gateway.Config{
		Bindings: cfg.Gateway.Bindings,
		Mirror:   srv,
		Events:   events,
		Logger:   logger,
	}, bus)
	if err != nil {
		log.Fatalf("gateway build failed: %v", err)
	}
	go gw.Run(ctx)

	// --------------------
	// HTTP API
	// --------------------

	apiSrv := api.New(api.Config{
		Gateway:  gw,
		Events:   events,
		Hostname: cfg.Gateway.Hostname,
		Logger:   logger,
		Persist: func(bindings []config.BindingConfig) error {
			cfg.Gateway.Bindings = bindings
			return config.Save(cfgPath, cfg)
		},
	})

	httpSrv := &http.Server{Addr: cfg.Gateway.API.Listen, Handler: apiSrv}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api listen failed: %v", err)
		}
	}()

	logger.Info("gateway running",
		"hostname", cfg.Gateway.Hostname,
		"server", cfg.Gateway.Server.Listen,
		"api", cfg.Gateway.API.Listen,
		"bindings", len(cfg.Gateway.Bindings),
	)

	// --------------------
	// Block until shutdown
	// --------------------

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()
	httpSrv.Shutdown(context.Background())
}
