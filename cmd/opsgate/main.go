// Command opsgate runs the pay-per-call Cronos operations gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cronosai/opsgate/capabilities"
	"github.com/cronosai/opsgate/clients"
	"github.com/cronosai/opsgate/config"
	"github.com/cronosai/opsgate/logger"
	"github.com/cronosai/opsgate/metrics"
	"github.com/cronosai/opsgate/orchestrator"
	"github.com/cronosai/opsgate/payment"
	"github.com/cronosai/opsgate/registry"
	"github.com/cronosai/opsgate/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "opsgate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	fatal, missing := cfg.Validate()
	if len(fatal) > 0 {
		for _, msg := range fatal {
			fmt.Fprintf(os.Stderr, "config error: %s\n", msg)
		}
		return fmt.Errorf("refusing to start with invalid configuration")
	}
	if len(missing) > 0 {
		if cfg.Production() {
			for _, key := range missing {
				fmt.Fprintf(os.Stderr, "config error: %s is required in production\n", key)
			}
			return fmt.Errorf("refusing to start without required configuration")
		}
	}

	log := logger.NewZapLogger(cfg.LogLevel, !cfg.Production())

	for _, key := range missing {
		log.Warn("missing configuration, feature degraded", map[string]any{"key": key})
	}
	if cfg.SkipPayments {
		log.Warn("SKIP_PAYMENTS enabled, payment enforcement is off", nil)
	}

	net := cfg.Network()
	rec := metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)

	var chain clients.Chain = clients.OfflineChain{}
	evm, err := clients.DialChain(cfg.RPCURL, 10*time.Second)
	if err != nil {
		log.Warn("RPC unavailable, capabilities fall back to sample data", map[string]any{
			"rpcUrl": cfg.RPCURL,
			"error":  err.Error(),
		})
	} else {
		chain = evm
		defer evm.Close()
	}

	explorer := clients.NewCronoscanExplorer(cfg.ExplorerAPIURL, cfg.ExplorerAPIKey, 10*time.Second, log)
	facilitator := clients.NewHTTPFacilitator(cfg.FacilitatorURL, cfg.FacilitatorTimeout)

	reg := registry.New(log)
	capabilities.RegisterAll(reg, capabilities.Deps{
		Chain:    chain,
		Explorer: explorer,
		Network:  net,
		Log:      log,
	})

	gate := payment.NewGate(payment.GateOptions{
		Registry:    reg,
		Facilitator: facilitator,
		Network:     net,
		PayTo:       cfg.RecipientAddress,
		Bypass:      cfg.SkipPayments,
		Log:         log,
		Metrics:     rec,
	})

	var text clients.TextGenerator
	var renderer orchestrator.Renderer
	if cfg.TextAPIKey != "" {
		client := clients.NewAnthropicClient(cfg.TextAPIKey, "", 30*time.Second)
		text = client
		renderer = orchestrator.NewTextRenderer(client)
	} else {
		log.Warn("TEXT_API_KEY not set, responses use fallback rendering", nil)
	}

	orch := orchestrator.New(orchestrator.Options{
		Registry:      reg,
		Renderer:      renderer,
		RenderTimeout: cfg.RenderTimeout,
		Log:           log,
		Metrics:       rec,
	})

	srv := server.New(server.Options{
		Config:       cfg,
		Registry:     reg,
		Gate:         gate,
		Orchestrator: orch,
		Chain:        chain,
		Text:         text,
		Gatherer:     prometheus.DefaultGatherer,
		Log:          log,
	})

	log.Info("opsgate starting", map[string]any{
		"port":         cfg.Port,
		"env":          cfg.Env,
		"network":      net.NetworkID,
		"chainId":      net.ChainID,
		"paymentToken": net.PaymentToken.Symbol,
		"capabilities": len(reg.List()),
		"payments":     !cfg.SkipPayments,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, fmt.Sprintf(":%d", cfg.Port)); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	log.Info("opsgate stopped", nil)
	return nil
}
