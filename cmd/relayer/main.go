// Copyright 2025 Certen Protocol
//
// Relayer entrypoint — the composition root. Loads configuration, wires the
// Record Store, chain handler registry, state machines, VAA service, and
// Scheduler, starts the HTTP surface, and drives graceful shutdown on
// SIGINT/SIGTERM (spec.md §5 "Cancellation & timeouts").

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/certen/tbtc-relayer/pkg/chainhandler"
	"github.com/certen/tbtc-relayer/pkg/cleanup"
	"github.com/certen/tbtc-relayer/pkg/config"
	"github.com/certen/tbtc-relayer/pkg/deposit"
	"github.com/certen/tbtc-relayer/pkg/httpapi"
	"github.com/certen/tbtc-relayer/pkg/lifecycle"
	"github.com/certen/tbtc-relayer/pkg/redemption"
	"github.com/certen/tbtc-relayer/pkg/registry"
	"github.com/certen/tbtc-relayer/pkg/scheduler"
	"github.com/certen/tbtc-relayer/pkg/store"
	"github.com/certen/tbtc-relayer/pkg/vaa"
)

func main() {
	logger := log.New(log.Writer(), "[Relayer] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	chainConfigs, err := config.LoadChainConfigs(cfg.ChainConfigPath)
	if err != nil {
		logger.Fatalf("failed to load chain configuration: %v", err)
	}

	dbClient, err := store.NewClient(cfg, store.WithLogger(log.New(log.Writer(), "[Database] ", log.LstdFlags)))
	if err != nil {
		logger.Fatalf("failed to connect to the record store: %v", err)
	}
	defer dbClient.Close()

	if err := dbClient.MigrateUp(context.Background()); err != nil {
		logger.Fatalf("failed to run migrations: %v", err)
	}

	repos := store.NewRepositories(dbClient)

	depositEngine := deposit.NewEngine(repos.Deposits, repos.Audit)
	redemptionEngine := redemption.NewEngine(repos.Redemptions, repos.Audit)
	cleanupEngine := cleanup.NewEngine(repos.Deposits, repos.Audit)
	cleanupEngine.Rules = chainConfiguredCleanupRules(cfg)

	reg := registry.New()
	// Concrete per-chain handlers (EVM/Solana/Sui/StarkNet RPC clients) are
	// out of this module's scope (spec.md §1 "OUT OF SCOPE"); registration
	// is the integration layer's job. newChainHandler is the extension
	// point a deployment fills in per chain.
	for name, cc := range chainConfigs {
		h, err := newChainHandler(name, cc, depositEngine, reg)
		if err != nil {
			logger.Fatalf("failed to construct handler for chain %q: %v", name, err)
		}
		if h == nil {
			continue
		}
		if err := reg.Register(name, h); err != nil {
			logger.Fatalf("failed to register handler for chain %q: %v", name, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg.Each(func(chainName string, h chainhandler.Handler) error {
		if err := h.Initialize(ctx); err != nil {
			logger.Printf("chain %s: initialize failed: %v", chainName, err)
			return err
		}
		if err := h.SetupListeners(ctx); err != nil {
			logger.Printf("chain %s: setupListeners failed: %v", chainName, err)
			return err
		}
		return nil
	})

	families := lifecycle.FamilyResolver{}
	lifecycleSvc := lifecycle.NewService(reg, repos.Deposits, repos.Audit, depositEngine, families)

	vaaService := newVAAService(cfg)

	sched := scheduler.New(reg, chainConfigs, repos.Redemptions, redemptionEngine, vaaService, cleanupEngine, scheduler.Config{
		VAAMaxAttemptsBeforeFailed: cfg.VAAMaxAttemptsBeforeFailed,
	})
	sched.Start(ctx)

	mux := http.NewServeMux()
	handlers := httpapi.NewHandlers(lifecycleSvc, repos.Audit, reg)
	handlers.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	go func() {
		logger.Printf("HTTP surface listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("shutdown signal received, stopping ingress and in-flight sweeps")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	cancel()
	sched.Stop()

	logger.Println("relayer stopped")
}

// chainConfiguredCleanupRules applies the operator-tunable retention
// thresholds (spec.md §6.4) on top of the Cleanup Engine's default rule set.
func chainConfiguredCleanupRules(cfg *config.Config) []cleanup.Rule {
	rules := cleanup.DefaultRules()
	for i := range rules {
		switch rules[i].Status {
		case store.DepositQueued:
			rules[i].Threshold = cfg.CleanQueuedTime
		case store.DepositFinalized:
			rules[i].Threshold = cfg.CleanFinalizedTime
		case store.DepositBridged:
			rules[i].Threshold = cfg.CleanBridgedTime
		}
	}
	return rules
}

// newVAAService builds the VAA Service's retry policy from configuration.
// The SDK handles (L2Receiver/ChainContext/VAASource) are supplied by the
// integration layer that also provides concrete chain handlers — out of
// this module's scope (spec.md §1).
func newVAAService(cfg *config.Config) *vaa.Service {
	svc := &vaa.Service{
		Config: vaa.Config{
			MaxRetries:       cfg.VAAFetchMaxRetries,
			RetryDelay:       cfg.VAAFetchRetryDelay,
			ConsistencyFloor: 1,
		},
		Logger: log.New(log.Writer(), "[VAAService] ", log.LstdFlags),
	}
	return svc
}

// newChainHandler is the extension point a concrete deployment implements
// to construct a chainhandler.Handler for one configured chain (EVM RPC
// client, Solana SDK client, etc.). This module ships no concrete
// implementations (spec.md §1 "OUT OF SCOPE"); returning (nil, nil) skips
// registration for chains the running binary has no handler for.
func newChainHandler(name string, cc *config.ChainConfig, engine *deposit.Engine, reg *registry.Registry) (chainhandler.Handler, error) {
	_ = name
	_ = cc
	_ = engine
	_ = reg
	return nil, nil
}
