// Copyright 2025 Certen Protocol
//
// Scheduler (C8) — three recurring tasks on distinct cadences, coordinating
// the chain handler registry, the redemption VAA pipeline, and the Cleanup
// Engine. Grounded on the batch scheduler's ticker/state-machine shape
// (pkg/batch/scheduler.go), split into one ticker loop per task since each
// runs on its own period rather than a single shared interval.

package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/certen/tbtc-relayer/pkg/chainhandler"
	"github.com/certen/tbtc-relayer/pkg/cleanup"
	"github.com/certen/tbtc-relayer/pkg/config"
	"github.com/certen/tbtc-relayer/pkg/metrics"
	"github.com/certen/tbtc-relayer/pkg/redemption"
	"github.com/certen/tbtc-relayer/pkg/registry"
	"github.com/certen/tbtc-relayer/pkg/store"
	"github.com/certen/tbtc-relayer/pkg/vaa"
)

// State represents whether the scheduler's task loops are running.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// Config tunes the three task periods and the redemption retry budget
// (spec.md §4.6, §6.4).
type Config struct {
	ProcessInterval           time.Duration
	PastDepositsInterval      time.Duration
	PastDepositsWindowMinutes int
	CleanupInterval           time.Duration

	// VAAMaxAttemptsBeforeFailed is the operator-tunable retry budget for
	// a PENDING redemption's VAA fetch. 0 means retry indefinitely,
	// surfacing errors via the audit log only (spec §9 open question).
	VAAMaxAttemptsBeforeFailed int
}

// DefaultConfig matches the cadences documented in spec.md §4.6.
func DefaultConfig() Config {
	return Config{
		ProcessInterval:           time.Minute,
		PastDepositsInterval:      60 * time.Minute,
		PastDepositsWindowMinutes: 60,
		CleanupInterval:           10 * time.Minute,
	}
}

// Scheduler drives the registered chain handlers and the redemption VAA
// pipeline on independent cadences. No shared mutable in-memory state is
// held beyond the record store handles and the registry itself (Design
// Note 9); the scheduler is constructed explicitly by the composition root.
type Scheduler struct {
	Registry         *registry.Registry
	ChainConfigs     map[string]*config.ChainConfig
	Redemptions      store.RedemptionStore
	RedemptionEngine *redemption.Engine
	VAAService       *vaa.Service
	CleanupEngine    *cleanup.Engine

	cfg    Config
	logger *log.Logger

	mu    sync.Mutex
	state State

	stopCh chan struct{}
	wg     sync.WaitGroup

	process      taskGuard
	pastDeposits taskGuard
	cleanupTask  taskGuard
}

// taskGuard enforces that a single sweep never runs concurrently with
// itself, per Design Note 9 — a ticker fire while the previous tick is
// still in flight is skipped, not queued.
type taskGuard struct {
	mu      sync.Mutex
	running bool
}

func (g *taskGuard) tryStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	return true
}

func (g *taskGuard) finish() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

// New constructs a Scheduler with the given Config. Any zero-valued
// duration fields are replaced with DefaultConfig's values.
func New(reg *registry.Registry, chainConfigs map[string]*config.ChainConfig, redemptions store.RedemptionStore, redemptionEngine *redemption.Engine, vaaService *vaa.Service, cleanupEngine *cleanup.Engine, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.ProcessInterval <= 0 {
		cfg.ProcessInterval = def.ProcessInterval
	}
	if cfg.PastDepositsInterval <= 0 {
		cfg.PastDepositsInterval = def.PastDepositsInterval
	}
	if cfg.PastDepositsWindowMinutes <= 0 {
		cfg.PastDepositsWindowMinutes = def.PastDepositsWindowMinutes
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	return &Scheduler{
		Registry:         reg,
		ChainConfigs:     chainConfigs,
		Redemptions:      redemptions,
		RedemptionEngine: redemptionEngine,
		VAAService:       vaaService,
		CleanupEngine:    cleanupEngine,
		cfg:              cfg,
		logger:           log.New(log.Writer(), "[Scheduler] ", log.LstdFlags),
		state:            StateStopped,
	}
}

// Start launches the three task loops. Calling Start on an already-running
// Scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.state = StateRunning
	s.mu.Unlock()

	s.wg.Add(3)
	go s.loop(ctx, s.cfg.ProcessInterval, &s.process, s.runProcessTick)
	go s.loop(ctx, s.cfg.PastDepositsInterval, &s.pastDeposits, s.runPastDepositsTick)
	go s.loop(ctx, s.cfg.CleanupInterval, &s.cleanupTask, s.runCleanupTick)

	s.logger.Printf("started (process=%s, pastDeposits=%s, cleanup=%s)", s.cfg.ProcessInterval, s.cfg.PastDepositsInterval, s.cfg.CleanupInterval)
}

// Stop signals all task loops to exit and waits for them to finish their
// current tick.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.state = StateStopped
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Println("stopped")
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, guard *taskGuard, tick func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !guard.tryStart() {
				continue
			}
			func() {
				defer guard.finish()
				tick(ctx)
			}()
		}
	}
}

// runProcessTick implements the Process task (spec §4.6, 1 minute): for
// every registered chain, drain bridging first, then finalize, then
// initialize, bounding queue depth; then drive any PENDING redemptions on
// that chain through the VAA pipeline.
func (s *Scheduler) runProcessTick(ctx context.Context) {
	start := time.Now()
	var lastErr error
	for _, name := range s.Registry.ChainNames() {
		h, ok := s.Registry.Get(name)
		if !ok {
			continue
		}
		if err := s.processChain(ctx, name, h); err != nil {
			lastErr = err
		}
	}
	metrics.ObserveTick("process", start, lastErr)
}

func (s *Scheduler) processChain(ctx context.Context, name string, h chainhandler.Handler) error {
	var lastErr error
	if bridger, ok := h.(chainhandler.WormholeBridger); ok {
		if err := bridger.ProcessWormholeBridging(ctx); err != nil {
			s.logger.Printf("chain %s: processWormholeBridging failed: %v", name, err)
			metrics.ChainHandlerErrorsTotal.WithLabelValues(name, "process_wormhole_bridging").Inc()
			lastErr = err
		}
	}
	if err := h.ProcessFinalizeDeposits(ctx); err != nil {
		s.logger.Printf("chain %s: processFinalizeDeposits failed: %v", name, err)
		metrics.ChainHandlerErrorsTotal.WithLabelValues(name, "process_finalize").Inc()
		lastErr = err
	}
	if err := h.ProcessInitializeDeposits(ctx); err != nil {
		s.logger.Printf("chain %s: processInitializeDeposits failed: %v", name, err)
		metrics.ChainHandlerErrorsTotal.WithLabelValues(name, "process_initialize").Inc()
		lastErr = err
	}
	s.processRedemptions(ctx, name)
	return lastErr
}

// processRedemptions drives every PENDING redemption on chain through the
// VAA service, advancing it to VAA_FETCHED on success (spec §2: "C7 is
// consulted on redemption VAA-awaiting transitions"). Retryable failures
// are recorded against the redemption and retried on the next tick; once
// VAAMaxAttemptsBeforeFailed is configured and exceeded, the redemption
// moves to the terminal VAA_FAILED status.
func (s *Scheduler) processRedemptions(ctx context.Context, name string) {
	if s.VAAService == nil || s.Redemptions == nil || s.RedemptionEngine == nil {
		return
	}
	cc := s.ChainConfigs[name]
	if cc == nil || cc.WormholeEmitterAddress == "" {
		return
	}

	pending, err := s.Redemptions.GetByStatus(ctx, name, store.RedemptionPending)
	if err != nil {
		s.logger.Printf("chain %s: failed to list pending redemptions: %v", name, err)
		return
	}

	for _, r := range pending {
		result, err := s.VAAService.FetchAndVerify(ctx, r.Event.L2TransactionHash, vaa.ChainID(cc.WormholeChainID), cc.WormholeEmitterAddress, 0)
		if err != nil {
			if f, ok := err.(*vaa.Failure); ok {
				metrics.VAAFetchResultTotal.WithLabelValues(string(f.Class)).Inc()
			} else {
				metrics.VAAFetchResultTotal.WithLabelValues("unknown").Inc()
			}
			s.handleRedemptionFailure(ctx, r, err)
			continue
		}
		metrics.VAAFetchResultTotal.WithLabelValues("success").Inc()
		if _, err := s.RedemptionEngine.UpdateToVAAFetched(ctx, r, result.VAABytes, "VERIFIED"); err != nil {
			s.logger.Printf("redemption %s: failed to persist VAA_FETCHED: %v", r.ID, err)
		}
	}
}

func (s *Scheduler) handleRedemptionFailure(ctx context.Context, r *store.Redemption, cause error) {
	reason := cause.Error()
	if s.cfg.VAAMaxAttemptsBeforeFailed > 0 && len(r.Logs) >= s.cfg.VAAMaxAttemptsBeforeFailed {
		if _, err := s.RedemptionEngine.UpdateToVAAFailed(ctx, r, reason); err != nil {
			s.logger.Printf("redemption %s: failed to persist VAA_FAILED: %v", r.ID, err)
		}
		return
	}
	if _, err := s.RedemptionEngine.RecordFailure(ctx, r, reason); err != nil {
		s.logger.Printf("redemption %s: failed to record VAA failure: %v", r.ID, err)
	}
}

// runPastDepositsTick implements the PastDeposits task (spec §4.6, 60
// minutes): for each handler that supports it, back-scan recent blocks for
// missed events.
func (s *Scheduler) runPastDepositsTick(ctx context.Context) {
	start := time.Now()
	var lastErr error
	for _, name := range s.Registry.ChainNames() {
		h, ok := s.Registry.Get(name)
		if !ok {
			continue
		}
		scanner, ok := h.(chainhandler.PastDepositScanner)
		if !ok {
			continue
		}
		latest, err := h.GetLatestBlock(ctx)
		if err != nil {
			s.logger.Printf("chain %s: getLatestBlock failed: %v", name, err)
			metrics.ChainHandlerErrorsTotal.WithLabelValues(name, "get_latest_block").Inc()
			lastErr = err
			continue
		}
		if latest <= 0 {
			continue
		}
		if err := scanner.CheckForPastDeposits(ctx, s.cfg.PastDepositsWindowMinutes, latest); err != nil {
			s.logger.Printf("chain %s: checkForPastDeposits failed: %v", name, err)
			metrics.ChainHandlerErrorsTotal.WithLabelValues(name, "check_for_past_deposits").Inc()
			lastErr = err
		}
	}
	metrics.ObserveTick("past_deposits", start, lastErr)
}

// runCleanupTick implements the Cleanup task (spec §4.6, 10 minutes): a
// single unfiltered sweep across every chain's QUEUED, FINALIZED, and
// BRIDGED deposits.
func (s *Scheduler) runCleanupTick(ctx context.Context) {
	if s.CleanupEngine == nil {
		return
	}
	start := time.Now()
	err := s.CleanupEngine.Sweep(ctx, "")
	if err != nil {
		s.logger.Printf("cleanup sweep failed: %v", err)
	}
	metrics.ObserveTick("cleanup", start, err)
}
