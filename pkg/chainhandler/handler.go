// Copyright 2025 Certen Protocol
//
// Chain Handler contract — the abstract interface the engine consumes to
// talk to any destination chain. Concrete per-chain RPC/SDK clients are
// outside this module; they live behind this interface.

package chainhandler

import (
	"context"

	"github.com/certen/tbtc-relayer/pkg/store"
)

// Handler is implemented once per destination chain and registered under a
// unique chainName (pkg/registry). All methods are cancellable via ctx and
// must be idempotent per deposit: calling ProcessInitializeDeposits twice
// must not submit a second initialization for a record already past
// QUEUED — the state-machine updaters in pkg/deposit enforce this via a
// status precondition check, but handlers must not rely on that alone when
// the precondition check and the on-chain submit race.
type Handler interface {
	// Initialize connects providers, loads contracts, and performs any
	// one-shot setup. Called once at startup before any other method.
	Initialize(ctx context.Context) error

	// SetupListeners subscribes to on-chain events that will call back
	// into the lifecycle API (C11) as they arrive.
	SetupListeners(ctx context.Context) error

	// GetLatestBlock returns the chain's current block height for use by
	// log-range scans. A return value <= 0 means "unknown, skip this
	// sweep" rather than an error.
	GetLatestBlock(ctx context.Context) (int64, error)

	// ProcessInitializeDeposits attempts the L1 initialization
	// transaction for every persisted QUEUED deposit on this chain. The
	// handler advances successful deposits to INITIALIZED via
	// pkg/deposit.UpdateToInitialized.
	ProcessInitializeDeposits(ctx context.Context) error

	// ProcessFinalizeDeposits attempts finalization for every persisted
	// INITIALIZED deposit on this chain, advancing successes to
	// FINALIZED via pkg/deposit.UpdateToFinalized.
	ProcessFinalizeDeposits(ctx context.Context) error

	// InitializeDeposit is the single-record form used by the reveal
	// ingress path (C11). It returns the receipt produced by submitting
	// the initialization transaction, or an error if the submission
	// failed — the caller (pkg/lifecycle) leaves the deposit QUEUED on
	// failure so the scheduler retries it.
	InitializeDeposit(ctx context.Context, d *store.Deposit) (*store.InitializationReceipt, error)

	// CheckDepositStatus looks up the current status of a deposit by ID.
	// The bool return is false if the chain has no record of the ID.
	CheckDepositStatus(ctx context.Context, depositID string) (store.DepositStatus, bool, error)
}

// PastDepositScanner is an optional capability a Handler may implement:
// chains that support recovering missed events via a back-scan of logs.
// A Handler that does not implement this interface is treated as if
// supportsPastDepositCheck() were false (Design Note 9).
type PastDepositScanner interface {
	// CheckForPastDeposits back-scans for events missed by SetupListeners,
	// covering approximately the last pastTimeInMinutes up to
	// latestBlock.
	CheckForPastDeposits(ctx context.Context, pastTimeInMinutes int, latestBlock int64) error
}

// WormholeBridger is an optional capability a Handler may implement: chains
// whose post-finalization path requires a Wormhole VAA to bridge funds
// onward (Solana, Sui). A Handler that does not implement this interface
// has no AWAITING_WORMHOLE_VAA/BRIDGED phase; FINALIZED is terminal for it.
type WormholeBridger interface {
	// ProcessWormholeBridging drives FINALIZED -> AWAITING_WORMHOLE_VAA ->
	// BRIDGED for every eligible deposit on this chain.
	ProcessWormholeBridging(ctx context.Context) error
}

// SupportsPastDepositCheck reports whether h implements PastDepositScanner.
func SupportsPastDepositCheck(h Handler) bool {
	_, ok := h.(PastDepositScanner)
	return ok
}

// SupportsWormholeBridging reports whether h implements WormholeBridger.
func SupportsWormholeBridging(h Handler) bool {
	_, ok := h.(WormholeBridger)
	return ok
}
