// Copyright 2025 Certen Protocol

package scheduler

import (
	"context"
	"testing"

	"github.com/certen/tbtc-relayer/pkg/config"
	"github.com/certen/tbtc-relayer/pkg/redemption"
	"github.com/certen/tbtc-relayer/pkg/registry"
	"github.com/certen/tbtc-relayer/pkg/store"
)

type fakeHandler struct {
	calls           *[]string
	latestBlock     int64
	pastDepositsErr error
}

func (h *fakeHandler) Initialize(ctx context.Context) error      { return nil }
func (h *fakeHandler) SetupListeners(ctx context.Context) error  { return nil }
func (h *fakeHandler) GetLatestBlock(ctx context.Context) (int64, error) {
	return h.latestBlock, nil
}
func (h *fakeHandler) ProcessInitializeDeposits(ctx context.Context) error {
	*h.calls = append(*h.calls, "initialize")
	return nil
}
func (h *fakeHandler) ProcessFinalizeDeposits(ctx context.Context) error {
	*h.calls = append(*h.calls, "finalize")
	return nil
}
func (h *fakeHandler) ProcessWormholeBridging(ctx context.Context) error {
	*h.calls = append(*h.calls, "bridging")
	return nil
}
func (h *fakeHandler) InitializeDeposit(ctx context.Context, d *store.Deposit) (*store.InitializationReceipt, error) {
	return nil, nil
}
func (h *fakeHandler) CheckDepositStatus(ctx context.Context, depositID string) (store.DepositStatus, bool, error) {
	return "", false, nil
}
func (h *fakeHandler) CheckForPastDeposits(ctx context.Context, pastTimeInMinutes int, latestBlock int64) error {
	*h.calls = append(*h.calls, "pastDeposits")
	return h.pastDepositsErr
}

func TestRunProcessTickOrdersBridgingFinalizeInitialize(t *testing.T) {
	var calls []string
	h := &fakeHandler{calls: &calls}
	reg := registry.New()
	if err := reg.Register("ethereum", h); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s := New(reg, nil, nil, nil, nil, nil, Config{})
	s.runProcessTick(context.Background())

	want := []string{"bridging", "finalize", "initialize"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, calls)
		}
	}
}

func TestRunPastDepositsTickSkipsUnknownLatestBlock(t *testing.T) {
	var calls []string
	h := &fakeHandler{calls: &calls, latestBlock: 0}
	reg := registry.New()
	reg.Register("ethereum", h)

	s := New(reg, nil, nil, nil, nil, nil, Config{})
	s.runPastDepositsTick(context.Background())

	if len(calls) != 0 {
		t.Fatalf("expected no calls when latestBlock <= 0, got %v", calls)
	}
}

func TestRunPastDepositsTickScansWhenLatestBlockKnown(t *testing.T) {
	var calls []string
	h := &fakeHandler{calls: &calls, latestBlock: 100}
	reg := registry.New()
	reg.Register("ethereum", h)

	s := New(reg, nil, nil, nil, nil, nil, Config{})
	s.runPastDepositsTick(context.Background())

	if len(calls) != 1 || calls[0] != "pastDeposits" {
		t.Fatalf("expected one pastDeposits call, got %v", calls)
	}
}

func TestProcessRedemptionsLeavesPendingWithoutVAAService(t *testing.T) {
	redemptions := store.NewMemRedemptionStore()
	audit := store.NewMemAuditStore()
	ctx := context.Background()

	redemptions.Create(ctx, &store.Redemption{
		ID:        "r1",
		ChainName: "arbitrum",
		Status:    store.RedemptionPending,
		Event:     store.RedemptionEvent{L2TransactionHash: "0xl2"},
	})

	reg := registry.New()
	chainConfigs := map[string]*config.ChainConfig{
		"arbitrum": {WormholeChainID: 23, WormholeEmitterAddress: "0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead"},
	}

	s := New(reg, chainConfigs, redemptions, redemption.NewEngine(redemptions, audit), nil, nil, Config{})
	// No VAAService configured: processRedemptions should no-op rather than
	// panic when the service is absent.
	s.processRedemptions(ctx, "arbitrum")

	got, err := redemptions.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != store.RedemptionPending {
		t.Fatalf("expected redemption to remain PENDING without a VAA service, got %s", got.Status)
	}
}
