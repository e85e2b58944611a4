// Copyright 2025 Certen Protocol

package lifecycle

import (
	"context"
	"testing"

	"github.com/certen/tbtc-relayer/pkg/deposit"
	"github.com/certen/tbtc-relayer/pkg/registry"
	"github.com/certen/tbtc-relayer/pkg/store"
)

type fakeHandler struct {
	receipt *store.InitializationReceipt
	err     error
}

func (h *fakeHandler) Initialize(ctx context.Context) error     { return nil }
func (h *fakeHandler) SetupListeners(ctx context.Context) error { return nil }
func (h *fakeHandler) GetLatestBlock(ctx context.Context) (int64, error) {
	return 0, nil
}
func (h *fakeHandler) ProcessInitializeDeposits(ctx context.Context) error { return nil }
func (h *fakeHandler) ProcessFinalizeDeposits(ctx context.Context) error   { return nil }
func (h *fakeHandler) InitializeDeposit(ctx context.Context, d *store.Deposit) (*store.InitializationReceipt, error) {
	return h.receipt, h.err
}
func (h *fakeHandler) CheckDepositStatus(ctx context.Context, depositID string) (store.DepositStatus, bool, error) {
	return "", false, nil
}

func validRequest() RevealRequest {
	return RevealRequest{
		FundingTxHash:      "0x" + repeat("ab", 32),
		FundingOutputIndex: 0,
		Reveal: RevealFields{
			Depositor:        "0x" + repeat("11", 20),
			BlindingFactor:   "0x1234",
			WalletPubKeyHash: "0x" + repeat("22", 20),
			RefundPubKeyHash: "0x" + repeat("33", 20),
			RefundLocktime:   "123456",
		},
		L2DepositOwner: "0x" + repeat("44", 20),
		L2Sender:       "0x" + repeat("55", 20),
	}
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

func newTestService(h *fakeHandler) *Service {
	reg := registry.New()
	reg.Register("ethereum", h)
	deposits := store.NewMemDepositStore()
	audit := store.NewMemAuditStore()
	return NewService(reg, deposits, audit, deposit.NewEngine(deposits, audit), nil)
}

func TestRevealDepositHappyPath(t *testing.T) {
	h := &fakeHandler{receipt: &store.InitializationReceipt{TxHash: "0xaa", Status: 1}}
	s := newTestService(h)
	ctx := context.Background()

	result, err := s.RevealDeposit(ctx, "ethereum", validRequest())
	if err != nil {
		t.Fatalf("RevealDeposit: %v", err)
	}
	if result.DepositID == "" {
		t.Fatalf("expected a derived deposit ID")
	}

	d, err := s.Deposits.GetByID(ctx, result.DepositID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if d.Status != store.DepositInitialized {
		t.Fatalf("expected INITIALIZED, got %s", d.Status)
	}
	if d.Hashes.Eth.InitializeTxHash != "0xaa" {
		t.Fatalf("expected initialize tx hash recorded, got %q", d.Hashes.Eth.InitializeTxHash)
	}

	events, _ := s.Audit.Query(ctx, store.AuditFilter{})
	if len(events) != 3 {
		t.Fatalf("expected 3 audit events (CREATED, STATUS_CHANGE, INITIALIZED), got %d", len(events))
	}
}

func TestRevealDepositRejectsInvalidFields(t *testing.T) {
	h := &fakeHandler{receipt: &store.InitializationReceipt{TxHash: "0xaa", Status: 1}}
	s := newTestService(h)

	_, err := s.RevealDeposit(context.Background(), "ethereum", RevealRequest{})
	if err == nil {
		t.Fatalf("expected a validation error")
	}
	lerr, ok := err.(*Error)
	if !ok || lerr.Kind != KindValidation {
		t.Fatalf("expected KindValidation, got %#v", err)
	}
	if len(lerr.FieldErrors) < 5 {
		t.Fatalf("expected multiple field errors for an empty request, got %d", len(lerr.FieldErrors))
	}
}

func TestRevealDepositUnknownChain(t *testing.T) {
	h := &fakeHandler{receipt: &store.InitializationReceipt{TxHash: "0xaa", Status: 1}}
	s := newTestService(h)

	_, err := s.RevealDeposit(context.Background(), "not-a-chain", validRequest())
	lerr, ok := err.(*Error)
	if !ok || lerr.Kind != KindUnknownChain {
		t.Fatalf("expected KindUnknownChain, got %#v", err)
	}
}

func TestRevealDepositLeavesQueuedOnHandlerFailure(t *testing.T) {
	h := &fakeHandler{err: errFakeSubmit}
	s := newTestService(h)
	ctx := context.Background()

	_, err := s.RevealDeposit(ctx, "ethereum", validRequest())
	if err == nil {
		t.Fatalf("expected an error")
	}
	lerr, ok := err.(*Error)
	if !ok || lerr.Kind != KindHandlerFailure {
		t.Fatalf("expected KindHandlerFailure, got %#v", err)
	}

	deposits, _ := s.Deposits.GetByStatus(ctx, "ethereum", store.DepositQueued)
	if len(deposits) != 1 {
		t.Fatalf("expected the deposit to remain QUEUED, got %d queued records", len(deposits))
	}
}

var errFakeSubmit = &fakeSubmitError{}

type fakeSubmitError struct{}

func (e *fakeSubmitError) Error() string { return "rpc unavailable" }
