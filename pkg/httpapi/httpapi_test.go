// Copyright 2025 Certen Protocol

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/certen/tbtc-relayer/pkg/deposit"
	"github.com/certen/tbtc-relayer/pkg/lifecycle"
	"github.com/certen/tbtc-relayer/pkg/registry"
	"github.com/certen/tbtc-relayer/pkg/store"
)

type fakeHandler struct{}

func (h *fakeHandler) Initialize(ctx context.Context) error     { return nil }
func (h *fakeHandler) SetupListeners(ctx context.Context) error { return nil }
func (h *fakeHandler) GetLatestBlock(ctx context.Context) (int64, error) {
	return 0, nil
}
func (h *fakeHandler) ProcessInitializeDeposits(ctx context.Context) error { return nil }
func (h *fakeHandler) ProcessFinalizeDeposits(ctx context.Context) error   { return nil }
func (h *fakeHandler) InitializeDeposit(ctx context.Context, d *store.Deposit) (*store.InitializationReceipt, error) {
	return &store.InitializationReceipt{TxHash: "0xaa", Status: 1}, nil
}
func (h *fakeHandler) CheckDepositStatus(ctx context.Context, depositID string) (store.DepositStatus, bool, error) {
	return "", false, nil
}

func newTestHandlers() (*Handlers, *store.MemDepositStore) {
	reg := registry.New()
	reg.Register("ethereum", &fakeHandler{})
	deposits := store.NewMemDepositStore()
	audit := store.NewMemAuditStore()
	lc := lifecycle.NewService(reg, deposits, audit, deposit.NewEngine(deposits, audit), nil)
	return NewHandlers(lc, audit, reg), deposits
}

func revealBody() []byte {
	body := map[string]interface{}{
		"fundingTxHash":      "0x" + stringsRepeat("ab", 32),
		"fundingOutputIndex": 0,
		"reveal": map[string]string{
			"depositor":        "0x" + stringsRepeat("11", 20),
			"blindingFactor":   "0x1234",
			"walletPubKeyHash": "0x" + stringsRepeat("22", 20),
			"refundPubKeyHash": "0x" + stringsRepeat("33", 20),
			"refundLocktime":   "123456",
		},
		"l2DepositOwner": "0x" + stringsRepeat("44", 20),
		"l2Sender":       "0x" + stringsRepeat("55", 20),
	}
	raw, _ := json.Marshal(body)
	return raw
}

func stringsRepeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

func TestHandleRevealSuccess(t *testing.T) {
	h, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/ethereum/reveal", bytes.NewReader(revealBody()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != true {
		t.Fatalf("expected success=true, got %v", resp)
	}
	if resp["depositId"] == "" || resp["depositId"] == nil {
		t.Fatalf("expected a depositId in response, got %v", resp)
	}
}

func TestHandleRevealValidationError(t *testing.T) {
	h, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/ethereum/reveal", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRevealUnknownChain(t *testing.T) {
	h, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/not-a-chain/reveal", bytes.NewReader(revealBody()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDepositStatusNotFound(t *testing.T) {
	h, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/ethereum/deposit/does-not-exist", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleStatus(t *testing.T) {
	h, _ := newTestHandlers()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
