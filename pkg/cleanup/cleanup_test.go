// Copyright 2025 Certen Protocol

package cleanup

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/certen/tbtc-relayer/pkg/store"
)

func TestSweepDeletesQueuedPast48Hours(t *testing.T) {
	deposits := store.NewMemDepositStore()
	audit := store.NewMemAuditStore()
	ctx := context.Background()

	now := time.Now().UnixMilli()
	createdAt := now - int64(52*time.Hour/time.Millisecond)
	deposits.Create(ctx, &store.Deposit{
		ID:        "d1",
		ChainName: "ethereum",
		Status:    store.DepositQueued,
		Dates:     store.DepositDates{CreatedAt: createdAt},
	})

	e := NewEngine(deposits, audit)
	if err := e.Sweep(ctx, "ethereum"); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if _, err := deposits.GetByID(ctx, "d1"); err != store.ErrNotFound {
		t.Fatalf("expected deposit to be deleted, got err=%v", err)
	}

	events, _ := audit.Query(ctx, store.AuditFilter{EventType: store.EventDepositDeleted})
	if len(events) != 1 {
		t.Fatalf("expected exactly one DEPOSIT_DELETED event, got %d", len(events))
	}
	if !strings.Contains(string(events[0].Data), "QUEUED deposit exceeded age limit") {
		t.Fatalf("unexpected audit reason: %s", events[0].Data)
	}
	if !strings.Contains(string(events[0].Data), "52.00") {
		t.Fatalf("expected age 52.00h in audit reason: %s", events[0].Data)
	}
}

func TestSweepSkipsQueuedUnder48Hours(t *testing.T) {
	deposits := store.NewMemDepositStore()
	audit := store.NewMemAuditStore()
	ctx := context.Background()

	now := time.Now().UnixMilli()
	createdAt := now - int64(2*time.Hour/time.Millisecond)
	deposits.Create(ctx, &store.Deposit{
		ID:        "d2",
		ChainName: "ethereum",
		Status:    store.DepositQueued,
		Dates:     store.DepositDates{CreatedAt: createdAt},
	})

	e := NewEngine(deposits, audit)
	if err := e.Sweep(ctx, "ethereum"); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if _, err := deposits.GetByID(ctx, "d2"); err != nil {
		t.Fatalf("expected deposit to survive sweep, got err=%v", err)
	}
}

func TestSweepNeverTouchesNonTargetedStatuses(t *testing.T) {
	deposits := store.NewMemDepositStore()
	audit := store.NewMemAuditStore()
	ctx := context.Background()

	now := time.Now().UnixMilli()
	ancient := now - int64(1000*time.Hour/time.Millisecond)
	deposits.Create(ctx, &store.Deposit{
		ID:        "d3",
		ChainName: "ethereum",
		Status:    store.DepositInitialized,
		Dates:     store.DepositDates{CreatedAt: ancient, InitializationAt: &ancient},
	})
	deposits.Create(ctx, &store.Deposit{
		ID:        "d4",
		ChainName: "ethereum",
		Status:    store.DepositAwaitingWormholeVAA,
		Dates:     store.DepositDates{CreatedAt: ancient, AwaitingWormholeVAAMessageSince: &ancient},
	})

	e := NewEngine(deposits, audit)
	if err := e.Sweep(ctx, "ethereum"); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	for _, id := range []string{"d3", "d4"} {
		if _, err := deposits.GetByID(ctx, id); err != nil {
			t.Fatalf("expected %s to survive sweep untouched: %v", id, err)
		}
	}
}
