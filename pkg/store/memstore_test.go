// Copyright 2025 Certen Protocol

package store

import (
	"context"
	"testing"
)

func TestMemDepositStoreCreateAndGet(t *testing.T) {
	ms := NewMemDepositStore()
	ctx := context.Background()

	d := &Deposit{ID: "1", ChainName: "ethereum", Status: DepositQueued}
	if err := ms.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := ms.Create(ctx, d); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := ms.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ChainName != "ethereum" {
		t.Fatalf("unexpected deposit: %+v", got)
	}

	// Mutating the returned clone must not affect the stored record.
	got.ChainName = "mutated"
	fresh, _ := ms.GetByID(ctx, "1")
	if fresh.ChainName != "ethereum" {
		t.Fatalf("store was mutated through returned pointer")
	}
}

func TestMemDepositStoreGetByStatus(t *testing.T) {
	ms := NewMemDepositStore()
	ctx := context.Background()

	ms.Create(ctx, &Deposit{ID: "1", ChainName: "ethereum", Status: DepositQueued})
	ms.Create(ctx, &Deposit{ID: "2", ChainName: "ethereum", Status: DepositFinalized})
	ms.Create(ctx, &Deposit{ID: "3", ChainName: "solana", Status: DepositQueued})

	queued, err := ms.GetByStatus(ctx, "ethereum", DepositQueued)
	if err != nil {
		t.Fatalf("GetByStatus: %v", err)
	}
	if len(queued) != 1 || queued[0].ID != "1" {
		t.Fatalf("expected exactly deposit 1, got %+v", queued)
	}
}

func TestMemAuditStoreAppendAndQuery(t *testing.T) {
	as := NewMemAuditStore()
	ctx := context.Background()

	as.Append(ctx, &AuditEvent{Timestamp: 100, EventType: EventDepositCreated, ChainName: "ethereum"})
	as.Append(ctx, &AuditEvent{Timestamp: 200, EventType: EventStatusChange, ChainName: "solana"})
	as.Append(ctx, &AuditEvent{Timestamp: 300, EventType: EventDepositCreated, ChainName: "ethereum"})

	events, err := as.Query(ctx, AuditFilter{ChainName: "ethereum"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 ethereum events, got %d", len(events))
	}
	// Most recent first.
	if events[0].Timestamp != 300 {
		t.Fatalf("expected newest event first, got timestamp %d", events[0].Timestamp)
	}
}

func TestMemAuditStoreDeleteOlderThan(t *testing.T) {
	as := NewMemAuditStore()
	ctx := context.Background()

	as.Append(ctx, &AuditEvent{Timestamp: 100, EventType: EventDepositCreated})
	as.Append(ctx, &AuditEvent{Timestamp: 9000, EventType: EventDepositCreated})

	removed, err := as.DeleteOlderThan(ctx, 5000)
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	remaining, _ := as.Query(ctx, AuditFilter{})
	if len(remaining) != 1 || remaining[0].Timestamp != 9000 {
		t.Fatalf("unexpected remaining events: %+v", remaining)
	}
}
