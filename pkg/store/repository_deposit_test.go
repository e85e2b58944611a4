// Copyright 2025 Certen Protocol
//
// Integration tests for DepositRepository. Requires a live Postgres
// instance; skipped unless RELAYER_TEST_DB is set.

package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	connStr := os.Getenv("RELAYER_TEST_DB")
	if connStr == "" {
		os.Exit(m.Run())
	}

	var err error
	testDB, err = sql.Open("postgres", connStr)
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func testClient() *Client {
	return &Client{db: testDB}
}

func TestDepositRepositoryCreateAndGet(t *testing.T) {
	if testDB == nil {
		t.Skip("test database not configured")
	}
	repo := NewDepositRepository(testClient())
	ctx := context.Background()

	d := &Deposit{
		ID:            "11111",
		ChainName:     "ethereum",
		FundingTxHash: "0xabc",
		OutputIndex:   0,
		Owner:         "0xowner",
		Status:        DepositQueued,
		Dates:         DepositDates{CreatedAt: 1000, LastActivityAt: 1000},
	}

	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer repo.Delete(ctx, d.ID)

	if err := repo.Create(ctx, d); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists on duplicate create, got %v", err)
	}

	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ChainName != d.ChainName || got.Status != DepositQueued {
		t.Fatalf("unexpected deposit returned: %+v", got)
	}

	if _, err := repo.GetByID(ctx, "does-not-exist"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDepositRepositoryUpdate(t *testing.T) {
	if testDB == nil {
		t.Skip("test database not configured")
	}
	repo := NewDepositRepository(testClient())
	ctx := context.Background()

	d := &Deposit{
		ID:        "22222",
		ChainName: "ethereum",
		Status:    DepositQueued,
		Dates:     DepositDates{CreatedAt: 1000, LastActivityAt: 1000},
	}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer repo.Delete(ctx, d.ID)

	d.Status = DepositInitialized
	d.Dates.LastActivityAt = 2000
	if err := repo.Update(ctx, d); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Status != DepositInitialized {
		t.Fatalf("expected status %s, got %s", DepositInitialized, got.Status)
	}

	absent := &Deposit{ID: "never-existed"}
	if err := repo.Update(ctx, absent); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound updating absent deposit, got %v", err)
	}
}
