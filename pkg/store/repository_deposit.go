// Copyright 2025 Certen Protocol
//
// Deposit Repository - CRUD operations for the tBTC deposit record store.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// DepositRepository handles deposit record persistence.
type DepositRepository struct {
	client *Client
}

// NewDepositRepository creates a new deposit repository.
func NewDepositRepository(client *Client) *DepositRepository {
	return &DepositRepository{client: client}
}

// Create inserts a new deposit record. If a record with the same ID already
// exists, Create returns ErrAlreadyExists — the caller should treat this as
// a warning (duplicate on-chain event, already observed) rather than a fatal
// error.
func (r *DepositRepository) Create(ctx context.Context, d *Deposit) error {
	hashes, err := json.Marshal(d.Hashes)
	if err != nil {
		return fmt.Errorf("failed to marshal deposit hashes: %w", err)
	}
	receipt, err := json.Marshal(d.Receipt)
	if err != nil {
		return fmt.Errorf("failed to marshal deposit receipt: %w", err)
	}
	l1Event, err := json.Marshal(d.L1OutputEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal l1 output event: %w", err)
	}
	wormholeInfo, err := json.Marshal(d.WormholeInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal wormhole info: %w", err)
	}

	query := `
		INSERT INTO deposits (
			id, chain_name, funding_tx_hash, output_index, owner,
			hashes, receipt, l1_output_event, status,
			created_at, initialization_at, finalization_at,
			awaiting_wormhole_vaa_since, bridged_at, last_activity_at,
			wormhole_info, error
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.client.ExecContext(ctx, query,
		d.ID, d.ChainName, d.FundingTxHash, d.OutputIndex, d.Owner,
		hashes, receipt, l1Event, d.Status,
		d.Dates.CreatedAt, d.Dates.InitializationAt, d.Dates.FinalizationAt,
		d.Dates.AwaitingWormholeVAAMessageSince, d.Dates.BridgedAt, d.Dates.LastActivityAt,
		wormholeInfo, d.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetByID retrieves a deposit by its canonical ID. Returns ErrNotFound if no
// such deposit exists.
func (r *DepositRepository) GetByID(ctx context.Context, id string) (*Deposit, error) {
	query := `
		SELECT id, chain_name, funding_tx_hash, output_index, owner,
			hashes, receipt, l1_output_event, status,
			created_at, initialization_at, finalization_at,
			awaiting_wormhole_vaa_since, bridged_at, last_activity_at,
			wormhole_info, error
		FROM deposits
		WHERE id = $1`

	return scanDeposit(r.client.QueryRowContext(ctx, query, id))
}

// GetByStatus retrieves all deposits in the given status, oldest first. An
// empty chainName matches every chain — the Cleanup Engine sweeps by status
// alone (spec §4.7).
func (r *DepositRepository) GetByStatus(ctx context.Context, chainName string, status DepositStatus) ([]*Deposit, error) {
	query := `
		SELECT id, chain_name, funding_tx_hash, output_index, owner,
			hashes, receipt, l1_output_event, status,
			created_at, initialization_at, finalization_at,
			awaiting_wormhole_vaa_since, bridged_at, last_activity_at,
			wormhole_info, error
		FROM deposits
		WHERE ($1 = '' OR chain_name = $1) AND status = $2
		ORDER BY created_at ASC`

	rows, err := r.client.QueryContext(ctx, query, chainName, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits by status: %w", err)
	}
	defer rows.Close()

	var deposits []*Deposit
	for rows.Next() {
		d, err := scanDepositRow(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// Update persists the full current state of a deposit. Callers are expected
// to have already validated the status transition (see package deposit).
func (r *DepositRepository) Update(ctx context.Context, d *Deposit) error {
	hashes, err := json.Marshal(d.Hashes)
	if err != nil {
		return fmt.Errorf("failed to marshal deposit hashes: %w", err)
	}
	receipt, err := json.Marshal(d.Receipt)
	if err != nil {
		return fmt.Errorf("failed to marshal deposit receipt: %w", err)
	}
	l1Event, err := json.Marshal(d.L1OutputEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal l1 output event: %w", err)
	}
	wormholeInfo, err := json.Marshal(d.WormholeInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal wormhole info: %w", err)
	}

	query := `
		UPDATE deposits SET
			hashes = $2, receipt = $3, l1_output_event = $4, status = $5,
			initialization_at = $6, finalization_at = $7,
			awaiting_wormhole_vaa_since = $8, bridged_at = $9, last_activity_at = $10,
			wormhole_info = $11, error = $12
		WHERE id = $1`

	res, err := r.client.ExecContext(ctx, query,
		d.ID, hashes, receipt, l1Event, d.Status,
		d.Dates.InitializationAt, d.Dates.FinalizationAt,
		d.Dates.AwaitingWormholeVAAMessageSince, d.Dates.BridgedAt, d.Dates.LastActivityAt,
		wormholeInfo, d.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a deposit record. Absent records are treated as a no-op
// success — a delete of something already gone is not an error (spec C1).
func (r *DepositRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.ExecContext(ctx, `DELETE FROM deposits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deposit: %w", err)
	}
	return nil
}

func scanDeposit(row *sql.Row) (*Deposit, error) {
	d := &Deposit{}
	var hashes, receipt, l1Event, wormholeInfo []byte
	err := row.Scan(
		&d.ID, &d.ChainName, &d.FundingTxHash, &d.OutputIndex, &d.Owner,
		&hashes, &receipt, &l1Event, &d.Status,
		&d.Dates.CreatedAt, &d.Dates.InitializationAt, &d.Dates.FinalizationAt,
		&d.Dates.AwaitingWormholeVAAMessageSince, &d.Dates.BridgedAt, &d.Dates.LastActivityAt,
		&wormholeInfo, &d.Error,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	if err := unmarshalDepositBlobs(d, hashes, receipt, l1Event, wormholeInfo); err != nil {
		return nil, err
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDepositRow(rows rowScanner) (*Deposit, error) {
	d := &Deposit{}
	var hashes, receipt, l1Event, wormholeInfo []byte
	err := rows.Scan(
		&d.ID, &d.ChainName, &d.FundingTxHash, &d.OutputIndex, &d.Owner,
		&hashes, &receipt, &l1Event, &d.Status,
		&d.Dates.CreatedAt, &d.Dates.InitializationAt, &d.Dates.FinalizationAt,
		&d.Dates.AwaitingWormholeVAAMessageSince, &d.Dates.BridgedAt, &d.Dates.LastActivityAt,
		&wormholeInfo, &d.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan deposit: %w", err)
	}
	if err := unmarshalDepositBlobs(d, hashes, receipt, l1Event, wormholeInfo); err != nil {
		return nil, err
	}
	return d, nil
}

func unmarshalDepositBlobs(d *Deposit, hashes, receipt, l1Event, wormholeInfo []byte) error {
	if len(hashes) > 0 {
		if err := json.Unmarshal(hashes, &d.Hashes); err != nil {
			return fmt.Errorf("failed to unmarshal deposit hashes: %w", err)
		}
	}
	if len(receipt) > 0 {
		if err := json.Unmarshal(receipt, &d.Receipt); err != nil {
			return fmt.Errorf("failed to unmarshal deposit receipt: %w", err)
		}
	}
	if len(l1Event) > 0 {
		if err := json.Unmarshal(l1Event, &d.L1OutputEvent); err != nil {
			return fmt.Errorf("failed to unmarshal l1 output event: %w", err)
		}
	}
	if len(wormholeInfo) > 0 {
		if err := json.Unmarshal(wormholeInfo, &d.WormholeInfo); err != nil {
			return fmt.Errorf("failed to unmarshal wormhole info: %w", err)
		}
	}
	return nil
}
