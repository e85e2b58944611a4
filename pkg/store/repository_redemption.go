// Copyright 2025 Certen Protocol
//
// Redemption Repository - CRUD operations for the tBTC redemption record store.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"github.com/lib/pq"
)

// RedemptionRepository handles redemption record persistence.
type RedemptionRepository struct {
	client *Client
}

// NewRedemptionRepository creates a new redemption repository.
func NewRedemptionRepository(client *Client) *RedemptionRepository {
	return &RedemptionRepository{client: client}
}

// Create inserts a new redemption record. Returns ErrAlreadyExists on a
// duplicate ID, which callers should treat as a non-fatal warning.
func (r *RedemptionRepository) Create(ctx context.Context, red *Redemption) error {
	event, err := json.Marshal(red.Event)
	if err != nil {
		return fmt.Errorf("failed to marshal redemption event: %w", err)
	}

	query := `
		INSERT INTO redemptions (
			id, chain_name, event, vaa_bytes, vaa_status, l1_submission_tx_hash,
			status, error, created_at, vaa_fetched_at, l1_submitted_at,
			completed_at, last_activity_at, logs
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.client.ExecContext(ctx, query,
		red.ID, red.ChainName, event, red.VAABytes, red.VAAStatus, red.L1SubmissionTxHash,
		red.Status, red.Error, red.Dates.CreatedAt, red.Dates.VAAFetchedAt, red.Dates.L1SubmittedAt,
		red.Dates.CompletedAt, red.Dates.LastActivityAt, pq.Array(red.Logs),
	)
	if err != nil {
		return fmt.Errorf("failed to create redemption: %w", err)
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

// GetByID retrieves a redemption by its canonical ID.
func (r *RedemptionRepository) GetByID(ctx context.Context, id string) (*Redemption, error) {
	query := `
		SELECT id, chain_name, event, vaa_bytes, vaa_status, l1_submission_tx_hash,
			status, error, created_at, vaa_fetched_at, l1_submitted_at,
			completed_at, last_activity_at, logs
		FROM redemptions
		WHERE id = $1`

	red := &Redemption{}
	var event []byte
	err := r.client.QueryRowContext(ctx, query, id).Scan(
		&red.ID, &red.ChainName, &event, &red.VAABytes, &red.VAAStatus, &red.L1SubmissionTxHash,
		&red.Status, &red.Error, &red.Dates.CreatedAt, &red.Dates.VAAFetchedAt, &red.Dates.L1SubmittedAt,
		&red.Dates.CompletedAt, &red.Dates.LastActivityAt, pq.Array(&red.Logs),
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}
	if len(event) > 0 {
		if err := json.Unmarshal(event, &red.Event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal redemption event: %w", err)
		}
	}
	return red, nil
}

// GetByStatus retrieves all redemptions in the given status, oldest first.
// An empty chainName matches every chain.
func (r *RedemptionRepository) GetByStatus(ctx context.Context, chainName string, status RedemptionStatus) ([]*Redemption, error) {
	query := `
		SELECT id, chain_name, event, vaa_bytes, vaa_status, l1_submission_tx_hash,
			status, error, created_at, vaa_fetched_at, l1_submitted_at,
			completed_at, last_activity_at, logs
		FROM redemptions
		WHERE ($1 = '' OR chain_name = $1) AND status = $2
		ORDER BY created_at ASC`

	rows, err := r.client.QueryContext(ctx, query, chainName, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions by status: %w", err)
	}
	defer rows.Close()

	var redemptions []*Redemption
	for rows.Next() {
		red := &Redemption{}
		var event []byte
		err := rows.Scan(
			&red.ID, &red.ChainName, &event, &red.VAABytes, &red.VAAStatus, &red.L1SubmissionTxHash,
			&red.Status, &red.Error, &red.Dates.CreatedAt, &red.Dates.VAAFetchedAt, &red.Dates.L1SubmittedAt,
			&red.Dates.CompletedAt, &red.Dates.LastActivityAt, pq.Array(&red.Logs),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		if len(event) > 0 {
			if err := json.Unmarshal(event, &red.Event); err != nil {
				return nil, fmt.Errorf("failed to unmarshal redemption event: %w", err)
			}
		}
		redemptions = append(redemptions, red)
	}
	return redemptions, rows.Err()
}

// Update persists the full current state of a redemption.
func (r *RedemptionRepository) Update(ctx context.Context, red *Redemption) error {
	query := `
		UPDATE redemptions SET
			vaa_bytes = $2, vaa_status = $3, l1_submission_tx_hash = $4,
			status = $5, error = $6, vaa_fetched_at = $7, l1_submitted_at = $8,
			completed_at = $9, last_activity_at = $10, logs = $11
		WHERE id = $1`

	res, err := r.client.ExecContext(ctx, query,
		red.ID, red.VAABytes, red.VAAStatus, red.L1SubmissionTxHash,
		red.Status, red.Error, red.Dates.VAAFetchedAt, red.Dates.L1SubmittedAt,
		red.Dates.CompletedAt, red.Dates.LastActivityAt, pq.Array(red.Logs),
	)
	if err != nil {
		return fmt.Errorf("failed to update redemption: %w", err)
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

// Delete removes a redemption record. Absent records are a no-op success.
func (r *RedemptionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.ExecContext(ctx, `DELETE FROM redemptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete redemption: %w", err)
	}
	return nil
}
