// Copyright 2025 Certen Protocol
//
// Audit Repository - append-only journal of lifecycle and API events.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AuditRepository handles audit journal persistence. Entries are
// append-only: there is no Update, and the only removal is the age-based
// DeleteOlderThan.
type AuditRepository struct {
	client *Client
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(client *Client) *AuditRepository {
	return &AuditRepository{client: client}
}

// Append records a new audit event. The caller supplies Timestamp; ID is
// generated here if not already set.
func (r *AuditRepository) Append(ctx context.Context, e *AuditEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_log (id, timestamp, event_type, deposit_id, chain_name, data, error_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.client.ExecContext(ctx, query,
		e.ID, e.Timestamp, e.EventType, nullableString(e.DepositID), nullableString(e.ChainName),
		[]byte(e.Data), nullableString(e.ErrorCode),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// Query returns audit events matching the filter, most recent first.
func (r *AuditRepository) Query(ctx context.Context, f AuditFilter) ([]*AuditEvent, error) {
	query := `
		SELECT id, timestamp, event_type, deposit_id, chain_name, data, error_code
		FROM audit_log
		WHERE ($1 = '' OR chain_name = $1)
		AND ($2 = '' OR event_type = $2)
		ORDER BY timestamp DESC`
	args := []interface{}{f.ChainName, f.EventType}

	if f.Limit > 0 {
		query += " LIMIT $3"
		args = append(args, f.Limit)
	}

	rows, err := r.client.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var events []*AuditEvent
	for rows.Next() {
		e := &AuditEvent{}
		var depositID, chainName, errorCode *string
		var data []byte
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.EventType, &depositID, &chainName, &data, &errorCode); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if depositID != nil {
			e.DepositID = *depositID
		}
		if chainName != nil {
			e.ChainName = *chainName
		}
		if errorCode != nil {
			e.ErrorCode = *errorCode
		}
		e.Data = data
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteOlderThan removes audit entries with a timestamp before cutoffMillis,
// returning the number of rows removed. The deposit Cleanup Engine
// (package cleanup) does not call it.
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoffMillis int64) (int64, error) {
	res, err := r.client.ExecContext(ctx, `DELETE FROM audit_log WHERE timestamp < $1`, cutoffMillis)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}
	return res.RowsAffected()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
