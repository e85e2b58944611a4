// Copyright 2025 Certen Protocol
//
// Redemption State Machine (C6) — transition rules for the L2→L1
// PENDING → VAA_FETCHED → COMPLETED lifecycle, plus the VAA_FAILED/FAILED
// terminal failure branches (spec §4.4).

package redemption

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/certen/tbtc-relayer/pkg/store"
)

// Engine applies the redemption updaters against a Record Store and Audit
// Log, mirroring pkg/deposit.Engine's shape for the symmetrical lifecycle.
type Engine struct {
	Redemptions store.RedemptionStore
	Audit       store.AuditStore
	Logger      *log.Logger
}

// NewEngine constructs an Engine with a default component-prefixed logger.
func NewEngine(redemptions store.RedemptionStore, audit store.AuditStore) *Engine {
	return &Engine{
		Redemptions: redemptions,
		Audit:       audit,
		Logger:      log.New(log.Writer(), "[RedemptionSM] ", log.LstdFlags),
	}
}

// RecordFailure logs a transient failure against a redemption without
// changing its status — the retryable path (spec §7: "VAA classification
// ... Redemption remains in PENDING for retryable classes").
func (e *Engine) RecordFailure(ctx context.Context, r *store.Redemption, reason string) (*store.Redemption, error) {
	next := r.Clone()
	now := time.Now().UnixMilli()
	next.Dates.LastActivityAt = now
	msg := reason
	next.Error = &msg
	next.Logs = append(next.Logs, fmt.Sprintf("[%d] %s", now, reason))

	if err := e.Redemptions.Update(ctx, next); err != nil {
		return r, fmt.Errorf("redemption: persist failure on %s: %w", next.ID, err)
	}
	e.emitAudit(ctx, next.ID, next.ChainName, map[string]string{"error": reason})
	return next, nil
}

// UpdateToVAAFetched advances a PENDING redemption to VAA_FETCHED once the
// Wormhole VAA for its L2 transaction has been fetched and verified.
func (e *Engine) UpdateToVAAFetched(ctx context.Context, r *store.Redemption, vaaBytes []byte, vaaStatus string) (*store.Redemption, error) {
	if r.Status != store.RedemptionPending {
		e.Logger.Printf("debug: ignoring PENDING->VAA_FETCHED for redemption %s: currently %s", r.ID, r.Status)
		return r, ErrWrongSourceStatus
	}
	next := r.Clone()
	now := time.Now().UnixMilli()
	next.Status = store.RedemptionVAAFetched
	next.VAABytes = vaaBytes
	next.VAAStatus = vaaStatus
	next.Dates.VAAFetchedAt = &now
	next.Dates.LastActivityAt = now
	next.Error = nil
	next.Logs = append(next.Logs, fmt.Sprintf("[%d] VAA fetched and verified", now))

	if err := e.Redemptions.Update(ctx, next); err != nil {
		return r, fmt.Errorf("redemption: persist PENDING->VAA_FETCHED: %w", err)
	}
	e.emitStatusChange(ctx, next, store.RedemptionPending, store.RedemptionVAAFetched)
	return next, nil
}

// UpdateToCompleted advances a VAA_FETCHED redemption to COMPLETED once the
// L1 submission transaction has confirmed.
func (e *Engine) UpdateToCompleted(ctx context.Context, r *store.Redemption, l1TxHash string) (*store.Redemption, error) {
	if r.Status != store.RedemptionVAAFetched {
		e.Logger.Printf("debug: ignoring VAA_FETCHED->COMPLETED for redemption %s: currently %s", r.ID, r.Status)
		return r, ErrWrongSourceStatus
	}
	next := r.Clone()
	now := time.Now().UnixMilli()
	next.Status = store.RedemptionCompleted
	next.L1SubmissionTxHash = l1TxHash
	next.Dates.L1SubmittedAt = &now
	next.Dates.CompletedAt = &now
	next.Dates.LastActivityAt = now
	next.Error = nil
	next.Logs = append(next.Logs, fmt.Sprintf("[%d] L1 submission confirmed: %s", now, l1TxHash))

	if err := e.Redemptions.Update(ctx, next); err != nil {
		return r, fmt.Errorf("redemption: persist VAA_FETCHED->COMPLETED: %w", err)
	}
	e.emitStatusChange(ctx, next, store.RedemptionVAAFetched, store.RedemptionCompleted)
	return next, nil
}

// UpdateToVAAFailed moves a PENDING redemption to the terminal VAA_FAILED
// status once the operator-tunable retry budget
// (VAA_MAX_ATTEMPTS_BEFORE_FAILED) is exhausted. Spec §9 treats indefinite
// retry as the default policy, so callers should only reach for this when
// that budget is configured and exceeded — see pkg/scheduler.
func (e *Engine) UpdateToVAAFailed(ctx context.Context, r *store.Redemption, reason string) (*store.Redemption, error) {
	if r.Status != store.RedemptionPending {
		e.Logger.Printf("debug: ignoring PENDING->VAA_FAILED for redemption %s: currently %s", r.ID, r.Status)
		return r, ErrWrongSourceStatus
	}
	next := r.Clone()
	now := time.Now().UnixMilli()
	next.Status = store.RedemptionVAAFailed
	next.Dates.LastActivityAt = now
	msg := reason
	next.Error = &msg
	next.Logs = append(next.Logs, fmt.Sprintf("[%d] VAA retrieval abandoned: %s", now, reason))

	if err := e.Redemptions.Update(ctx, next); err != nil {
		return r, fmt.Errorf("redemption: persist PENDING->VAA_FAILED: %w", err)
	}
	e.emitStatusChange(ctx, next, store.RedemptionPending, store.RedemptionVAAFailed)
	return next, nil
}

// UpdateToFailed moves a VAA_FETCHED redemption to the terminal FAILED
// status once L1 submission retries are exhausted.
func (e *Engine) UpdateToFailed(ctx context.Context, r *store.Redemption, reason string) (*store.Redemption, error) {
	if r.Status != store.RedemptionVAAFetched {
		e.Logger.Printf("debug: ignoring VAA_FETCHED->FAILED for redemption %s: currently %s", r.ID, r.Status)
		return r, ErrWrongSourceStatus
	}
	next := r.Clone()
	now := time.Now().UnixMilli()
	next.Status = store.RedemptionFailed
	next.Dates.LastActivityAt = now
	msg := reason
	next.Error = &msg
	next.Logs = append(next.Logs, fmt.Sprintf("[%d] L1 submission abandoned: %s", now, reason))

	if err := e.Redemptions.Update(ctx, next); err != nil {
		return r, fmt.Errorf("redemption: persist VAA_FETCHED->FAILED: %w", err)
	}
	e.emitStatusChange(ctx, next, store.RedemptionVAAFetched, store.RedemptionFailed)
	return next, nil
}

func (e *Engine) emitStatusChange(ctx context.Context, r *store.Redemption, from, to store.RedemptionStatus) {
	data := map[string]string{"redemptionId": r.ID, "from": string(from), "to": string(to)}
	e.emitAudit(ctx, r.ID, r.ChainName, data)
}

func (e *Engine) emitAudit(ctx context.Context, redemptionID, chainName string, data map[string]string) {
	raw, err := json.Marshal(data)
	if err != nil {
		e.Logger.Printf("failed to marshal audit data for redemption %s: %v", redemptionID, err)
		raw = nil
	}
	event := &store.AuditEvent{
		Timestamp: time.Now().UnixMilli(),
		EventType: store.EventStatusChange,
		ChainName: chainName,
		Data:      json.RawMessage(raw),
	}
	if err := e.Audit.Append(ctx, event); err != nil {
		e.Logger.Printf("failed to append audit event for redemption %s: %v", redemptionID, err)
	}
}
