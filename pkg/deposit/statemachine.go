// Copyright 2025 Certen Protocol
//
// Deposit State Machine (C5) — transition rules, invariants, and
// idempotent updaters for the QUEUED → INITIALIZED → FINALIZED →
// AWAITING_WORMHOLE_VAA → BRIDGED lifecycle (spec §4.3).

package deposit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/certen/tbtc-relayer/pkg/metrics"
	"github.com/certen/tbtc-relayer/pkg/store"
)

// Engine applies the four deposit updaters against a Record Store and
// Audit Log. It holds no per-deposit state; every call is independent, so
// it is safe to share a single Engine across concurrent callers.
type Engine struct {
	Deposits store.DepositStore
	Audit    store.AuditStore
	Logger   *log.Logger
}

// NewEngine constructs an Engine with a default logger, matching the
// teacher's component-prefixed stdlib logger convention.
func NewEngine(deposits store.DepositStore, audit store.AuditStore) *Engine {
	return &Engine{
		Deposits: deposits,
		Audit:    audit,
		Logger:   log.New(log.Writer(), "[DepositSM] ", log.LstdFlags),
	}
}

// transitionSpec describes one edge of the lifecycle graph in §4.3: the
// source status a deposit must be in, the destination status, the audit
// event type emitted on success, and how to stamp the success-path fields
// (hash, timestamp) onto the cloned record.
type transitionSpec struct {
	from      store.DepositStatus
	to        store.DepositStatus
	eventType store.AuditEventType
	apply     func(d *store.Deposit, now int64, txHash string)
}

// UpdateToInitialized advances a QUEUED deposit to INITIALIZED once the L1
// initialization transaction has been submitted, recording its hash.
func (e *Engine) UpdateToInitialized(ctx context.Context, d *store.Deposit, txHash, failErr string) (*store.Deposit, error) {
	return e.transition(ctx, d, transitionSpec{
		from:      store.DepositQueued,
		to:        store.DepositInitialized,
		eventType: store.EventDepositInitialized,
		apply: func(d *store.Deposit, now int64, txHash string) {
			d.Hashes.Eth.InitializeTxHash = txHash
			d.Dates.InitializationAt = &now
		},
	}, txHash, failErr)
}

// UpdateToFinalized advances an INITIALIZED deposit to FINALIZED once the
// finalization transaction has been submitted.
func (e *Engine) UpdateToFinalized(ctx context.Context, d *store.Deposit, txHash, failErr string) (*store.Deposit, error) {
	return e.transition(ctx, d, transitionSpec{
		from:      store.DepositInitialized,
		to:        store.DepositFinalized,
		eventType: store.EventDepositFinalized,
		apply: func(d *store.Deposit, now int64, txHash string) {
			d.Hashes.Eth.FinalizeTxHash = txHash
			d.Dates.FinalizationAt = &now
		},
	}, txHash, failErr)
}

// UpdateToAwaitingWormholeVAA advances a FINALIZED deposit to
// AWAITING_WORMHOLE_VAA once the Wormhole transfer has been initiated on
// the source chain. The transfer sequence, rendered as a decimal string, is
// the tx reference recorded in the phase audit event.
func (e *Engine) UpdateToAwaitingWormholeVAA(ctx context.Context, d *store.Deposit, transferSequence uint64, failErr string) (*store.Deposit, error) {
	txRef := ""
	if failErr == "" {
		txRef = fmt.Sprintf("%d", transferSequence)
	}
	return e.transition(ctx, d, transitionSpec{
		from:      store.DepositFinalized,
		to:        store.DepositAwaitingWormholeVAA,
		eventType: store.EventDepositAwaitingWormholeVAA,
		apply: func(d *store.Deposit, now int64, _ string) {
			seq := transferSequence
			d.WormholeInfo.TransferSequence = &seq
			d.Dates.AwaitingWormholeVAAMessageSince = &now
		},
	}, txRef, failErr)
}

// UpdateToBridged advances an AWAITING_WORMHOLE_VAA deposit to BRIDGED once
// the bridging transaction on the destination chain has confirmed.
func (e *Engine) UpdateToBridged(ctx context.Context, d *store.Deposit, txHash, failErr string) (*store.Deposit, error) {
	return e.transition(ctx, d, transitionSpec{
		from:      store.DepositAwaitingWormholeVAA,
		to:        store.DepositBridged,
		eventType: store.EventDepositBridged,
		apply: func(d *store.Deposit, now int64, txHash string) {
			d.Hashes.Solana.BridgeTxHash = txHash
			d.WormholeInfo.TxHash = txHash
			d.WormholeInfo.BridgingAttempted = true
			d.Dates.BridgedAt = &now
		},
	}, txHash, failErr)
}

// transition implements the shared updater contract (spec §4.3): exactly
// one of txRef/failErr is set by the caller. Success persists the new
// status and emits STATUS_CHANGE then the phase-specific audit event,
// strictly after the persisted write is durable. Failure leaves status
// untouched, records the error, and is not surfaced as a Go error — only a
// disallowed source status is.
func (e *Engine) transition(ctx context.Context, current *store.Deposit, spec transitionSpec, txRef, failErr string) (*store.Deposit, error) {
	if current.Status != spec.from {
		e.Logger.Printf("debug: ignoring %s->%s for deposit %s: currently %s", spec.from, spec.to, current.ID, current.Status)
		return current, ErrWrongSourceStatus
	}

	next := current.Clone()
	now := time.Now().UnixMilli()
	next.Dates.LastActivityAt = now

	success := txRef != ""
	if success {
		next.Status = spec.to
		spec.apply(next, now, txRef)
		next.Error = nil
	} else {
		msg := failErr
		next.Error = &msg
	}

	if err := e.Deposits.Update(ctx, next); err != nil {
		return current, fmt.Errorf("deposit: persist %s->%s: %w", spec.from, spec.to, err)
	}

	if !success {
		e.emitAudit(ctx, store.EventError, next.ID, next.ChainName, map[string]string{
			"phase": string(spec.to),
			"error": failErr,
		})
		return next, nil
	}

	e.emitAudit(ctx, store.EventStatusChange, next.ID, next.ChainName, map[string]string{
		"from": string(spec.from),
		"to":   string(spec.to),
	})
	e.emitAudit(ctx, spec.eventType, next.ID, next.ChainName, map[string]string{
		"txRef": txRef,
	})
	metrics.DepositStatusTransitionsTotal.WithLabelValues(string(spec.to)).Inc()
	return next, nil
}

// emitAudit appends an audit event and, on failure to do so, logs the
// failure as a secondary error without reverting the already-durable
// transition (spec §4.3: "a failure to emit the audit log must not revert
// the persisted transition").
func (e *Engine) emitAudit(ctx context.Context, eventType store.AuditEventType, depositID, chainName string, data map[string]string) {
	raw, err := json.Marshal(data)
	if err != nil {
		e.Logger.Printf("failed to marshal audit data for %s on deposit %s: %v", eventType, depositID, err)
		raw = nil
	}
	event := &store.AuditEvent{
		Timestamp: time.Now().UnixMilli(),
		EventType: eventType,
		DepositID: depositID,
		ChainName: chainName,
		Data:      json.RawMessage(raw),
	}
	if err := e.Audit.Append(ctx, event); err != nil {
		e.Logger.Printf("failed to append audit event %s for deposit %s: %v", eventType, depositID, err)
	}
}
