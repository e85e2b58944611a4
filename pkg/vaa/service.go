// Copyright 2025 Certen Protocol
//
// VAA Service (C7) — fetches, parses, and verifies Wormhole Guardian-signed
// transfer messages for L2→L1 redemptions (spec §4.5). Structured as a
// sequence of classified verification steps, in the style of the teacher's
// UnifiedVerifier (pkg/verification/unified_verifier.go): each step either
// advances or returns a specific, logged failure class — nothing here
// throws past the public FetchAndVerify boundary.

package vaa

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Config tunes the VAA fetch retry policy (spec §6.4).
type Config struct {
	MaxRetries       int
	RetryDelay       time.Duration
	ConsistencyFloor uint8 // values below this produce a warning, not a failure (spec §4.5 step 5)
}

// DefaultConfig matches the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       5,
		RetryDelay:       60_000 * time.Millisecond,
		ConsistencyFloor: 1,
	}
}

// Service verifies Wormhole-signed token bridge transfers end-to-end. It
// holds only long-lived SDK handles set at construction; FetchAndVerify is
// stateless per call (spec §4.5 "State machine").
type Service struct {
	L2        L2Receiver
	Emitter   ChainContext // the emitter (L2) chain's SDK context
	VAASource VAASource
	L1        ChainContext // the L1 chain's SDK context, for the completion check
	Config    Config
	Logger    *log.Logger
}

// NewService constructs a Service with the default retry policy and a
// component-prefixed stdlib logger, matching the teacher's logging
// convention.
func NewService(l2 L2Receiver, emitter ChainContext, source VAASource, l1 ChainContext) *Service {
	return &Service{
		L2:        l2,
		Emitter:   emitter,
		VAASource: source,
		L1:        l1,
		Config:    DefaultConfig(),
		Logger:    log.New(log.Writer(), "[VAAService] ", log.LstdFlags),
	}
}

// Result is the verified outcome of FetchAndVerify (spec §4.5 step 8).
type Result struct {
	VAABytes []byte
	Parsed   *VAA
}

// timeout computes the bound on VAASource.GetVaa per discriminator attempt:
// max(1, maxRetries*retryDelay) (spec §4.5 step 4). maxRetries=0 collapses
// to a single attempt at the full retryDelay, per spec's boundary behavior.
func (c Config) timeout() time.Duration {
	if c.MaxRetries <= 0 {
		if c.RetryDelay <= 0 {
			return time.Millisecond
		}
		return c.RetryDelay
	}
	d := time.Duration(c.MaxRetries) * c.RetryDelay
	if d <= 0 {
		return time.Millisecond
	}
	return d
}

// FetchAndVerify implements the eight-step algorithm of spec §4.5. On any
// classified failure it returns (nil, *Failure) having already logged the
// failure; callers that only care about success/retry can treat the error
// return as opaque; the redemption scheduler reads (*Failure).Class only to
// label its result metric, and retries every class alike.
func (s *Service) FetchAndVerify(ctx context.Context, l2TxHash string, emitterChainID ChainID, emitterAddressNative string, targetL1ChainID ChainID) (*Result, error) {
	if targetL1ChainID == 0 {
		targetL1ChainID = ChainIDEthereum
	}

	// correlationID ties together the handful of log lines a single call
	// may emit (one per retried discriminator) without a monotonic
	// sequence, the same role google/uuid plays for audit event IDs.
	correlationID := uuid.New().String()

	// Step 1: L2 receipt fetch.
	receipt, err := s.L2.TransactionReceipt(ctx, l2TxHash)
	if err != nil || receipt == nil {
		return nil, s.logFail(correlationID, fail(ClassL2ReceiptMissing, err, "no receipt for L2 transaction %s", l2TxHash))
	}
	if receipt.Status == 0 {
		return nil, s.logFail(correlationID, fail(ClassL2TxReverted, nil, "L2 transaction %s reverted", l2TxHash))
	}

	// Step 2: parse Wormhole messages out of the receipt.
	messages, err := s.Emitter.ParseTransaction(ctx, receipt)
	if err != nil {
		return nil, s.logFail(correlationID, fail(ClassNoWormholeMessages, err, "failed to parse Wormhole messages from %s", l2TxHash))
	}
	if len(messages) == 0 {
		return nil, s.logFail(correlationID, fail(ClassNoWormholeMessages, nil, "L2 transaction %s published no Wormhole messages", l2TxHash))
	}

	// Step 3: select the message matching the caller's expected emitter.
	expectedEmitter, err := EVMAddressToUniversal(emitterAddressNative)
	if err != nil {
		return nil, s.logFail(correlationID, fail(ClassNoMatchingEmitter, err, "invalid emitter address %s", emitterAddressNative))
	}
	var msgID MessageID
	found := false
	for _, m := range messages {
		if m.ChainID == emitterChainID && m.Emitter.Equal(expectedEmitter) {
			msgID = MessageID{ChainID: m.ChainID, Emitter: m.Emitter, Sequence: m.Sequence}
			found = true
			break
		}
	}
	if !found {
		return nil, s.logFail(correlationID, fail(ClassNoMatchingEmitter, nil, "Relevant Wormhole message not found for emitter %s on chain %d", expectedEmitter, emitterChainID))
	}

	// Step 4: fetch the VAA, trying each discriminator in the fixed order.
	timeout := s.Config.timeout()
	var lastErr error
	var v *VAA
	for _, d := range discriminatorOrder {
		candidate, err := s.VAASource.GetVaa(ctx, msgID, d, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		if candidate != nil {
			v = candidate
			break
		}
	}
	if v == nil {
		return nil, s.logFail(correlationID, fail(ClassVAANotFound, lastErr, "did not return a VAA for message ID %s", msgID))
	}

	// Step 5: emitter/protocol/payload verification.
	if v.EmitterChain != emitterChainID || !v.EmitterAddress.Equal(expectedEmitter) {
		return nil, s.logFail(correlationID, fail(ClassVAAEmitterMismatch, nil, "VAA emitter %s/%d does not match expected %s/%d", v.EmitterAddress, v.EmitterChain, expectedEmitter, emitterChainID))
	}
	if v.ProtocolName != "TokenBridge" {
		return nil, s.logFail(correlationID, fail(ClassVAAProtocolMismatch, nil, "VAA protocol %q is not TokenBridge", v.ProtocolName))
	}
	if v.PayloadName != "Transfer" && v.PayloadName != "TransferWithPayload" {
		return nil, s.logFail(correlationID, fail(ClassVAAPayloadMismatch, nil, "VAA payload %q is not a transfer", v.PayloadName))
	}
	if v.ConsistencyLevel < s.Config.ConsistencyFloor {
		s.Logger.Printf("warning: VAA for %s has consistency level %d below configured floor %d", msgID, v.ConsistencyLevel, s.Config.ConsistencyFloor)
	}

	// Step 6: L1 completion check.
	bridge, err := s.L1.GetTokenBridge(ctx)
	if err != nil {
		return nil, s.logFail(correlationID, fail(ClassL1CompletionCheckError, err, "failed to acquire L1 token bridge handle"))
	}
	completed, err := bridge.IsTransferCompleted(ctx, v)
	if err != nil {
		return nil, s.logFail(correlationID, fail(ClassL1CompletionCheckError, err, "L1 completion check errored for %s", msgID))
	}
	if !completed {
		return nil, s.logFail(correlationID, fail(ClassVAATransferNotComplete, nil, "VAA transfer %s not yet completed on L1", msgID))
	}

	// Step 7: byte extraction.
	vaaBytes := v.Bytes
	if len(vaaBytes) == 0 {
		serialized, err := v.Serialize()
		if err != nil || len(serialized) == 0 {
			return nil, s.logFail(correlationID, fail(ClassVAABytesMissing, err, "VAA for %s has no wire bytes", msgID))
		}
		vaaBytes = serialized
	}

	return &Result{VAABytes: vaaBytes, Parsed: v}, nil
}

func (s *Service) logFail(correlationID string, f *Failure) *Failure {
	s.Logger.Printf("verification failed [correlation=%s] [%s]: %s", correlationID, f.Class, f.Message)
	return f
}
