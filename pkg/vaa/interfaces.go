// Copyright 2025 Certen Protocol
//
// VAA Service external dependencies, specified as narrow interfaces so the
// verification algorithm (spec §4.5) is fully testable against fakes
// without pulling in a real Wormhole SDK or L2 RPC client (Design Note 9).

package vaa

import (
	"context"
	"time"
)

// L2Receiver fetches a transaction receipt from the L2 chain that emitted a
// Wormhole message (spec §4.5 step 1).
type L2Receiver interface {
	TransactionReceipt(ctx context.Context, l2TxHash string) (*Receipt, error)
}

// TokenBridge answers whether a given VAA's transfer has already been
// completed on its target chain (spec §4.5 step 6).
type TokenBridge interface {
	IsTransferCompleted(ctx context.Context, v *VAA) (bool, error)
}

// ChainContext is a chain's SDK handle: decoding a receipt's Wormhole
// messages, and resolving that chain's token bridge contract. The VAA
// service uses one ChainContext for the emitter (L2) side and one for the
// L1 completion-check side; for same-chain deployments they may be the
// same value.
type ChainContext interface {
	ParseTransaction(ctx context.Context, receipt *Receipt) ([]WormholeMessage, error)
	GetTokenBridge(ctx context.Context) (TokenBridge, error)
}

// VAASource fetches a VAA for a given message, trying exactly the
// discriminator passed in (spec §4.5 step 4). A nil, nil return means "not
// found for this discriminator" — callers dispatch the next discriminator
// in the fixed order, or fail with VAANotFound once all are exhausted.
type VAASource interface {
	GetVaa(ctx context.Context, id MessageID, discriminator Discriminator, timeout time.Duration) (*VAA, error)
}
