// Copyright 2025 Certen Protocol
//
// VAA Service (C7) — wire types for Wormhole Guardian-signed transfer
// messages. These mirror the shapes the real Wormhole Go SDK exposes
// (wormhole-foundation/wormhole-go's vaa.VAA and the token bridge's
// transfer payloads) closely enough that swapping the fakes used here for
// the real SDK client is a matter of satisfying ChainContext/VAASource,
// not reshaping data (spec §4.5, Design Note 9).

package vaa

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ChainID is a Wormhole-assigned chain identifier (NOT the EVM chain ID).
type ChainID uint16

// Well-known Wormhole chain IDs referenced by the spec's examples.
const (
	ChainIDEthereum ChainID = 2
	ChainIDArbitrum ChainID = 23
)

// UniversalAddress is Wormhole's canonical 32-byte, chain-agnostic address
// encoding: native addresses shorter than 32 bytes are left-padded with
// zeroes.
type UniversalAddress [32]byte

// String renders the universal address as 0x-prefixed hex.
func (u UniversalAddress) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

// Equal reports byte-equality with another universal address.
func (u UniversalAddress) Equal(other UniversalAddress) bool {
	return u == other
}

// EVMAddressToUniversal left-pads a 20-byte 0x-prefixed EVM address out to
// Wormhole's 32-byte universal form (spec §4.5 step 3).
func EVMAddressToUniversal(addr string) (UniversalAddress, error) {
	var out UniversalAddress
	trimmed := strings.TrimPrefix(addr, "0x")
	if len(trimmed) != 40 {
		return out, fmt.Errorf("vaa: EVM address must be 20 bytes (40 hex chars), got %d", len(trimmed))
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("vaa: invalid hex in EVM address: %w", err)
	}
	copy(out[32-len(decoded):], decoded)
	return out, nil
}

// WormholeMessage is one (chain, emitter, sequence) triple parsed out of an
// L2 transaction receipt's logs — the Wormhole core bridge's
// LogMessagePublished event, in SDK terms (spec §4.5 step 2).
type WormholeMessage struct {
	ChainID  ChainID
	Emitter  UniversalAddress
	Sequence uint64
}

// MessageID identifies a single Wormhole message for VAA lookup by
// (emitter chain, emitter address, sequence) — the SDK's WormholeMessageId.
type MessageID struct {
	ChainID  ChainID
	Emitter  UniversalAddress
	Sequence uint64
}

// String renders the message ID in the "chain/emitter/sequence" form used
// in log lines and error messages.
func (m MessageID) String() string {
	return fmt.Sprintf("%d/%s/%d", m.ChainID, m.Emitter, m.Sequence)
}

// Receipt is the subset of an L2 transaction receipt the VAA service needs:
// whether the transaction succeeded, and the raw data a ChainContext uses
// to decode any Wormhole messages it published.
type Receipt struct {
	TxHash string
	Status uint64 // 0 means reverted, per EVM receipt convention (spec §4.5 step 1)
	Logs   []byte // opaque to this package; ChainContext.ParseTransaction decodes it
}

// VAA is a parsed, Guardian-signed Verified Action Approval for a token
// bridge transfer.
type VAA struct {
	EmitterChain     ChainID
	EmitterAddress   UniversalAddress
	Sequence         uint64
	ProtocolName     string // "TokenBridge" for the transfers this service verifies
	PayloadName      string // "Transfer" or "TransferWithPayload"
	ConsistencyLevel uint8

	// Bytes holds the VAA's wire encoding, if the source already carries
	// it. When empty, Service falls back to Serialize().
	Bytes []byte
}

// Serialize returns the VAA's wire bytes. Fakes and the eventual real SDK
// client both populate Bytes directly in the common case; this exists for
// sources that only hand back a parsed struct (spec §4.5 step 7).
func (v *VAA) Serialize() ([]byte, error) {
	if len(v.Bytes) > 0 {
		return v.Bytes, nil
	}
	return nil, fmt.Errorf("vaa: no wire bytes available to serialize")
}

// Discriminator is a "Protocol:Payload" tag used to request a specific VAA
// payload shape from a VAASource (spec §4.5 step 4).
type Discriminator string

const (
	DiscriminatorTransferWithPayload Discriminator = "TokenBridge:TransferWithPayload"
	DiscriminatorTransfer            Discriminator = "TokenBridge:Transfer"
)

// discriminatorOrder is the exact, fixed probing order spec §4.5 step 4
// mandates: payload-carrying transfers first, then bare transfers.
var discriminatorOrder = []Discriminator{
	DiscriminatorTransferWithPayload,
	DiscriminatorTransfer,
}
