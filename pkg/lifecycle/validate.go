// Copyright 2025 Certen Protocol
//
// Reveal field validation — strict field-level checks producing a
// structured error enumerating every offending field, in the style of the
// teacher's accumulated-violations invariant checks
// (pkg/consensus/validator_block_invariants.go).

package lifecycle

import "regexp"

var (
	hexPattern        = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	ethAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	numericPattern    = regexp.MustCompile(`^[0-9]+$`)
)

// RevealFields mirrors the Bitcoin deposit script parameters revealed by
// the depositor (spec §3.1 receipt, §4.9 validation rules).
type RevealFields struct {
	Depositor        string
	BlindingFactor   string
	WalletPubKeyHash string
	RefundPubKeyHash string
	RefundLocktime   string
	ExtraData        string // optional
}

// RevealRequest is the full input to RevealDeposit (spec §4.9).
type RevealRequest struct {
	FundingTxHash      string
	FundingOutputIndex int64
	Reveal             RevealFields
	L2DepositOwner     string
	L2Sender           string
}

// validate enumerates every invalid field rather than failing fast on the
// first one, so a caller gets the complete picture in a single round trip.
func validate(req RevealRequest) []FieldError {
	var violations []FieldError
	add := func(field, msg string) {
		violations = append(violations, FieldError{Field: field, Message: msg})
	}

	if req.FundingTxHash == "" {
		add("fundingTxHash", "is required")
	} else if len(req.FundingTxHash) != 66 || !hexPattern.MatchString(req.FundingTxHash) {
		add("fundingTxHash", "must be a 66-character 0x-prefixed hex string")
	}

	if req.FundingOutputIndex < 0 {
		add("fundingOutputIndex", "must be a non-negative integer")
	} else if req.FundingOutputIndex > 0xFFFFFFFF {
		add("fundingOutputIndex", "must not exceed 0xFFFFFFFF")
	}

	if req.Reveal.Depositor == "" {
		add("reveal.depositor", "is required")
	} else if !ethAddressPattern.MatchString(req.Reveal.Depositor) {
		add("reveal.depositor", "must be a 20-byte 0x-prefixed Ethereum address")
	}

	if req.Reveal.BlindingFactor == "" {
		add("reveal.blindingFactor", "is required")
	} else if !hexPattern.MatchString(req.Reveal.BlindingFactor) {
		add("reveal.blindingFactor", "must be 0x-prefixed hex")
	}

	if req.Reveal.WalletPubKeyHash == "" {
		add("reveal.walletPubKeyHash", "is required")
	} else if !hexPattern.MatchString(req.Reveal.WalletPubKeyHash) {
		add("reveal.walletPubKeyHash", "must be 0x-prefixed hex")
	}

	if req.Reveal.RefundPubKeyHash == "" {
		add("reveal.refundPubKeyHash", "is required")
	} else if !hexPattern.MatchString(req.Reveal.RefundPubKeyHash) {
		add("reveal.refundPubKeyHash", "must be 0x-prefixed hex")
	}

	if req.Reveal.RefundLocktime == "" {
		add("reveal.refundLocktime", "is required")
	} else if !numericPattern.MatchString(req.Reveal.RefundLocktime) {
		add("reveal.refundLocktime", "must be a numeric string")
	}

	if req.Reveal.ExtraData != "" && !hexPattern.MatchString(req.Reveal.ExtraData) {
		add("reveal.extraData", "must be 0x-prefixed hex")
	}

	if req.L2DepositOwner == "" {
		add("l2DepositOwner", "is required")
	} else if !ethAddressPattern.MatchString(req.L2DepositOwner) {
		add("l2DepositOwner", "must be a 20-byte 0x-prefixed Ethereum address")
	}

	if req.L2Sender == "" {
		add("l2Sender", "is required")
	} else if !ethAddressPattern.MatchString(req.L2Sender) {
		add("l2Sender", "must be a 20-byte 0x-prefixed Ethereum address")
	}

	return violations
}
