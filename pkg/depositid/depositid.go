// Copyright 2025 Certen Protocol
//
// Deposit ID derivation — canonical, deterministic identifier for a tBTC
// deposit, derived from the Bitcoin funding transaction reference.

package depositid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/crypto"
)

// Family selects the byte-reversal convention used when hashing the funding
// transaction reference. EVM targets hash the reversed TXID; StarkNet hashes
// it as Bitcoin emits it.
type Family int

const (
	// FamilyEVM reverses the funding tx hash before hashing (matches the
	// byte order EVM deposit contracts expect).
	FamilyEVM Family = iota
	// FamilyStarkNet hashes the funding tx hash unreversed.
	FamilyStarkNet
)

var fundingTxHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// MaxOutputIndex is the largest valid funding output index (uint32 max).
const MaxOutputIndex = 0xFFFFFFFF

// Derive computes the canonical depositId for a given funding transaction
// hash and output index, as a decimal string of the 256-bit digest.
//
// depositId = uint256(keccak256(orient(fundingTxHash) ‖ uint32_be(outputIndex)))
//
// orient reverses the 32 funding-tx-hash bytes for FamilyEVM and leaves them
// untouched for FamilyStarkNet. The function is pure and total for all
// well-formed inputs; malformed inputs return an error rather than panicking.
func Derive(fundingTxHash string, outputIndex uint64, family Family) (string, error) {
	raw, err := decodeFundingTxHash(fundingTxHash)
	if err != nil {
		return "", err
	}
	if outputIndex > MaxOutputIndex {
		return "", fmt.Errorf("depositid: outputIndex %d exceeds uint32 range", outputIndex)
	}

	oriented := make([]byte, 32)
	copy(oriented, raw)
	if family == FamilyEVM {
		reverse(oriented)
	}

	idxBytes := []byte{
		byte(outputIndex >> 24),
		byte(outputIndex >> 16),
		byte(outputIndex >> 8),
		byte(outputIndex),
	}

	digest := crypto.Keccak256(append(oriented, idxBytes...))
	return new(big.Int).SetBytes(digest).String(), nil
}

func decodeFundingTxHash(s string) ([]byte, error) {
	if !fundingTxHashPattern.MatchString(s) {
		return nil, errors.New("depositid: fundingTxHash must be a 66-character 0x-prefixed hex string")
	}
	decoded, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("depositid: invalid hex in fundingTxHash: %w", err)
	}
	return decoded, nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
