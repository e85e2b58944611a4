// Copyright 2025 Certen Protocol
//
// Record Store data model — Deposit, Redemption, and AuditEvent, per the
// relayer's lifecycle state machines.

package store

import (
	"encoding/json"
)

// DepositStatus enumerates the forward-only lifecycle of a Deposit.
type DepositStatus string

const (
	DepositQueued               DepositStatus = "QUEUED"
	DepositInitialized          DepositStatus = "INITIALIZED"
	DepositFinalized            DepositStatus = "FINALIZED"
	DepositAwaitingWormholeVAA  DepositStatus = "AWAITING_WORMHOLE_VAA"
	DepositBridged              DepositStatus = "BRIDGED"
)

// depositRank orders statuses for the monotonicity invariant (spec §3.1.1).
var depositRank = map[DepositStatus]int{
	DepositQueued:              0,
	DepositInitialized:         1,
	DepositFinalized:           2,
	DepositAwaitingWormholeVAA: 3,
	DepositBridged:             4,
}

// Rank returns the status's position in the forward-only lifecycle. Unknown
// statuses rank below everything (-1), so comparisons against them always
// fail safe.
func (s DepositStatus) Rank() int {
	if r, ok := depositRank[s]; ok {
		return r
	}
	return -1
}

// RedemptionStatus enumerates the redemption lifecycle, including the two
// terminal failure branches.
type RedemptionStatus string

const (
	RedemptionPending     RedemptionStatus = "PENDING"
	RedemptionVAAFetched  RedemptionStatus = "VAA_FETCHED"
	RedemptionCompleted   RedemptionStatus = "COMPLETED"
	RedemptionVAAFailed   RedemptionStatus = "VAA_FAILED"
	RedemptionFailed      RedemptionStatus = "FAILED"
)

// DepositHashes holds the transaction hashes recorded at each phase of a
// deposit's life, one field per chain side.
type DepositHashes struct {
	BTC struct {
		BTCTxHash string `json:"btcTxHash,omitempty"`
	} `json:"btc"`
	Eth struct {
		InitializeTxHash string `json:"initializeTxHash,omitempty"`
		FinalizeTxHash   string `json:"finalizeTxHash,omitempty"`
	} `json:"eth"`
	Solana struct {
		BridgeTxHash string `json:"bridgeTxHash,omitempty"`
	} `json:"solana"`
}

// DepositReceipt carries the Bitcoin deposit script parameters revealed by
// the depositor.
type DepositReceipt struct {
	Depositor        string `json:"depositor"`
	BlindingFactor   string `json:"blindingFactor"`
	WalletPubKeyHash string `json:"walletPubKeyHash"`
	RefundPubKeyHash string `json:"refundPubKeyHash"`
	RefundLocktime   string `json:"refundLocktime"`
	ExtraData        string `json:"extraData,omitempty"`
}

// L1OutputEvent mirrors the on-chain reveal event fields plus the
// destination-chain routing metadata.
type L1OutputEvent struct {
	FundingTxHash     string `json:"fundingTxHash"`
	FundingOutputIndex uint32 `json:"fundingOutputIndex"`
	Reveal            DepositReceipt `json:"reveal"`
	L2DepositOwner    string `json:"l2DepositOwner"`
	L2Sender          string `json:"l2Sender"`
}

// DepositDates holds all epoch-millisecond timestamps for a deposit. A nil
// pointer means "not yet".
type DepositDates struct {
	CreatedAt                      int64  `json:"createdAt"`
	InitializationAt               *int64 `json:"initializationAt"`
	FinalizationAt                 *int64 `json:"finalizationAt"`
	AwaitingWormholeVAAMessageSince *int64 `json:"awaitingWormholeVAAMessageSince"`
	BridgedAt                      *int64 `json:"bridgedAt"`
	LastActivityAt                 int64  `json:"lastActivityAt"`
}

// WormholeInfo tracks the Wormhole bridging leg of a deposit.
type WormholeInfo struct {
	TxHash             string  `json:"txHash,omitempty"`
	TransferSequence   *uint64 `json:"transferSequence"`
	BridgingAttempted  bool    `json:"bridgingAttempted"`
}

// Deposit is the persisted record for a Bitcoin→destination-chain tBTC mint.
type Deposit struct {
	ID          string         `json:"id"`
	ChainName   string         `json:"chainName"`
	FundingTxHash string       `json:"fundingTxHash"`
	OutputIndex uint32         `json:"outputIndex"`
	Owner       string         `json:"owner"`
	Hashes      DepositHashes  `json:"hashes"`
	Receipt     DepositReceipt `json:"receipt"`
	L1OutputEvent L1OutputEvent `json:"l1OutputEvent"`
	Status      DepositStatus  `json:"status"`
	Dates       DepositDates   `json:"dates"`
	WormholeInfo WormholeInfo  `json:"wormholeInfo"`
	Error       *string        `json:"error"`
}

// Clone returns a deep-enough copy of the deposit suitable for read-modify
// -write updates without aliasing the stored record's nested pointers.
func (d *Deposit) Clone() *Deposit {
	cp := *d
	if d.Dates.InitializationAt != nil {
		v := *d.Dates.InitializationAt
		cp.Dates.InitializationAt = &v
	}
	if d.Dates.FinalizationAt != nil {
		v := *d.Dates.FinalizationAt
		cp.Dates.FinalizationAt = &v
	}
	if d.Dates.AwaitingWormholeVAAMessageSince != nil {
		v := *d.Dates.AwaitingWormholeVAAMessageSince
		cp.Dates.AwaitingWormholeVAAMessageSince = &v
	}
	if d.Dates.BridgedAt != nil {
		v := *d.Dates.BridgedAt
		cp.Dates.BridgedAt = &v
	}
	if d.WormholeInfo.TransferSequence != nil {
		v := *d.WormholeInfo.TransferSequence
		cp.WormholeInfo.TransferSequence = &v
	}
	if d.Error != nil {
		v := *d.Error
		cp.Error = &v
	}
	return &cp
}

// RedemptionEvent mirrors the RedemptionRequested event that created the
// redemption record.
type RedemptionEvent struct {
	WalletPubKeyHash     string `json:"walletPubKeyHash"`
	MainUTXO             string `json:"mainUtxo"`
	RedeemerOutputScript string `json:"redeemerOutputScript"`
	Amount               string `json:"amount"`
	L2TransactionHash    string `json:"l2TransactionHash"`
}

// RedemptionDates holds epoch-millisecond timestamps for a redemption.
type RedemptionDates struct {
	CreatedAt       int64  `json:"createdAt"`
	VAAFetchedAt    *int64 `json:"vaaFetchedAt"`
	L1SubmittedAt   *int64 `json:"l1SubmittedAt"`
	CompletedAt     *int64 `json:"completedAt"`
	LastActivityAt  int64  `json:"lastActivityAt"`
}

// Redemption is the persisted record for a destination-chain→Bitcoin tBTC
// burn and unlock operation.
type Redemption struct {
	ID                 string            `json:"id"`
	ChainName          string            `json:"chainName"`
	Event              RedemptionEvent   `json:"event"`
	VAABytes           []byte            `json:"vaaBytes,omitempty"`
	VAAStatus          string            `json:"vaaStatus,omitempty"`
	L1SubmissionTxHash string            `json:"l1SubmissionTxHash,omitempty"`
	Status             RedemptionStatus  `json:"status"`
	Error              *string           `json:"error"`
	Dates              RedemptionDates   `json:"dates"`
	Logs               []string          `json:"logs"`
}

// Clone returns a deep-enough copy for read-modify-write updates.
func (r *Redemption) Clone() *Redemption {
	cp := *r
	if r.Dates.VAAFetchedAt != nil {
		v := *r.Dates.VAAFetchedAt
		cp.Dates.VAAFetchedAt = &v
	}
	if r.Dates.L1SubmittedAt != nil {
		v := *r.Dates.L1SubmittedAt
		cp.Dates.L1SubmittedAt = &v
	}
	if r.Dates.CompletedAt != nil {
		v := *r.Dates.CompletedAt
		cp.Dates.CompletedAt = &v
	}
	if r.Error != nil {
		v := *r.Error
		cp.Error = &v
	}
	cp.Logs = append([]string(nil), r.Logs...)
	cp.VAABytes = append([]byte(nil), r.VAABytes...)
	return &cp
}

// AuditEventType enumerates the append-only audit journal's event kinds.
type AuditEventType string

const (
	EventDepositCreated           AuditEventType = "DEPOSIT_CREATED"
	EventStatusChange             AuditEventType = "STATUS_CHANGE"
	EventDepositInitialized       AuditEventType = "DEPOSIT_INITIALIZED"
	EventDepositFinalized         AuditEventType = "DEPOSIT_FINALIZED"
	EventDepositAwaitingWormholeVAA AuditEventType = "DEPOSIT_AWAITING_WORMHOLE_VAA"
	EventDepositBridged           AuditEventType = "DEPOSIT_BRIDGED"
	EventDepositDeleted           AuditEventType = "DEPOSIT_DELETED"
	EventAPIRequest               AuditEventType = "API_REQUEST"
	EventError                    AuditEventType = "ERROR"
)

// AuditEvent is a single append-only audit journal entry.
type AuditEvent struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	EventType AuditEventType  `json:"eventType"`
	DepositID string          `json:"depositId,omitempty"`
	ChainName string          `json:"chainName,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	ErrorCode string          `json:"errorCode,omitempty"`
}

// InitializationReceipt is the result of submitting a deposit's L1
// initialization transaction, as returned by a chain handler's
// InitializeDeposit (spec §4.9, scenario S1).
type InitializationReceipt struct {
	TxHash string `json:"transactionHash"`
	Status uint64 `json:"status"` // 0 means reverted, per EVM receipt convention
}

// AuditFilter restricts an audit log query.
type AuditFilter struct {
	ChainName string // empty means all chains
	EventType AuditEventType // empty means all event types
	Limit     int // 0 means unbounded
}
