// Copyright 2025 Certen Protocol
//
// Lifecycle API (C11) — the reveal ingress path and status lookup consumed
// by the HTTP surface (pkg/httpapi). This is the one place outside the
// scheduler that creates Deposit records and invokes a chain handler.

package lifecycle

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/certen/tbtc-relayer/pkg/depositid"
	"github.com/certen/tbtc-relayer/pkg/deposit"
	"github.com/certen/tbtc-relayer/pkg/registry"
	"github.com/certen/tbtc-relayer/pkg/store"
)

// FamilyResolver maps a chain name to the deposit ID derivation convention
// it expects (spec §4.8: EVM reverses the funding tx hash, StarkNet does
// not). Chains absent from the map default to FamilyEVM.
type FamilyResolver map[string]depositid.Family

// Service implements revealDeposit/getDepositStatus against a chain
// handler registry, the deposit state machine, and the Record Store.
type Service struct {
	Registry   *registry.Registry
	Deposits   store.DepositStore
	Audit      store.AuditStore
	Engine     *deposit.Engine
	Families   FamilyResolver
	Logger     *log.Logger
}

// NewService constructs a Service with a component-prefixed logger.
func NewService(reg *registry.Registry, deposits store.DepositStore, audit store.AuditStore, engine *deposit.Engine, families FamilyResolver) *Service {
	return &Service{
		Registry: reg,
		Deposits: deposits,
		Audit:    audit,
		Engine:   engine,
		Families: families,
		Logger:   log.New(log.Writer(), "[Lifecycle] ", log.LstdFlags),
	}
}

// RevealResult is the success shape of RevealDeposit (spec §4.9, §6.3).
type RevealResult struct {
	DepositID string
	Receipt   *store.InitializationReceipt
}

// RevealDeposit validates the reveal payload, persists a QUEUED Deposit
// under its canonical ID, delegates to the chain handler's
// InitializeDeposit, and on success advances the record to INITIALIZED.
// On handler failure the record stays QUEUED for the scheduler to retry
// (spec §4.9).
func (s *Service) RevealDeposit(ctx context.Context, chainName string, req RevealRequest) (*RevealResult, error) {
	if violations := validate(req); len(violations) > 0 {
		return nil, &Error{Kind: KindValidation, Message: "reveal payload failed validation", FieldErrors: violations}
	}

	handler, ok := s.Registry.Get(chainName)
	if !ok {
		return nil, &Error{Kind: KindUnknownChain, Message: "no handler registered for chain " + chainName}
	}

	family := s.Families[chainName] // zero value is FamilyEVM

	id, err := depositid.Derive(req.FundingTxHash, uint64(req.FundingOutputIndex), family)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "failed to derive deposit ID", Cause: err}
	}

	now := time.Now().UnixMilli()
	d := &store.Deposit{
		ID:            id,
		ChainName:     chainName,
		FundingTxHash: req.FundingTxHash,
		OutputIndex:   uint32(req.FundingOutputIndex),
		Owner:         req.L2DepositOwner,
		Receipt: store.DepositReceipt{
			Depositor:        req.Reveal.Depositor,
			BlindingFactor:   req.Reveal.BlindingFactor,
			WalletPubKeyHash: req.Reveal.WalletPubKeyHash,
			RefundPubKeyHash: req.Reveal.RefundPubKeyHash,
			RefundLocktime:   req.Reveal.RefundLocktime,
			ExtraData:        req.Reveal.ExtraData,
		},
		L1OutputEvent: store.L1OutputEvent{
			FundingTxHash:      req.FundingTxHash,
			FundingOutputIndex: uint32(req.FundingOutputIndex),
			L2DepositOwner:     req.L2DepositOwner,
			L2Sender:           req.L2Sender,
		},
		Status: store.DepositQueued,
		Dates:  store.DepositDates{CreatedAt: now, LastActivityAt: now},
	}
	d.Hashes.BTC.BTCTxHash = req.FundingTxHash

	if err := s.Deposits.Create(ctx, d); err != nil {
		if err == store.ErrAlreadyExists {
			s.Logger.Printf("warning: deposit %s already exists, reusing existing record", id)
			existing, getErr := s.Deposits.GetByID(ctx, id)
			if getErr != nil {
				return nil, &Error{Kind: KindStoreFailure, Message: "failed to load existing deposit", Cause: getErr}
			}
			d = existing
		} else {
			return nil, &Error{Kind: KindStoreFailure, Message: "failed to persist deposit", Cause: err}
		}
	} else {
		s.emitCreated(ctx, d)
	}

	receipt, err := handler.InitializeDeposit(ctx, d)
	if err != nil {
		if _, uerr := s.Engine.UpdateToInitialized(ctx, d, "", err.Error()); uerr != nil {
			s.Logger.Printf("failed to record initialization failure for deposit %s: %v", id, uerr)
		}
		return nil, &Error{Kind: KindHandlerFailure, Message: "initialization submission failed", Cause: err}
	}
	if receipt.Status == 0 {
		reason := "initialization transaction reverted"
		if _, uerr := s.Engine.UpdateToInitialized(ctx, d, "", reason); uerr != nil {
			s.Logger.Printf("failed to record initialization failure for deposit %s: %v", id, uerr)
		}
		return nil, &Error{Kind: KindHandlerFailure, Message: reason}
	}

	if _, err := s.Engine.UpdateToInitialized(ctx, d, receipt.TxHash, ""); err != nil {
		s.Logger.Printf("failed to persist INITIALIZED transition for deposit %s: %v", id, err)
	}

	return &RevealResult{DepositID: id, Receipt: receipt}, nil
}

// GetDepositStatus looks up a deposit's current status, scoped to the
// caller-supplied chain name (spec §4.9, §6.3).
func (s *Service) GetDepositStatus(ctx context.Context, chainName, depositID string) (store.DepositStatus, error) {
	if _, ok := s.Registry.Get(chainName); !ok {
		return "", &Error{Kind: KindUnknownChain, Message: "no handler registered for chain " + chainName}
	}

	d, err := s.Deposits.GetByID(ctx, depositID)
	if err != nil {
		if err == store.ErrNotFound {
			return "", &Error{Kind: KindNotFound, Message: "deposit not found"}
		}
		return "", &Error{Kind: KindStoreFailure, Message: "failed to load deposit", Cause: err}
	}
	if d.ChainName != chainName {
		return "", &Error{Kind: KindNotFound, Message: "deposit not found on chain " + chainName}
	}
	return d.Status, nil
}

func (s *Service) emitCreated(ctx context.Context, d *store.Deposit) {
	raw, err := json.Marshal(map[string]string{"fundingTxHash": d.FundingTxHash})
	if err != nil {
		raw = nil
	}
	event := &store.AuditEvent{
		Timestamp: time.Now().UnixMilli(),
		EventType: store.EventDepositCreated,
		DepositID: d.ID,
		ChainName: d.ChainName,
		Data:      json.RawMessage(raw),
	}
	if err := s.Audit.Append(ctx, event); err != nil {
		s.Logger.Printf("failed to append DEPOSIT_CREATED audit event for %s: %v", d.ID, err)
	}
}
