// Copyright 2025 Certen Protocol

package vaa

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"
)

const deadAddr = "0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead"
const ffffAddr = "0xffffffffffffffffffffffffffffffffffffffff"

type fakeL2 struct {
	receipt *Receipt
	err     error
}

func (f *fakeL2) TransactionReceipt(ctx context.Context, l2TxHash string) (*Receipt, error) {
	return f.receipt, f.err
}

type fakeEmitterContext struct {
	messages []WormholeMessage
	parseErr error
}

func (f *fakeEmitterContext) ParseTransaction(ctx context.Context, receipt *Receipt) ([]WormholeMessage, error) {
	return f.messages, f.parseErr
}

func (f *fakeEmitterContext) GetTokenBridge(ctx context.Context) (TokenBridge, error) {
	return nil, nil
}

type fakeL1Context struct {
	bridge    TokenBridge
	bridgeErr error
}

func (f *fakeL1Context) ParseTransaction(ctx context.Context, receipt *Receipt) ([]WormholeMessage, error) {
	return nil, nil
}

func (f *fakeL1Context) GetTokenBridge(ctx context.Context) (TokenBridge, error) {
	return f.bridge, f.bridgeErr
}

type fakeTokenBridge struct {
	completed bool
	err       error
}

func (f *fakeTokenBridge) IsTransferCompleted(ctx context.Context, v *VAA) (bool, error) {
	return f.completed, f.err
}

type fakeVAASource struct {
	calls     []Discriminator
	responses map[Discriminator]*VAA
}

func (f *fakeVAASource) GetVaa(ctx context.Context, id MessageID, d Discriminator, timeout time.Duration) (*VAA, error) {
	f.calls = append(f.calls, d)
	return f.responses[d], nil
}

func newTestService(l2 *fakeL2, emitter *fakeEmitterContext, source *fakeVAASource, l1 *fakeL1Context) (*Service, *bytes.Buffer) {
	var buf bytes.Buffer
	svc := NewService(l2, emitter, source, l1)
	svc.Logger = log.New(&buf, "[VAAService] ", 0)
	return svc, &buf
}

func TestFetchAndVerifyHappyPath(t *testing.T) {
	l2 := &fakeL2{receipt: &Receipt{TxHash: "0xl2", Status: 1}}
	emitterUA, err := EVMAddressToUniversal(deadAddr)
	if err != nil {
		t.Fatalf("EVMAddressToUniversal: %v", err)
	}
	emitter := &fakeEmitterContext{messages: []WormholeMessage{
		{ChainID: ChainIDEthereum, Emitter: emitterUA, Sequence: 123},
	}}
	v := &VAA{
		EmitterChain:     ChainIDEthereum,
		EmitterAddress:   emitterUA,
		Sequence:         123,
		ProtocolName:     "TokenBridge",
		PayloadName:      "TransferWithPayload",
		ConsistencyLevel: 1,
		Bytes:            []byte{11, 22, 33, 44, 55},
	}
	source := &fakeVAASource{responses: map[Discriminator]*VAA{
		DiscriminatorTransferWithPayload: v,
	}}
	l1 := &fakeL1Context{bridge: &fakeTokenBridge{completed: true}}

	svc, _ := newTestService(l2, emitter, source, l1)
	result, err := svc.FetchAndVerify(context.Background(), "0xl2", ChainIDEthereum, deadAddr, ChainIDArbitrum)
	if err != nil {
		t.Fatalf("FetchAndVerify returned error: %v", err)
	}
	if !bytes.Equal(result.VAABytes, []byte{11, 22, 33, 44, 55}) {
		t.Fatalf("unexpected vaa bytes: %v", result.VAABytes)
	}
	if result.Parsed != v {
		t.Fatalf("expected returned parsed VAA to be the same instance")
	}
}

func TestFetchAndVerifyVAANotFound(t *testing.T) {
	l2 := &fakeL2{receipt: &Receipt{TxHash: "0xl2", Status: 1}}
	emitterUA, _ := EVMAddressToUniversal(deadAddr)
	emitter := &fakeEmitterContext{messages: []WormholeMessage{
		{ChainID: ChainIDEthereum, Emitter: emitterUA, Sequence: 123},
	}}
	source := &fakeVAASource{responses: map[Discriminator]*VAA{}}
	l1 := &fakeL1Context{bridge: &fakeTokenBridge{completed: true}}

	svc, buf := newTestService(l2, emitter, source, l1)
	result, err := svc.FetchAndVerify(context.Background(), "0xl2", ChainIDEthereum, deadAddr, 0)
	if err == nil || result != nil {
		t.Fatalf("expected nil result and an error, got result=%v err=%v", result, err)
	}
	if len(source.calls) != 2 {
		t.Fatalf("expected exactly 2 getVaa invocations, got %d: %v", len(source.calls), source.calls)
	}
	if !strings.Contains(buf.String(), "did not return a VAA for message ID") {
		t.Fatalf("expected log to mention VAA not found, got: %s", buf.String())
	}
}

func TestFetchAndVerifyEmitterMismatch(t *testing.T) {
	l2 := &fakeL2{receipt: &Receipt{TxHash: "0xl2", Status: 1}}
	otherUA, _ := EVMAddressToUniversal(ffffAddr)
	emitter := &fakeEmitterContext{messages: []WormholeMessage{
		{ChainID: ChainIDEthereum, Emitter: otherUA, Sequence: 123},
	}}
	source := &fakeVAASource{responses: map[Discriminator]*VAA{}}
	l1 := &fakeL1Context{bridge: &fakeTokenBridge{completed: true}}

	svc, buf := newTestService(l2, emitter, source, l1)
	result, err := svc.FetchAndVerify(context.Background(), "0xl2", ChainIDEthereum, deadAddr, 0)
	if err == nil || result != nil {
		t.Fatalf("expected nil result and an error, got result=%v err=%v", result, err)
	}
	if len(source.calls) != 0 {
		t.Fatalf("expected getVaa to never be called, got %d calls", len(source.calls))
	}
	if !strings.Contains(buf.String(), "Relevant Wormhole message not found") {
		t.Fatalf("expected log to mention no matching emitter, got: %s", buf.String())
	}
}
