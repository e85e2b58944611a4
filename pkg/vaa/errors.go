// Copyright 2025 Certen Protocol

package vaa

import "fmt"

// FailureClass enumerates the classified VAA verification failures of
// spec §4.5. The redemption scheduler (pkg/scheduler) uses Class as the
// label of its VAA result metric; whether a redemption stays PENDING or
// moves to VAA_FAILED depends only on its attempt count, not on Class.
type FailureClass string

const (
	ClassL2ReceiptMissing       FailureClass = "L2_RECEIPT_MISSING"
	ClassL2TxReverted           FailureClass = "L2_TX_REVERTED"
	ClassNoWormholeMessages     FailureClass = "NO_WORMHOLE_MESSAGES"
	ClassNoMatchingEmitter      FailureClass = "NO_MATCHING_EMITTER"
	ClassVAANotFound            FailureClass = "VAA_NOT_FOUND"
	ClassVAAEmitterMismatch     FailureClass = "VAA_EMITTER_MISMATCH"
	ClassVAAProtocolMismatch    FailureClass = "VAA_PROTOCOL_MISMATCH"
	ClassVAAPayloadMismatch     FailureClass = "VAA_PAYLOAD_MISMATCH"
	ClassVAATransferNotComplete FailureClass = "VAA_TRANSFER_NOT_COMPLETED"
	ClassL1CompletionCheckError FailureClass = "L1_COMPLETION_CHECK_ERROR"
	ClassVAABytesMissing        FailureClass = "VAA_BYTES_MISSING"
)

// Failure is the classified error returned by Service.FetchAndVerify. It
// implements error so callers that only care "did this succeed" can treat
// it uniformly, while callers that need the classification (the redemption
// scheduler's result metric) can type-assert for it.
type Failure struct {
	Class   FailureClass
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Class, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Class, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

func fail(class FailureClass, cause error, format string, args ...interface{}) *Failure {
	return &Failure{Class: class, Message: fmt.Sprintf(format, args...), Cause: cause}
}
