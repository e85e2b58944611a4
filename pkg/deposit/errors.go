// Copyright 2025 Certen Protocol

package deposit

import "errors"

// ErrWrongSourceStatus is returned (and logged at debug, never surfaced to
// the caller) when an updater is invoked against a deposit that is not in
// the expected source status for that transition. Spec §7 classifies this
// as a "state precondition" failure: treated as a no-op, not an error that
// should propagate.
var ErrWrongSourceStatus = errors.New("deposit: transition attempted from unexpected source status")
