// Copyright 2025 Certen Protocol

package redemption

import "errors"

// ErrWrongSourceStatus is returned when an updater is invoked against a
// redemption that is not in the expected source status. Treated as a no-op
// by callers, logged at debug (spec §7: "state precondition" failure).
var ErrWrongSourceStatus = errors.New("redemption: transition attempted from unexpected source status")
