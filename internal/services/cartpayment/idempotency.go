package cartpayment

import (
	"fmt"

	"github.com/google/uuid"
)

// Operation kinds carried in derived idempotency keys.
const (
	opCapture = "capture"
	opCancel  = "cancel"
	opAdjust  = "adjust"
	opRefund  = "refund"
)

// creationKey returns the caller's key, or generates one. The generated key
// is persisted on the intent so later operations can derive from it; it is
// never regenerated.
func creationKey(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return uuid.NewString()
}

// derivedKey builds the gateway idempotency key for a follow-up operation on
// an intent. The sequence is the count of prior operations of the same kind
// against the intent, so a replay of the same logical operation reproduces
// the same key and the gateway deduplicates it.
func derivedKey(base, operation string, sequence int64) string {
	return fmt.Sprintf("%s-%s-%d", base, operation, sequence)
}
