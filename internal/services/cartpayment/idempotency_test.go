package cartpayment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCreationKey(t *testing.T) {
	assert.Equal(t, "client-key", creationKey("client-key"))

	generated := creationKey("")
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	// Each call without a supplied key yields a fresh key.
	assert.NotEqual(t, generated, creationKey(""))
}

func TestDerivedKey(t *testing.T) {
	assert.Equal(t, "base-capture-0", derivedKey("base", opCapture, 0))
	assert.Equal(t, "base-cancel-0", derivedKey("base", opCancel, 0))
	assert.Equal(t, "base-adjust-2", derivedKey("base", opAdjust, 2))
	assert.Equal(t, "base-refund-1", derivedKey("base", opRefund, 1))
}
