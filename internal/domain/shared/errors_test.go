package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	sentinel := NewStateError("ALREADY_POSTED", "Voucher is already posted")

	t.Run("matches detailed copy by code", func(t *testing.T) {
		err := sentinel.WithMessage("Voucher JV-000001 is already POSTED")
		assert.True(t, errors.Is(err, sentinel))
		assert.Equal(t, "Voucher JV-000001 is already POSTED", err.Error())
		assert.Equal(t, CategoryState, err.Category)
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("post voucher: %w", sentinel)
		assert.True(t, errors.Is(err, sentinel))
	})

	t.Run("does not match other codes", func(t *testing.T) {
		assert.False(t, errors.Is(ErrInvalidInput, sentinel))
	})
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", NewPolicyError("PERIOD_CLOSED", "closed"))))
	assert.True(t, IsRetryable(errors.New("connection reset by peer")))
}
