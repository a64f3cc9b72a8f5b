package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelHierarchy(t *testing.T) {
	assert.ErrorIs(t, ErrWordNotFound, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("select next word: %w", ErrWordNotFound), ErrNotFound)
	assert.ErrorIs(t, ErrHolderBusy, ErrDuplicate)

	assert.NotErrorIs(t, ErrHolderBusy, ErrNotFound)
	assert.NotErrorIs(t, ErrWordNotFound, ErrDuplicate)
	assert.NotErrorIs(t, ErrInvalidEntity, ErrTransactionFailed)
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreError("reset", "update failed", cause)

	assert.Equal(t, "word store reset failed: update failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("reclaim", "nothing to do", nil)
	assert.Equal(t, "word store reclaim failed: nothing to do", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestStoreError_PreservesSentinels(t *testing.T) {
	err := NewStoreError("bulk load", "batch starting at sequence 0",
		fmt.Errorf("%w: words_seq_key", ErrDuplicate))

	assert.ErrorIs(t, err, ErrDuplicate)

	var se *StoreError
	assert.True(t, errors.As(fmt.Errorf("load: %w", err), &se))
	assert.Equal(t, "bulk load", se.Operation)
}
