package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithTimeoutReturnsResult(t *testing.T) {
	err := runWithTimeout(time.Second, func() error { return nil })
	assert.NoError(t, err)

	boom := errors.New("smtp unavailable")
	err = runWithTimeout(time.Second, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunWithTimeoutExpires(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	err := runWithTimeout(10*time.Millisecond, func() error {
		<-block
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunWithTimeoutZeroRunsInline(t *testing.T) {
	ran := false
	err := runWithTimeout(0, func() error {
		ran = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, ran)
}
