package ryder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompletionFireOnceWins(t *testing.T) {
	c := newCompletion()
	c.fire("first", nil)
	c.fire("second", errors.New("should be ignored"))

	val, err, ok := c.Result()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "first", val)
}

func TestCompletionWaitBlocksUntilFire(t *testing.T) {
	c := newCompletion()
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.fire(42, nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	val, err := c.Wait(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestCompletionWaitRespectsContextCancellation(t *testing.T) {
	c := newCompletion()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolvedAndFailedHelpers(t *testing.T) {
	r := resolved("ok")
	val, err, ok := r.Result()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "ok", val)

	wantErr := errors.New("boom")
	f := failed(wantErr)
	_, err, ok = f.Result()
	assert.True(t, ok)
	assert.ErrorIs(t, err, wantErr)
}
