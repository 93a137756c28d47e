package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayWaitsFixedDuration(t *testing.T) {
	d := NewDelay(50 * time.Millisecond)

	start := time.Now()
	assert.NoError(t, d.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestDelayZero(t *testing.T) {
	d := NewDelay(0)
	start := time.Now()
	assert.NoError(t, d.Wait(context.Background()))
	assert.NoError(t, d.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Wait(cancelled), context.Canceled)
}

func TestDelayCancelled(t *testing.T) {
	d := NewDelay(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := d.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDelayJitterZeroIsFixed(t *testing.T) {
	d := NewDelay(10 * time.Millisecond).WithJitter(0)
	assert.Equal(t, 10*time.Millisecond, d.calculateDelay())
}

func TestDelayJitterBounds(t *testing.T) {
	d := NewDelay(10 * time.Millisecond).WithJitter(5 * time.Millisecond)
	for i := 0; i < 20; i++ {
		got := d.calculateDelay()
		assert.GreaterOrEqual(t, got, 10*time.Millisecond)
		assert.Less(t, got, 15*time.Millisecond)
	}
}
