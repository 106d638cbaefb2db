package capture

import (
	"testing"
	"time"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPriority(t *testing.T) {
	assert.Equal(t, DefaultFormatPriority, CaptureOptions{}.formatPriority())

	custom := []client.ShmFormat{client.ShmFormatBgr888}
	assert.Equal(t, custom, CaptureOptions{FormatPriority: custom}.formatPriority())
}

func TestDeadline(t *testing.T) {
	t.Run("zero options never expire", func(t *testing.T) {
		d := newDeadline(WaitOptions{})
		assert.NoError(t, d.exceeded(0))
		assert.NoError(t, d.exceeded(1<<20))
	})

	t.Run("dispatch budget", func(t *testing.T) {
		d := newDeadline(WaitOptions{MaxDispatches: 3})
		require.NoError(t, d.exceeded(0))
		require.NoError(t, d.exceeded(2))
		assert.ErrorIs(t, d.exceeded(3), ErrWaitTimeout)
	})

	t.Run("wall clock budget", func(t *testing.T) {
		d := newDeadline(WaitOptions{Timeout: time.Nanosecond})
		time.Sleep(time.Millisecond)
		assert.ErrorIs(t, d.exceeded(0), ErrWaitTimeout)

		d = newDeadline(WaitOptions{Timeout: time.Hour})
		assert.NoError(t, d.exceeded(0))
	})
}
