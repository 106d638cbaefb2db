package capture

import (
	"testing"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOverlay(outputs ...*Output) *Overlay {
	ov := &Overlay{
		client:     &Client{log: zerolog.Nop()},
		configured: make(map[uint32]bool),
	}
	for _, out := range outputs {
		ov.surfaces = append(ov.surfaces, &overlaySurface{output: out})
	}
	return ov
}

func TestOverlayConfiguredTracking(t *testing.T) {
	a := &Output{ID: 10, Name: "eDP-1"}
	b := &Output{ID: 11, Name: "DP-1"}

	t.Run("configure marks one output at a time", func(t *testing.T) {
		ov := testOverlay(a, b)
		assert.False(t, ov.allConfigured())

		ov.markConfigured(a.ID)
		assert.True(t, ov.Configured(a))
		assert.False(t, ov.Configured(b))
		assert.False(t, ov.allConfigured())

		ov.markConfigured(b.ID)
		assert.True(t, ov.allConfigured())
	})

	t.Run("a closed surface is no longer configured", func(t *testing.T) {
		ov := testOverlay(a, b)
		ov.markConfigured(a.ID)
		ov.markConfigured(b.ID)
		require.True(t, ov.allConfigured())

		ov.markClosed(b.ID)
		assert.True(t, ov.Configured(a))
		assert.False(t, ov.Configured(b))
		assert.False(t, ov.allConfigured())
	})

	t.Run("wait returns once every surface is configured", func(t *testing.T) {
		ov := testOverlay(a)
		ov.markConfigured(a.ID)
		assert.NoError(t, ov.WaitConfigured(WaitOptions{MaxDispatches: 1}))
	})
}

func TestOverlayClose(t *testing.T) {
	ov := testOverlay()
	ov.markConfigured(10)

	ov.Close()
	assert.True(t, ov.closed)
	assert.Empty(t, ov.configured)
	assert.Empty(t, ov.surfaces)

	// Second call must be a no-op.
	ov.Close()
	assert.True(t, ov.closed)
}

func TestCreateOverlaysRequiresGlobals(t *testing.T) {
	t.Run("missing compositor", func(t *testing.T) {
		c := &Client{log: zerolog.Nop()}
		_, err := c.CreateOverlays(nil)
		assert.ErrorIs(t, err, ErrMissingProtocol)
	})

	t.Run("missing layer shell", func(t *testing.T) {
		c := &Client{log: zerolog.Nop(), compositor: &client.Compositor{}}
		_, err := c.CreateOverlays(nil)
		assert.ErrorIs(t, err, ErrMissingProtocol)
	})
}
