package capture

import (
	"testing"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waygrab/waygrab/internal/region"
)

func TestOutputEventApplication(t *testing.T) {
	out := &Output{}
	out.applyName("DP-1")
	out.applyDescription("Dell U2720Q")
	out.applyMode(3840, 2160)
	out.applyTransform(client.OutputTransform270)
	out.applyLogicalPosition(1920, 0)
	out.applyLogicalSize(1080, 1920)

	assert.Equal(t, "DP-1", out.Name)
	assert.Equal(t, "Dell U2720Q", out.Description)
	assert.Equal(t, region.Size{Width: 3840, Height: 2160}, out.PhysicalSize)
	assert.Equal(t, client.OutputTransform270, out.Transform)
	assert.Equal(t, region.LogicalRegion{
		Position: region.Position{X: 1920, Y: 0},
		Size:     region.Size{Width: 1080, Height: 1920},
	}, out.LogicalRegion)
	assert.Equal(t, "DP-1 (Dell U2720Q) 1920,0 1080x1920", out.String())
}

func TestOutputLookup(t *testing.T) {
	c := &Client{log: zerolog.Nop(), outputs: []*Output{
		{Name: "eDP-1", LogicalRegion: region.LogicalRegion{
			Size: region.Size{Width: 1920, Height: 1080},
		}},
		{Name: "DP-1", LogicalRegion: region.LogicalRegion{
			Position: region.Position{X: 1920},
			Size:     region.Size{Width: 2560, Height: 1440},
		}},
	}}

	t.Run("by name", func(t *testing.T) {
		out, err := c.OutputByName("DP-1")
		require.NoError(t, err)
		assert.Equal(t, "DP-1", out.Name)

		_, err = c.OutputByName("HDMI-A-1")
		assert.Error(t, err)
	})

	t.Run("by region overlap", func(t *testing.T) {
		both := c.OutputsInRegion(region.LogicalRegion{
			Position: region.Position{X: 1900},
			Size:     region.Size{Width: 100, Height: 100},
		})
		require.Len(t, both, 2)
		assert.Equal(t, "eDP-1", both[0].Name)
		assert.Equal(t, "DP-1", both[1].Name)

		one := c.OutputsInRegion(region.LogicalRegion{
			Position: region.Position{X: 2000},
			Size:     region.Size{Width: 10, Height: 10},
		})
		require.Len(t, one, 1)
		assert.Equal(t, "DP-1", one[0].Name)

		none := c.OutputsInRegion(region.LogicalRegion{
			Position: region.Position{X: 10000},
			Size:     region.Size{Width: 1, Height: 1},
		})
		assert.Empty(t, none)
	})
}

func TestOutputAt(t *testing.T) {
	c := &Client{log: zerolog.Nop(), outputs: []*Output{{Name: "eDP-1"}}}
	assert.NotNil(t, c.outputAt(0))
	assert.Nil(t, c.outputAt(1))
	assert.Nil(t, c.outputAt(-1))
}

func TestHandleGlobalSkipsOldOutputs(t *testing.T) {
	// wl_output below version 4 lacks the name event, so the global must be
	// skipped rather than bound with unusable identity.
	c := &Client{log: zerolog.Nop()}
	c.handleGlobal(client.RegistryGlobalEvent{Name: 7, Interface: "wl_output", Version: 3})
	assert.Empty(t, c.outputs)
}

func TestTransformName(t *testing.T) {
	assert.Equal(t, "normal", TransformName(client.OutputTransformNormal))
	assert.Equal(t, "flipped-270", TransformName(client.OutputTransformFlipped270))
	assert.Equal(t, "unknown(99)", TransformName(client.OutputTransform(99)))
}
