package capture

import (
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland/client"

	"github.com/waygrab/waygrab/internal/protocols/layershell"
)

// Overlay is a set of transparent, click-through layer-shell surfaces, one
// per target output. It anchors interactive region selection: the surfaces
// cover each output while an external selector runs. A surface is usable
// only once its configure sequence has been acknowledged; WaitConfigured
// drains events until every surface reached that point.
type Overlay struct {
	client     *Client
	surfaces   []*overlaySurface
	configured map[uint32]bool
	closed     bool
}

type overlaySurface struct {
	output  *Output
	surface *client.Surface
	layer   *layershell.ZwlrLayerSurfaceV1
}

// CreateOverlays builds one overlay surface per given output. It requires
// the optional wl_compositor and zwlr_layer_shell_v1 globals; compositors
// without them yield ErrMissingProtocol.
func (c *Client) CreateOverlays(outputs []*Output) (*Overlay, error) {
	if c.compositor == nil {
		return nil, fmt.Errorf("%w: wl_compositor", ErrMissingProtocol)
	}
	if c.layerShell == nil {
		return nil, fmt.Errorf("%w: zwlr_layer_shell_v1", ErrMissingProtocol)
	}

	ov := &Overlay{client: c, configured: make(map[uint32]bool)}
	for _, out := range outputs {
		if err := ov.addSurface(out); err != nil {
			ov.Close()
			return nil, err
		}
	}
	return ov, nil
}

func (ov *Overlay) addSurface(out *Output) error {
	c := ov.client

	surface, err := c.compositor.CreateSurface()
	if err != nil {
		return fmt.Errorf("failed to create surface for %q: %w", out.Name, err)
	}

	// An empty input region makes the surface click-through, so the
	// selector underneath still receives the pointer.
	input, err := c.compositor.CreateRegion()
	if err != nil {
		return fmt.Errorf("failed to create input region: %w", err)
	}
	if err := surface.SetInputRegion(input); err != nil {
		return fmt.Errorf("failed to set input region: %w", err)
	}
	_ = input.Destroy()

	layer, err := c.layerShell.GetLayerSurface(surface, out.wl,
		layershell.ZwlrLayerShellV1LayerOverlay, "waygrab")
	if err != nil {
		return fmt.Errorf("failed to create layer surface for %q: %w", out.Name, err)
	}

	outputID := out.ID
	layer.SetConfigureHandler(func(e layershell.ZwlrLayerSurfaceV1ConfigureEvent) {
		ov.markConfigured(outputID)
		if err := layer.AckConfigure(e.Serial); err != nil {
			c.log.Error().Err(err).Str("output", out.Name).Msg("Failed to ack configure")
		}
		if err := surface.Commit(); err != nil {
			c.log.Error().Err(err).Str("output", out.Name).Msg("Failed to commit surface")
		}
	})
	layer.SetClosedHandler(func(layershell.ZwlrLayerSurfaceV1ClosedEvent) {
		c.log.Debug().Str("output", out.Name).Msg("Layer surface closed")
		ov.markClosed(outputID)
	})

	if err := layer.SetAnchor(layershell.ZwlrLayerSurfaceV1AnchorTop |
		layershell.ZwlrLayerSurfaceV1AnchorBottom |
		layershell.ZwlrLayerSurfaceV1AnchorLeft |
		layershell.ZwlrLayerSurfaceV1AnchorRight); err != nil {
		return fmt.Errorf("failed to anchor layer surface: %w", err)
	}
	if err := layer.SetExclusiveZone(-1); err != nil {
		return fmt.Errorf("failed to set exclusive zone: %w", err)
	}
	if err := layer.SetKeyboardInteractivity(layershell.ZwlrLayerSurfaceV1KeyboardInteractivityNone); err != nil {
		return fmt.Errorf("failed to set keyboard interactivity: %w", err)
	}
	if err := layer.SetSize(out.LogicalRegion.Size.Width, out.LogicalRegion.Size.Height); err != nil {
		return fmt.Errorf("failed to size layer surface: %w", err)
	}
	if err := surface.Commit(); err != nil {
		return fmt.Errorf("failed to commit surface: %w", err)
	}

	ov.surfaces = append(ov.surfaces, &overlaySurface{output: out, surface: surface, layer: layer})
	return nil
}

// Bookkeeping is split from the wire handlers so the configured set stays
// testable without a compositor.

func (ov *Overlay) markConfigured(outputID uint32) { ov.configured[outputID] = true }

// markClosed drops the output from the configured set: a closed surface
// must not satisfy WaitConfigured.
func (ov *Overlay) markClosed(outputID uint32) { delete(ov.configured, outputID) }

func (ov *Overlay) allConfigured() bool {
	for _, s := range ov.surfaces {
		if !ov.configured[s.output.ID] {
			return false
		}
	}
	return true
}

// Configured reports whether the surface on the given output has
// acknowledged its configure sequence.
func (ov *Overlay) Configured(out *Output) bool {
	return ov.configured[out.ID]
}

// WaitConfigured drains events until every overlay surface is configured,
// bounded by wait.
func (ov *Overlay) WaitConfigured(wait WaitOptions) error {
	return ov.client.dispatchUntil(ov.allConfigured, wait)
}

// Close destroys all overlay surfaces. It is idempotent.
func (ov *Overlay) Close() {
	if ov.closed {
		return
	}
	ov.closed = true
	for _, s := range ov.surfaces {
		_ = s.layer.Destroy()
		_ = s.surface.Destroy()
	}
	ov.surfaces = nil
	ov.configured = map[uint32]bool{}
}
