package capture

import (
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland/client"

	"github.com/waygrab/waygrab/internal/protocols/xdgoutput"
	"github.com/waygrab/waygrab/internal/region"
)

// Output describes one display managed by the compositor. Identity and
// physical properties come from wl_output events; the logical region comes
// from the paired xdg-output object. The logical region is only valid once
// Connect has finished its bootstrap roundtrips.
type Output struct {
	wl  *client.Output
	xdg *xdgoutput.ZxdgOutputV1

	// ID is the wl_output protocol object id, stable for the connection
	// lifetime.
	ID uint32

	// Name is the compositor-assigned output name, e.g. "DP-1".
	Name string

	// Description is a human-readable description, e.g. the monitor model.
	Description string

	// PhysicalSize is the current mode size in hardware pixels, always in
	// pre-transform "landscape" orientation.
	PhysicalSize region.Size

	// LogicalRegion is the output's transform-normalized position and size
	// in the global compositor space.
	LogicalRegion region.LogicalRegion

	// Transform is the rotation/flip the compositor applies to the
	// output's content.
	Transform client.OutputTransform
}

func (o *Output) String() string {
	return fmt.Sprintf("%s (%s) %s", o.Name, o.Description, o.LogicalRegion)
}

// TransformName returns a human-readable name for an output transform.
func TransformName(t client.OutputTransform) string {
	switch t {
	case client.OutputTransformNormal:
		return "normal"
	case client.OutputTransform90:
		return "90"
	case client.OutputTransform180:
		return "180"
	case client.OutputTransform270:
		return "270"
	case client.OutputTransformFlipped:
		return "flipped"
	case client.OutputTransformFlipped90:
		return "flipped-90"
	case client.OutputTransformFlipped180:
		return "flipped-180"
	case client.OutputTransformFlipped270:
		return "flipped-270"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// Event application is split from the wire handlers so the registry logic
// stays testable without a compositor.

func (o *Output) applyName(name string)        { o.Name = name }
func (o *Output) applyDescription(desc string) { o.Description = desc }

func (o *Output) applyMode(width, height int32) {
	o.PhysicalSize = region.Size{Width: uint32(width), Height: uint32(height)}
}

func (o *Output) applyTransform(t client.OutputTransform) { o.Transform = t }

func (o *Output) applyLogicalPosition(x, y int32) {
	o.LogicalRegion.Position = region.Position{X: x, Y: y}
}

func (o *Output) applyLogicalSize(width, height int32) {
	o.LogicalRegion.Size = region.Size{Width: uint32(width), Height: uint32(height)}
}

// Outputs returns all registered outputs. Only outputs bound at or above
// the minimum wl_output version appear; their geometry is complete once
// Connect has returned.
func (c *Client) Outputs() []*Output {
	return c.outputs
}

// OutputByName resolves an output by its compositor-assigned name.
func (c *Client) OutputByName(name string) (*Output, error) {
	for _, out := range c.outputs {
		if out.Name == name {
			return out, nil
		}
	}
	return nil, fmt.Errorf("no output named %q", name)
}

// OutputsInRegion returns the outputs whose logical region overlaps the
// given region, in registry order.
func (c *Client) OutputsInRegion(reg region.LogicalRegion) []*Output {
	var overlapping []*Output
	for _, out := range c.outputs {
		if _, ok := reg.Intersect(out.LogicalRegion); ok {
			overlapping = append(overlapping, out)
		}
	}
	return overlapping
}

// handleOutputEvents wires wl_output events into the registry record. The
// record is bound to its handlers at bind time, so no identity lookup is
// needed per event.
func (c *Client) handleOutputEvents(out *Output) {
	out.wl.SetNameHandler(func(e client.OutputNameEvent) {
		out.applyName(e.Name)
	})
	out.wl.SetDescriptionHandler(func(e client.OutputDescriptionEvent) {
		out.applyDescription(e.Description)
	})
	out.wl.SetModeHandler(func(e client.OutputModeEvent) {
		out.applyMode(e.Width, e.Height)
	})
	out.wl.SetGeometryHandler(func(e client.OutputGeometryEvent) {
		out.applyTransform(client.OutputTransform(e.Transform))
	})
	out.wl.SetDoneHandler(func(client.OutputDoneEvent) {})
	out.wl.SetScaleHandler(func(client.OutputScaleEvent) {})
}

// bindXdgOutputs creates one xdg-output per registered output and routes
// its events back to the record by bind-time index. Events for an index
// that is out of range are logged and dropped.
func (c *Client) bindXdgOutputs() error {
	for index := range c.outputs {
		out := c.outputs[index]
		xdg, err := c.xdgOutputMgr.GetXdgOutput(out.wl)
		if err != nil {
			return fmt.Errorf("failed to create xdg output for %q: %w", out.Name, err)
		}
		out.xdg = xdg

		idx := index
		xdg.SetLogicalPositionHandler(func(e xdgoutput.ZxdgOutputV1LogicalPositionEvent) {
			if rec := c.outputAt(idx); rec != nil {
				rec.applyLogicalPosition(e.X, e.Y)
			}
		})
		xdg.SetLogicalSizeHandler(func(e xdgoutput.ZxdgOutputV1LogicalSizeEvent) {
			if rec := c.outputAt(idx); rec != nil {
				rec.applyLogicalSize(e.Width, e.Height)
			}
		})
		xdg.SetDoneHandler(func(xdgoutput.ZxdgOutputV1DoneEvent) {})
	}
	return nil
}

func (c *Client) outputAt(index int) *Output {
	if index < 0 || index >= len(c.outputs) {
		c.log.Error().Int("index", index).Msg("Received xdg-output event for an unregistered output")
		return nil
	}
	return c.outputs[index]
}
