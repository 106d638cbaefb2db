// Package capture drives the wlr-screencopy pipeline: it connects to the
// compositor, tracks outputs and their geometry, negotiates shared-memory
// buffers and copies output contents into them.
//
// Everything runs on a single cooperative event queue. The caller's
// goroutine drains events; handlers mutate client and session state without
// locking because nothing else touches it.
package capture

import (
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/rs/zerolog"

	"github.com/waygrab/waygrab/internal/logger"
	"github.com/waygrab/waygrab/internal/protocols/layershell"
	"github.com/waygrab/waygrab/internal/protocols/screencopy"
	"github.com/waygrab/waygrab/internal/protocols/xdgoutput"
)

// Protocol versions bound at the registry.
const (
	outputVersion            = 4 // wl_output: need name/description events
	screencopyManagerVersion = 3 // zwlr_screencopy_manager_v1: need buffer_done
	xdgOutputManagerVersion  = 3
	compositorVersion        = 4
	layerShellVersion        = 1
)

// Client owns a Wayland connection and the objects bound from its registry.
// It is not safe for concurrent use; all methods must run on one goroutine.
type Client struct {
	display  *client.Display
	ctx      *client.Context
	registry *client.Registry

	shm           *client.Shm
	compositor    *client.Compositor
	screencopyMgr *screencopy.ZwlrScreencopyManagerV1
	xdgOutputMgr  *xdgoutput.ZxdgOutputManagerV1
	layerShell    *layershell.ZwlrLayerShellV1

	outputs []*Output

	log    zerolog.Logger
	closed bool
}

// Connect establishes a connection to the Wayland display (the default one
// when name is empty), binds the required globals and performs the
// bootstrap roundtrips that populate the output registry. The returned
// client must be released with Close.
func Connect(name string, wait WaitOptions) (*Client, error) {
	display, err := client.Connect(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	c := &Client{
		display: display,
		ctx:     display.Context(),
		log:     *logger.WithComponent("capture"),
	}

	registry, err := display.GetRegistry()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to get registry: %w", err)
	}
	c.registry = registry
	registry.SetGlobalHandler(c.handleGlobal)
	registry.SetGlobalRemoveHandler(func(e client.RegistryGlobalRemoveEvent) {
		c.log.Debug().Uint32("name", e.Name).Msg("Global removed")
	})

	// First drain delivers the globals, the second the wl_output and
	// xdg-output event streams for the outputs bound during the first.
	if err := c.RoundTrip(wait); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.checkRequiredGlobals(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.bindXdgOutputs(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.RoundTrip(wait); err != nil {
		c.Close()
		return nil, err
	}

	c.log.Debug().Int("outputs", len(c.outputs)).Msg("Connected to compositor")
	return c, nil
}

// handleGlobal binds the globals this library uses. Unknown interfaces are
// ignored so newer compositors keep working.
func (c *Client) handleGlobal(e client.RegistryGlobalEvent) {
	switch e.Interface {
	case "wl_output":
		if e.Version < outputVersion {
			c.log.Warn().
				Str("interface", e.Interface).
				Uint32("version", e.Version).
				Msgf("Ignoring wl_output below version %d", outputVersion)
			return
		}
		output := client.NewOutput(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, outputVersion, output); err != nil {
			c.log.Error().Err(err).Msg("Failed to bind wl_output")
			return
		}
		rec := &Output{wl: output, ID: output.ID()}
		c.outputs = append(c.outputs, rec)
		c.handleOutputEvents(rec)
	case "wl_shm":
		shm := client.NewShm(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, 1, shm); err != nil {
			c.log.Error().Err(err).Msg("Failed to bind wl_shm")
			return
		}
		c.shm = shm
	case "wl_compositor":
		compositor := client.NewCompositor(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minVersion(e.Version, compositorVersion), compositor); err != nil {
			c.log.Error().Err(err).Msg("Failed to bind wl_compositor")
			return
		}
		c.compositor = compositor
	case "zwlr_screencopy_manager_v1":
		mgr := screencopy.NewZwlrScreencopyManagerV1(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minVersion(e.Version, screencopyManagerVersion), mgr); err != nil {
			c.log.Error().Err(err).Msg("Failed to bind zwlr_screencopy_manager_v1")
			return
		}
		c.screencopyMgr = mgr
	case "zxdg_output_manager_v1":
		mgr := xdgoutput.NewZxdgOutputManagerV1(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, minVersion(e.Version, xdgOutputManagerVersion), mgr); err != nil {
			c.log.Error().Err(err).Msg("Failed to bind zxdg_output_manager_v1")
			return
		}
		c.xdgOutputMgr = mgr
	case "zwlr_layer_shell_v1":
		shell := layershell.NewZwlrLayerShellV1(c.ctx)
		if err := c.registry.Bind(e.Name, e.Interface, layerShellVersion, shell); err != nil {
			c.log.Error().Err(err).Msg("Failed to bind zwlr_layer_shell_v1")
			return
		}
		c.layerShell = shell
	}
}

func (c *Client) checkRequiredGlobals() error {
	required := []struct {
		name  string
		bound bool
	}{
		{"wl_shm", c.shm != nil},
		{"zwlr_screencopy_manager_v1", c.screencopyMgr != nil},
		{"zxdg_output_manager_v1", c.xdgOutputMgr != nil},
	}
	for _, g := range required {
		if !g.bound {
			return fmt.Errorf("%w: %s", ErrMissingProtocol, g.name)
		}
	}
	return nil
}

// RoundTrip issues a wl_display.sync and drains events until its callback
// fires, bounded by wait.
func (c *Client) RoundTrip(wait WaitOptions) error {
	callback, err := c.display.Sync()
	if err != nil {
		return fmt.Errorf("failed to sync display: %w", err)
	}
	done := false
	callback.SetDoneHandler(func(client.CallbackDoneEvent) {
		done = true
	})
	return c.dispatchUntil(func() bool { return done }, wait)
}

// dispatchUntil drains the event queue until cond holds. Each iteration
// performs one blocking dispatch; the budget in wait is checked between
// iterations, so cancellation is cooperative.
func (c *Client) dispatchUntil(cond func() bool, wait WaitOptions) error {
	deadline := newDeadline(wait)
	for n := 0; !cond(); n++ {
		if err := deadline.exceeded(n); err != nil {
			return err
		}
		if err := c.ctx.Dispatch(); err != nil {
			return fmt.Errorf("%w: dispatch: %v", ErrConnection, err)
		}
	}
	return nil
}

// Close releases all compositor-side objects bound by this client. It is
// idempotent.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	for _, out := range c.outputs {
		if out.xdg != nil {
			_ = out.xdg.Destroy()
		}
		_ = out.wl.Release()
	}
	if c.layerShell != nil {
		_ = c.layerShell.Destroy()
	}
	if c.xdgOutputMgr != nil {
		_ = c.xdgOutputMgr.Destroy()
	}
	if c.screencopyMgr != nil {
		_ = c.screencopyMgr.Destroy()
	}
	if err := c.ctx.Close(); err != nil {
		c.log.Debug().Err(err).Msg("Error closing wayland connection")
	}
}

func minVersion(advertised, supported uint32) uint32 {
	if advertised < supported {
		return advertised
	}
	return supported
}
