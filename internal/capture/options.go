package capture

import (
	"fmt"
	"time"

	"github.com/rajveermalviya/go-wayland/wayland/client"

	"github.com/waygrab/waygrab/internal/region"
)

// WaitOptions bounds a cooperative dispatch loop. Zero values mean
// unbounded: the loop drains events until the awaited state is observed or
// the connection fails. A non-responsive compositor then stalls the caller,
// so bounded-latency callers should set at least one of the two limits.
type WaitOptions struct {
	// Timeout is the wall-clock budget for the whole wait. It is checked
	// between dispatches; a single blocking read is not interrupted.
	Timeout time.Duration

	// MaxDispatches caps the number of dispatch iterations.
	MaxDispatches int
}

// DefaultFormatPriority orders buffer formats by conversion cost: identity
// copies first, byte swaps second, 10-bit unpacking last. Capture picks the
// first advertised format found in this list.
var DefaultFormatPriority = []client.ShmFormat{
	client.ShmFormatXbgr8888,
	client.ShmFormatAbgr8888,
	client.ShmFormatXrgb8888,
	client.ShmFormatArgb8888,
	client.ShmFormatBgr888,
	client.ShmFormatXbgr2101010,
	client.ShmFormatAbgr2101010,
}

// CaptureOptions controls a single frame capture session.
type CaptureOptions struct {
	// Cursor composites the cursor onto the frame.
	Cursor bool

	// Region restricts the capture to a sub-region in global logical
	// coordinates. It is intersected against the target output's logical
	// region; the intersection is translated to output-local coordinates.
	Region *region.LogicalRegion

	// FormatPriority overrides DefaultFormatPriority. A format is only
	// ever chosen if the compositor advertised it for this frame.
	FormatPriority []client.ShmFormat

	// Wait bounds the negotiation and copy-completion drain loops.
	Wait WaitOptions
}

func (o CaptureOptions) formatPriority() []client.ShmFormat {
	if len(o.FormatPriority) > 0 {
		return o.FormatPriority
	}
	return DefaultFormatPriority
}

// deadline tracks the budget of one dispatch loop.
type deadline struct {
	wait  WaitOptions
	until time.Time
}

func newDeadline(w WaitOptions) deadline {
	d := deadline{wait: w}
	if w.Timeout > 0 {
		d.until = time.Now().Add(w.Timeout)
	}
	return d
}

func (d deadline) exceeded(iteration int) error {
	if d.wait.MaxDispatches > 0 && iteration >= d.wait.MaxDispatches {
		return fmt.Errorf("%w after %d dispatches", ErrWaitTimeout, iteration)
	}
	if !d.until.IsZero() && time.Now().After(d.until) {
		return fmt.Errorf("%w after %s", ErrWaitTimeout, d.wait.Timeout)
	}
	return nil
}
