package capture

import "errors"

// Sentinel errors returned by the capture pipeline. Callers match them with
// errors.Is; the wrapped message carries the context.
var (
	// ErrConnection indicates the Wayland socket could not be reached.
	ErrConnection = errors.New("cannot connect to the wayland display")

	// ErrMissingProtocol indicates the compositor does not advertise a
	// protocol this library depends on.
	ErrMissingProtocol = errors.New("compositor is missing a required protocol")

	// ErrNoSupportedBufferFormat indicates no advertised buffer format can
	// be converted to RGBA.
	ErrNoSupportedBufferFormat = errors.New("no supported buffer format")

	// ErrShm indicates anonymous shared memory could not be created, sized
	// or mapped after exhausting the bounded retry policy.
	ErrShm = errors.New("shared memory allocation failed")

	// ErrCompositorRejected indicates the compositor answered a copy
	// request with a failed event.
	ErrCompositorRejected = errors.New("compositor rejected the copy request")

	// ErrBufferTooSmall indicates a mapped buffer holds fewer bytes than
	// its declared dimensions require.
	ErrBufferTooSmall = errors.New("buffer smaller than declared dimensions")

	// ErrInvalidPixelData indicates pixel data whose length is not a whole
	// number of 4-byte pixels.
	ErrInvalidPixelData = errors.New("pixel data is not a multiple of 4 bytes")

	// ErrWaitTimeout indicates a bounded dispatch loop ran out of budget
	// before the awaited event arrived.
	ErrWaitTimeout = errors.New("dispatch budget exhausted")
)
