package capture

import (
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"golang.org/x/sys/unix"

	"github.com/waygrab/waygrab/internal/protocols/screencopy"
	"github.com/waygrab/waygrab/internal/region"
)

// CaptureState is the terminal outcome of a copy request. It transitions
// exactly once, from Pending to either Finished or Failed.
type CaptureState int

const (
	CapturePending CaptureState = iota
	CaptureFinished
	CaptureFailed
)

func (s CaptureState) String() string {
	switch s {
	case CapturePending:
		return "pending"
	case CaptureFinished:
		return "finished"
	case CaptureFailed:
		return "failed"
	default:
		return fmt.Sprintf("CaptureState(%d)", int(s))
	}
}

// FrameFormat is one buffer format the compositor advertised for a frame.
// The size is always in pre-transform "landscape" orientation; a portrait
// 1080x1920 output reports 1920x1080 and must be rotated by the consumer.
type FrameFormat struct {
	Format client.ShmFormat
	Size   region.Size
	Stride uint32
}

// ByteSize returns stride * height, the size of the backing buffer.
func (f FrameFormat) ByteSize() uint64 {
	return uint64(f.Stride) * uint64(f.Size.Height)
}

// Result is one successfully copied frame. Data stays mapped until Close
// is called; it is the caller's only handle on the shared memory.
type Result struct {
	Format        FrameFormat
	Data          []byte
	Transform     client.OutputTransform
	LogicalRegion region.LogicalRegion
	PhysicalSize  region.Size

	released bool
}

// Close unmaps the frame data. It is idempotent; Data must not be used
// afterwards.
func (r *Result) Close() error {
	if r.released || r.Data == nil {
		return nil
	}
	r.released = true
	data := r.Data
	r.Data = nil
	return unix.Munmap(data)
}

// session is the per-frame state machine. Its lifecycle is:
//
//	begin -> [buffer events] -> buffer_done -> allocateAndCopy ->
//	ready|failed -> finish
//
// release must run on every exit path; it destroys the compositor-side
// frame, buffer and pool objects exactly once and unmaps the shared memory
// unless finish handed it to a Result.
type session struct {
	client *Client
	output *Output
	opts   CaptureOptions

	frame      *screencopy.ZwlrScreencopyFrameV1
	formats    []FrameFormat
	bufferDone bool
	state      CaptureState

	pool   *client.ShmPool
	buffer *client.Buffer
	data   []byte

	dataClaimed bool
	released    bool
}

func (c *Client) newSession(output *Output, opts CaptureOptions) *session {
	return &session{client: c, output: output, opts: opts}
}

// begin sends the copy request and registers the event handlers that drive
// the state machine.
func (s *session) begin() error {
	cursor := int32(0)
	if s.opts.Cursor {
		cursor = 1
	}

	var (
		frame *screencopy.ZwlrScreencopyFrameV1
		err   error
	)
	if s.opts.Region != nil {
		local, ok := s.opts.Region.Intersect(s.output.LogicalRegion)
		if !ok {
			return fmt.Errorf("region %s does not overlap output %q", s.opts.Region, s.output.Name)
		}
		frame, err = s.client.screencopyMgr.CaptureOutputRegion(cursor, s.output.wl,
			local.Position.X-s.output.LogicalRegion.Position.X,
			local.Position.Y-s.output.LogicalRegion.Position.Y,
			int32(local.Size.Width), int32(local.Size.Height))
	} else {
		frame, err = s.client.screencopyMgr.CaptureOutput(cursor, s.output.wl)
	}
	if err != nil {
		return fmt.Errorf("failed to request frame copy: %w", err)
	}
	s.frame = frame

	frame.SetBufferHandler(func(e screencopy.ZwlrScreencopyFrameV1BufferEvent) {
		s.onBuffer(client.ShmFormat(e.Format), e.Width, e.Height, e.Stride)
	})
	frame.SetBufferDoneHandler(func(screencopy.ZwlrScreencopyFrameV1BufferDoneEvent) {
		s.onBufferDone()
	})
	frame.SetReadyHandler(func(screencopy.ZwlrScreencopyFrameV1ReadyEvent) {
		s.onReady()
	})
	frame.SetFailedHandler(func(screencopy.ZwlrScreencopyFrameV1FailedEvent) {
		s.onFailed()
	})
	frame.SetFlagsHandler(func(e screencopy.ZwlrScreencopyFrameV1FlagsEvent) {
		s.client.log.Debug().Uint32("flags", e.Flags).Msg("Frame flags")
	})
	frame.SetDamageHandler(func(screencopy.ZwlrScreencopyFrameV1DamageEvent) {})
	frame.SetLinuxDmabufHandler(func(e screencopy.ZwlrScreencopyFrameV1LinuxDmabufEvent) {
		s.client.log.Debug().Uint32("format", e.Format).Msg("Ignoring linux-dmabuf buffer offer")
	})
	return nil
}

// onBuffer records one advertised format. Candidates arriving after the
// negotiation-complete signal would violate the protocol; they are logged
// and dropped.
func (s *session) onBuffer(format client.ShmFormat, width, height, stride uint32) {
	if s.bufferDone {
		s.client.log.Error().Uint32("format", uint32(format)).Msg("Buffer event after buffer_done, ignoring")
		return
	}
	s.formats = append(s.formats, FrameFormat{
		Format: format,
		Size:   region.Size{Width: width, Height: height},
		Stride: stride,
	})
}

func (s *session) onBufferDone() { s.bufferDone = true }

func (s *session) onReady() { s.setState(CaptureFinished) }

func (s *session) onFailed() { s.setState(CaptureFailed) }

// setState enforces the single, monotonic Pending -> terminal transition.
func (s *session) setState(state CaptureState) {
	if s.state != CapturePending {
		s.client.log.Error().
			Stringer("state", s.state).
			Stringer("event", state).
			Msg("Ignoring state transition on terminal session")
		return
	}
	s.state = state
}

func (s *session) negotiated() bool { return s.bufferDone }

func (s *session) terminal() bool { return s.state != CapturePending }

// chooseFormat applies the configured priority policy over the advertised
// candidates. When no priority entry was advertised, the first advertised
// convertible format wins.
func (s *session) chooseFormat() (FrameFormat, error) {
	if len(s.formats) == 0 {
		return FrameFormat{}, fmt.Errorf("%w: compositor advertised no wl_shm formats", ErrNoSupportedBufferFormat)
	}
	for _, want := range s.opts.formatPriority() {
		for _, f := range s.formats {
			if f.Format == want {
				return f, nil
			}
		}
	}
	for _, f := range s.formats {
		if convertible(f.Format) {
			return f, nil
		}
	}
	return FrameFormat{}, fmt.Errorf("%w: advertised formats %v", ErrNoSupportedBufferFormat, s.advertised())
}

func (s *session) advertised() []client.ShmFormat {
	formats := make([]client.ShmFormat, len(s.formats))
	for i, f := range s.formats {
		formats[i] = f.Format
	}
	return formats
}

// allocateAndCopy backs the chosen format with anonymous shared memory,
// exposes it to the compositor as a wl_shm pool plus buffer, and issues the
// copy command.
func (s *session) allocateAndCopy(format FrameFormat) error {
	size := format.ByteSize()
	if size == 0 || size > 1<<31-1 {
		return fmt.Errorf("%w: implausible buffer size %d", ErrShm, size)
	}

	fd, err := createShmFile()
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return fmt.Errorf("%w: ftruncate: %v", ErrShm, err)
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("%w: mmap: %v", ErrShm, err)
	}
	s.data = data

	pool, err := s.client.shm.CreatePool(fd, int32(size))
	if err != nil {
		return fmt.Errorf("failed to create shm pool: %w", err)
	}
	s.pool = pool

	buffer, err := pool.CreateBuffer(0,
		int32(format.Size.Width), int32(format.Size.Height),
		int32(format.Stride), uint32(format.Format))
	if err != nil {
		return fmt.Errorf("failed to create buffer: %w", err)
	}
	s.buffer = buffer

	if err := s.frame.Copy(buffer); err != nil {
		return fmt.Errorf("failed to request copy: %w", err)
	}
	return nil
}

// finish resolves a terminal session. On success the mapped bytes move
// into the Result, which then owns the unmap.
func (s *session) finish(format FrameFormat) (*Result, error) {
	switch s.state {
	case CaptureFinished:
		if uint64(len(s.data)) < format.ByteSize() {
			return nil, fmt.Errorf("%w: have %d bytes, format needs %d", ErrBufferTooSmall, len(s.data), format.ByteSize())
		}
		s.dataClaimed = true
		return &Result{
			Format:        format,
			Data:          s.data,
			Transform:     s.output.Transform,
			LogicalRegion: s.output.LogicalRegion,
			PhysicalSize:  s.output.PhysicalSize,
		}, nil
	case CaptureFailed:
		return nil, fmt.Errorf("%w: output %q", ErrCompositorRejected, s.output.Name)
	default:
		return nil, fmt.Errorf("session for output %q still pending", s.output.Name)
	}
}

// release destroys the compositor-side objects and, unless a Result claimed
// it, the mapping. Safe to call on every exit path; only the first call
// does work.
func (s *session) release() {
	if s.released {
		return
	}
	s.released = true

	if s.buffer != nil {
		_ = s.buffer.Destroy()
	}
	if s.pool != nil {
		_ = s.pool.Destroy()
	}
	if s.frame != nil {
		_ = s.frame.Destroy()
	}
	if s.data != nil && !s.dataClaimed {
		_ = unix.Munmap(s.data)
		s.data = nil
	}
}

// CaptureOutput copies the current contents of one output into anonymous
// shared memory and returns the mapped frame. The caller owns the Result
// and must Close it.
func (c *Client) CaptureOutput(output *Output, opts CaptureOptions) (*Result, error) {
	s := c.newSession(output, opts)
	defer s.release()

	if err := s.begin(); err != nil {
		return nil, err
	}
	if err := c.dispatchUntil(s.negotiated, opts.Wait); err != nil {
		return nil, err
	}

	format, err := s.chooseFormat()
	if err != nil {
		return nil, err
	}
	c.log.Debug().
		Uint32("format", uint32(format.Format)).
		Uint32("width", format.Size.Width).
		Uint32("height", format.Size.Height).
		Uint32("stride", format.Stride).
		Str("output", output.Name).
		Msg("Negotiated buffer format")

	if err := s.allocateAndCopy(format); err != nil {
		return nil, err
	}
	if err := c.dispatchUntil(s.terminal, opts.Wait); err != nil {
		return nil, err
	}
	return s.finish(format)
}

// CaptureRegion captures the given global sub-region from every output it
// overlaps and returns one result per output, in registry order. Results
// already produced are closed when a later output fails.
func (c *Client) CaptureRegion(reg region.LogicalRegion, opts CaptureOptions) ([]*Result, []*Output, error) {
	outputs := c.OutputsInRegion(reg)
	if len(outputs) == 0 {
		return nil, nil, fmt.Errorf("region %s does not overlap any output", reg)
	}

	opts.Region = &reg
	results := make([]*Result, 0, len(outputs))
	for _, out := range outputs {
		res, err := c.CaptureOutput(out, opts)
		if err != nil {
			for _, r := range results {
				_ = r.Close()
			}
			return nil, nil, fmt.Errorf("failed to capture output %q: %w", out.Name, err)
		}
		results = append(results, res)
	}
	return results, outputs, nil
}
