package capture

import (
	"testing"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waygrab/waygrab/internal/region"
)

func testSession(opts CaptureOptions) *session {
	c := &Client{log: zerolog.Nop()}
	return c.newSession(&Output{Name: "eDP-1"}, opts)
}

func TestSessionNegotiation(t *testing.T) {
	t.Run("records advertised formats until buffer_done", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		assert.False(t, s.negotiated())

		s.onBuffer(client.ShmFormatXrgb8888, 1920, 1080, 7680)
		s.onBuffer(client.ShmFormatXbgr2101010, 1920, 1080, 7680)
		assert.False(t, s.negotiated())

		s.onBufferDone()
		assert.True(t, s.negotiated())
		require.Len(t, s.formats, 2)
		assert.Equal(t, client.ShmFormatXrgb8888, s.formats[0].Format)
		assert.Equal(t, region.Size{Width: 1920, Height: 1080}, s.formats[0].Size)
	})

	t.Run("drops buffer events after buffer_done", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.onBuffer(client.ShmFormatXrgb8888, 1920, 1080, 7680)
		s.onBufferDone()
		s.onBuffer(client.ShmFormatXbgr8888, 1920, 1080, 7680)
		assert.Len(t, s.formats, 1)
	})
}

func TestSessionState(t *testing.T) {
	t.Run("ready resolves to finished", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		assert.False(t, s.terminal())
		s.onReady()
		assert.True(t, s.terminal())
		assert.Equal(t, CaptureFinished, s.state)
	})

	t.Run("failed resolves to failed", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.onFailed()
		assert.Equal(t, CaptureFailed, s.state)
	})

	t.Run("terminal state is sticky", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.onReady()
		s.onFailed()
		assert.Equal(t, CaptureFinished, s.state)

		s = testSession(CaptureOptions{})
		s.onFailed()
		s.onReady()
		assert.Equal(t, CaptureFailed, s.state)
	})

	t.Run("states print by name", func(t *testing.T) {
		assert.Equal(t, "pending", CapturePending.String())
		assert.Equal(t, "finished", CaptureFinished.String())
		assert.Equal(t, "failed", CaptureFailed.String())
	})
}

func TestChooseFormat(t *testing.T) {
	advertise := func(s *session, formats ...client.ShmFormat) {
		for _, f := range formats {
			s.onBuffer(f, 1920, 1080, 7680)
		}
		s.onBufferDone()
	}

	t.Run("no candidates is an error", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.onBufferDone()
		_, err := s.chooseFormat()
		assert.ErrorIs(t, err, ErrNoSupportedBufferFormat)
	})

	t.Run("default priority prefers identity formats", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		advertise(s, client.ShmFormatXrgb8888, client.ShmFormatXbgr8888)
		format, err := s.chooseFormat()
		require.NoError(t, err)
		assert.Equal(t, client.ShmFormatXbgr8888, format.Format)
	})

	t.Run("explicit priority wins over advertisement order", func(t *testing.T) {
		s := testSession(CaptureOptions{
			FormatPriority: []client.ShmFormat{client.ShmFormatAbgr2101010},
		})
		advertise(s, client.ShmFormatXbgr8888, client.ShmFormatAbgr2101010)
		format, err := s.chooseFormat()
		require.NoError(t, err)
		assert.Equal(t, client.ShmFormatAbgr2101010, format.Format)
	})

	t.Run("falls back to first convertible format", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		advertise(s, client.ShmFormat(0xdeadbeef), client.ShmFormatArgb8888)
		format, err := s.chooseFormat()
		require.NoError(t, err)
		assert.Equal(t, client.ShmFormatArgb8888, format.Format)
	})

	t.Run("only unconvertible candidates is an error", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		advertise(s, client.ShmFormat(0xdeadbeef))
		_, err := s.chooseFormat()
		assert.ErrorIs(t, err, ErrNoSupportedBufferFormat)
	})
}

func TestSessionFinish(t *testing.T) {
	format := FrameFormat{
		Format: client.ShmFormatXrgb8888,
		Size:   region.Size{Width: 4, Height: 2},
		Stride: 16,
	}

	t.Run("finished hands the mapping to the result", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.data = make([]byte, format.ByteSize())
		s.onReady()

		res, err := s.finish(format)
		require.NoError(t, err)
		assert.True(t, s.dataClaimed)
		assert.Equal(t, format, res.Format)
		assert.Len(t, res.Data, int(format.ByteSize()))
	})

	t.Run("short mapping is a hard error", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.data = make([]byte, format.ByteSize()-1)
		s.onReady()

		_, err := s.finish(format)
		assert.ErrorIs(t, err, ErrBufferTooSmall)
		assert.False(t, s.dataClaimed)
	})

	t.Run("failed reports the compositor rejection", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.onFailed()
		_, err := s.finish(format)
		assert.ErrorIs(t, err, ErrCompositorRejected)
	})

	t.Run("pending cannot finish", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		_, err := s.finish(format)
		assert.Error(t, err)
	})
}

func TestSessionRelease(t *testing.T) {
	t.Run("is idempotent", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.release()
		assert.True(t, s.released)
		s.release()
		assert.True(t, s.released)
	})

	t.Run("claimed data survives release", func(t *testing.T) {
		s := testSession(CaptureOptions{})
		s.data = make([]byte, 16)
		s.dataClaimed = true
		s.release()
		assert.NotNil(t, s.data)
	})
}

func TestFrameFormatByteSize(t *testing.T) {
	f := FrameFormat{Size: region.Size{Width: 1920, Height: 1080}, Stride: 7680}
	assert.Equal(t, uint64(7680*1080), f.ByteSize())
}

func TestResultClose(t *testing.T) {
	// A Close on heap-backed data would fault in munmap, so exercise only
	// the nil and already-released paths here; shm_test covers the mapped
	// path end to end.
	r := &Result{}
	assert.NoError(t, r.Close())
	r = &Result{released: true, Data: []byte{1}}
	assert.NoError(t, r.Close())
}
