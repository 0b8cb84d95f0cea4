package aravis

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelFormatName(t *testing.T) {
	assert.Equal(t, "Mono8", PixelFormatName(PixelFormatMono8))
	assert.Equal(t, "BayerRG8", PixelFormatBayerRG8.String())
	assert.Equal(t, "Unknown (0x12345678)", PixelFormatName(0x12345678))
}

func TestBufferSize(t *testing.T) {
	cases := []struct {
		format PixelFormat
		want   int
	}{
		{PixelFormatMono8, 640 * 480},
		{PixelFormatMono12, 640 * 480 * 2},
		{PixelFormatRGB8, 640 * 480 * 3},
		{PixelFormatBGRA8, 640 * 480 * 4},
		{PixelFormatYUV422, 640 * 480 * 2},
	}
	for _, c := range cases {
		got, err := BufferSize(640, 480, c.format)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.format.String())
	}

	_, err := BufferSize(1, 1, 0)
	assert.Error(t, err)
}

func TestPixelFormatClasses(t *testing.T) {
	assert.True(t, PixelFormatMono16.IsMono())
	assert.False(t, PixelFormatRGB8.IsMono())
	assert.True(t, PixelFormatBayerBG8.IsBayer())
	assert.True(t, PixelFormatBGRA8.IsColor())
	assert.False(t, PixelFormatYUV422.IsColor())
}

func TestFrameImage(t *testing.T) {
	t.Run("Mono8", func(t *testing.T) {
		img, err := Frame{Width: 2, Height: 1, Format: PixelFormatMono8, Data: []byte{10, 200}}.Image()
		require.NoError(t, err)
		assert.Equal(t, color.Gray{Y: 200}, img.At(1, 0))
	})
	t.Run("Mono16", func(t *testing.T) {
		img, err := Frame{Width: 1, Height: 1, Format: PixelFormatMono16, Data: []byte{0x34, 0x12}}.Image()
		require.NoError(t, err)
		assert.Equal(t, color.Gray16{Y: 0x1234}, img.At(0, 0))
	})
	t.Run("BGR8", func(t *testing.T) {
		img, err := Frame{Width: 1, Height: 1, Format: PixelFormatBGR8, Data: []byte{1, 2, 3}}.Image()
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{R: 3, G: 2, B: 1, A: 255}, img.At(0, 0))
	})
	t.Run("RGBA8", func(t *testing.T) {
		img, err := Frame{Width: 1, Height: 1, Format: PixelFormatRGBA8, Data: []byte{1, 2, 3, 4}}.Image()
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 4}, img.At(0, 0))
	})
	t.Run("ShortData", func(t *testing.T) {
		_, err := Frame{Width: 2, Height: 2, Format: PixelFormatRGB8, Data: []byte{1, 2, 3}}.Image()
		assert.Error(t, err)
	})
	t.Run("Unsupported", func(t *testing.T) {
		_, err := Frame{Width: 1, Height: 1, Format: PixelFormatBayerRG8, Data: []byte{1}}.Image()
		assert.True(t, errors.Is(err, ErrUnsupported))
	})
}

func TestFrameWritePGM(t *testing.T) {
	var buf bytes.Buffer
	f := Frame{Width: 2, Height: 2, Format: PixelFormatMono8, Data: []byte{1, 2, 3, 4}}
	require.NoError(t, f.WritePGM(&buf))
	assert.Equal(t, "P5\n2 2\n255\n\x01\x02\x03\x04", buf.String())

	f.Format = PixelFormatMono16
	assert.True(t, errors.Is(f.WritePGM(&buf), ErrUnsupported))
}

func TestFrameWritePNG(t *testing.T) {
	var buf bytes.Buffer
	f := Frame{Width: 2, Height: 1, Format: PixelFormatRGB8, Data: []byte{255, 0, 0, 0, 0, 255}}
	require.NoError(t, f.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	r, g, b, _ := img.At(1, 0).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0xffff}, [3]uint32{r, g, b})
}

func TestFrameWriteJPEG(t *testing.T) {
	var buf bytes.Buffer
	f := Frame{Width: 8, Height: 8, Format: PixelFormatMono8, Data: make([]byte, 64)}
	require.NoError(t, f.WriteJPEG(&buf, 90))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xff, 0xd8}))

	f = Frame{Width: 1, Height: 1, Format: PixelFormatRGBA8, Data: make([]byte, 4)}
	assert.True(t, errors.Is(f.WriteJPEG(&buf, 90), ErrUnsupported))
}

func TestBufferFrame(t *testing.T) {
	f := installFakes(t)

	b, err := NewBuffer(8)
	require.NoError(t, err)
	defer b.Close()

	// Fresh buffers are not exportable.
	_, err = b.Frame()
	assert.Error(t, err)

	for _, fb := range f.buffers {
		fb.status = BufferStatusSuccess
	}
	frame, err := b.Frame()
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Width)
	assert.Equal(t, 2, frame.Height)
	assert.Equal(t, PixelFormatMono8, frame.Format)
	assert.Len(t, frame.Data, 8)

	var raw bytes.Buffer
	require.NoError(t, frame.WriteRaw(&raw))
	assert.Equal(t, frame.Data, raw.Bytes())
}
