package aravis

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
)

// PixelFormat is a GenICam PFNC pixel format code.
type PixelFormat uint32

const (
	PixelFormatMono8      PixelFormat = 0x01080001
	PixelFormatMono10     PixelFormat = 0x01100003
	PixelFormatMono12     PixelFormat = 0x01100005
	PixelFormatMono14     PixelFormat = 0x01100025
	PixelFormatMono16     PixelFormat = 0x01100007
	PixelFormatBayerGR8   PixelFormat = 0x01080008
	PixelFormatBayerRG8   PixelFormat = 0x01080009
	PixelFormatBayerGB8   PixelFormat = 0x0108000a
	PixelFormatBayerBG8   PixelFormat = 0x0108000b
	PixelFormatRGB8       PixelFormat = 0x02180014
	PixelFormatBGR8       PixelFormat = 0x02180015
	PixelFormatRGBA8      PixelFormat = 0x02200016
	PixelFormatBGRA8      PixelFormat = 0x02200017
	PixelFormatYUV422     PixelFormat = 0x0210001f
	PixelFormatYUV422YUYV PixelFormat = 0x02100032
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatMono8:      "Mono8",
	PixelFormatMono10:     "Mono10",
	PixelFormatMono12:     "Mono12",
	PixelFormatMono14:     "Mono14",
	PixelFormatMono16:     "Mono16",
	PixelFormatBayerGR8:   "BayerGR8",
	PixelFormatBayerRG8:   "BayerRG8",
	PixelFormatBayerGB8:   "BayerGB8",
	PixelFormatBayerBG8:   "BayerBG8",
	PixelFormatRGB8:       "RGB8",
	PixelFormatBGR8:       "BGR8",
	PixelFormatRGBA8:      "RGBA8",
	PixelFormatBGRA8:      "BGRA8",
	PixelFormatYUV422:     "YUV422",
	PixelFormatYUV422YUYV: "YUYV",
}

// PixelFormatName returns the GenICam name of a known format.
func PixelFormatName(f PixelFormat) string {
	if n, ok := pixelFormatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Unknown (0x%08X)", uint32(f))
}

func (f PixelFormat) String() string { return PixelFormatName(f) }

// BitsPerPixel reads the pixel size encoded in bits 16 to 23 of the code.
func (f PixelFormat) BitsPerPixel() int {
	return int(f>>16) & 0xff
}

// IsMono reports whether f is one of the Mono formats.
func (f PixelFormat) IsMono() bool {
	switch f {
	case PixelFormatMono8, PixelFormatMono10, PixelFormatMono12, PixelFormatMono14, PixelFormatMono16:
		return true
	}
	return false
}

// IsBayer reports whether f is an 8 bit Bayer mosaic.
func (f PixelFormat) IsBayer() bool {
	switch f {
	case PixelFormatBayerGR8, PixelFormatBayerRG8, PixelFormatBayerGB8, PixelFormatBayerBG8:
		return true
	}
	return false
}

// IsColor reports whether f is a packed RGB or BGR format.
func (f PixelFormat) IsColor() bool {
	switch f {
	case PixelFormatRGB8, PixelFormatBGR8, PixelFormatRGBA8, PixelFormatBGRA8:
		return true
	}
	return false
}

// BufferSize returns the bytes needed for a width x height image in format f.
func BufferSize(width, height int, f PixelFormat) (int, error) {
	bpp := f.BitsPerPixel()
	if bpp == 0 {
		return 0, fmt.Errorf("unknown pixel format 0x%08X", uint32(f))
	}
	return (width*height*bpp + 7) / 8, nil
}

// Frame is a copy of a buffer's image, detached from the native buffer.
type Frame struct {
	Width  int
	Height int
	Format PixelFormat
	Data   []byte
}

// Frame copies the image out of a successfully filled buffer.
func (b *Buffer) Frame() (Frame, error) {
	status, err := b.Status()
	if err != nil {
		return Frame{}, err
	}
	if status != BufferStatusSuccess {
		return Frame{}, fmt.Errorf("cannot export buffer with status %s", status)
	}
	var f Frame
	if f.Width, err = b.Width(); err != nil {
		return Frame{}, err
	}
	if f.Height, err = b.Height(); err != nil {
		return Frame{}, err
	}
	if f.Format, err = b.PixelFormat(); err != nil {
		return Frame{}, err
	}
	if f.Data, err = b.Data(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Image converts a successfully filled buffer to an image.Image.
func (b *Buffer) Image() (image.Image, error) {
	f, err := b.Frame()
	if err != nil {
		return nil, err
	}
	return f.Image()
}

func (f Frame) check(bytesPerPixel int) error {
	need := f.Width * f.Height * bytesPerPixel
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}
	if len(f.Data) < need {
		return fmt.Errorf("frame data too short: need %d bytes, have %d", need, len(f.Data))
	}
	return nil
}

// Image converts the frame. Mono8, Mono16 and the packed 8 bit RGB/BGR
// formats are supported.
func (f Frame) Image() (image.Image, error) {
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch f.Format {
	case PixelFormatMono8:
		if err := f.check(1); err != nil {
			return nil, err
		}
		img := image.NewGray(rect)
		copy(img.Pix, f.Data)
		return img, nil

	case PixelFormatMono16:
		if err := f.check(2); err != nil {
			return nil, err
		}
		img := image.NewGray16(rect)
		for i := 0; i < f.Width*f.Height; i++ {
			v := binary.LittleEndian.Uint16(f.Data[2*i:])
			img.SetGray16(i%f.Width, i/f.Width, color.Gray16{Y: v})
		}
		return img, nil

	case PixelFormatRGB8, PixelFormatBGR8, PixelFormatRGBA8, PixelFormatBGRA8:
		n := f.Format.BitsPerPixel() / 8
		if err := f.check(n); err != nil {
			return nil, err
		}
		swap := f.Format == PixelFormatBGR8 || f.Format == PixelFormatBGRA8
		img := image.NewNRGBA(rect)
		for i := 0; i < f.Width*f.Height; i++ {
			src := f.Data[i*n : i*n+n]
			dst := img.Pix[i*4 : i*4+4]
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xff
			if swap {
				dst[0], dst[2] = dst[2], dst[0]
			}
			if n == 4 {
				dst[3] = src[3]
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: image conversion of %s", ErrUnsupported, f.Format)
}

// WriteRaw writes the payload as is.
func (f Frame) WriteRaw(w io.Writer) error {
	_, err := w.Write(f.Data)
	return err
}

// WritePGM writes a binary PGM (P5). Only Mono8 frames can be written.
func (f Frame) WritePGM(w io.Writer) error {
	if f.Format != PixelFormatMono8 {
		return fmt.Errorf("%w: PGM only supports Mono8, got %s", ErrUnsupported, f.Format)
	}
	if err := f.check(1); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P5\n%d %d\n255\n", f.Width, f.Height)
	if _, err := bw.Write(f.Data[:f.Width*f.Height]); err != nil {
		return err
	}
	return bw.Flush()
}

// WritePNG encodes the frame as PNG.
func (f Frame) WritePNG(w io.Writer) error {
	img, err := f.Image()
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// WriteJPEG encodes the frame as JPEG. Only Mono8 and RGB8 are accepted,
// alpha formats have no JPEG representation.
func (f Frame) WriteJPEG(w io.Writer, quality int) error {
	switch f.Format {
	case PixelFormatMono8, PixelFormatRGB8, PixelFormatBGR8:
	default:
		return fmt.Errorf("%w: JPEG does not support %s", ErrUnsupported, f.Format)
	}
	img, err := f.Image()
	if err != nil {
		return err
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}
