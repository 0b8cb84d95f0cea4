package aravis

import (
	"fmt"
	"runtime"
)

// Region is a rectangle on the sensor, in pixels.
type Region struct {
	X, Y          int
	Width, Height int
}

// Camera is an open GenICam camera (ArvCamera).
type Camera struct {
	h *handle
}

// NewCamera opens the camera with the given device id. An empty id opens the
// first camera found.
func NewCamera(deviceID string) (*Camera, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	name, err := cString(deviceID)
	if err != nil {
		return nil, err
	}

	var gerr *gError
	ptr := arv_camera_new(name, &gerr)
	runtime.KeepAlive(name)
	if err := takeError("NewCamera", gerr); err != nil {
		if ptr != 0 {
			g_object_unref(ptr)
		}
		return nil, err
	}
	if ptr == 0 {
		return nil, &Error{Op: "NewCamera", Message: "failed to open camera"}
	}

	logger().Debug("opened camera", "device_id", deviceID)
	return wrapCamera(ptr, unrefObject), nil
}

func wrapCamera(ptr uintptr, release func(uintptr)) *Camera {
	c := &Camera{h: newHandle("camera", ptr, release)}
	runtime.SetFinalizer(c, (*Camera).Close)
	return c
}

// Close releases the camera. It is safe to call more than once.
func (c *Camera) Close() error {
	if c == nil {
		return nil
	}
	c.h.close()
	runtime.SetFinalizer(c, nil)
	return nil
}

func (c *Camera) get() (uintptr, error) {
	if c == nil {
		return 0, closedError("camera")
	}
	return c.h.get()
}

func cameraCall[T any](c *Camera, op string, fn func(cam uintptr, gerr **gError) T) (T, error) {
	var zero T
	ptr, err := c.get()
	if err != nil {
		return zero, err
	}
	var gerr *gError
	v := fn(ptr, &gerr)
	runtime.KeepAlive(c)
	if err := takeError(op, gerr); err != nil {
		return zero, err
	}
	return v, nil
}

func cameraExec(c *Camera, op string, fn func(cam uintptr, gerr **gError)) error {
	_, err := cameraCall(c, op, func(cam uintptr, gerr **gError) struct{} {
		fn(cam, gerr)
		return struct{}{}
	})
	return err
}

// VendorName returns the camera vendor.
func (c *Camera) VendorName() (string, error) {
	return cameraCall(c, "VendorName", arv_camera_get_vendor_name)
}

// ModelName returns the camera model.
func (c *Camera) ModelName() (string, error) {
	return cameraCall(c, "ModelName", arv_camera_get_model_name)
}

// SerialNumber returns the camera serial number.
func (c *Camera) SerialNumber() (string, error) {
	return cameraCall(c, "SerialNumber", arv_camera_get_device_serial_number)
}

// DeviceID returns the id the camera can be reopened with.
func (c *Camera) DeviceID() (string, error) {
	return cameraCall(c, "DeviceID", arv_camera_get_device_id)
}

// Region returns the current region of interest.
func (c *Camera) Region() (Region, error) {
	return cameraCall(c, "Region", func(cam uintptr, gerr **gError) Region {
		var x, y, w, h int32
		arv_camera_get_region(cam, &x, &y, &w, &h, gerr)
		return Region{X: int(x), Y: int(y), Width: int(w), Height: int(h)}
	})
}

// SetRegion sets the region of interest.
func (c *Camera) SetRegion(r Region) error {
	return cameraExec(c, "SetRegion", func(cam uintptr, gerr **gError) {
		arv_camera_set_region(cam, int32(r.X), int32(r.Y), int32(r.Width), int32(r.Height), gerr)
	})
}

func int32Bounds(op string, c *Camera, fn func(cam uintptr, min, max *int32, gerr **gError)) (int, int, error) {
	b, err := cameraCall(c, op, func(cam uintptr, gerr **gError) [2]int32 {
		var min, max int32
		fn(cam, &min, &max, gerr)
		return [2]int32{min, max}
	})
	return int(b[0]), int(b[1]), err
}

func float64Bounds(op string, c *Camera, fn func(cam uintptr, min, max *float64, gerr **gError)) (float64, float64, error) {
	b, err := cameraCall(c, op, func(cam uintptr, gerr **gError) [2]float64 {
		var min, max float64
		fn(cam, &min, &max, gerr)
		return [2]float64{min, max}
	})
	return b[0], b[1], err
}

// WidthBounds returns the allowed region width range.
func (c *Camera) WidthBounds() (min, max int, err error) {
	return int32Bounds("WidthBounds", c, arv_camera_get_width_bounds)
}

// HeightBounds returns the allowed region height range.
func (c *Camera) HeightBounds() (min, max int, err error) {
	return int32Bounds("HeightBounds", c, arv_camera_get_height_bounds)
}

// WidthIncrement returns the step the region width must be a multiple of.
func (c *Camera) WidthIncrement() (int, error) {
	v, err := cameraCall(c, "WidthIncrement", arv_camera_get_width_increment)
	return int(v), err
}

// HeightIncrement returns the step the region height must be a multiple of.
func (c *Camera) HeightIncrement() (int, error) {
	v, err := cameraCall(c, "HeightIncrement", arv_camera_get_height_increment)
	return int(v), err
}

// Binning returns the horizontal and vertical binning.
func (c *Camera) Binning() (dx, dy int, err error) {
	return int32Bounds("Binning", c, arv_camera_get_binning)
}

// SetBinning sets the horizontal and vertical binning.
func (c *Camera) SetBinning(dx, dy int) error {
	return cameraExec(c, "SetBinning", func(cam uintptr, gerr **gError) {
		arv_camera_set_binning(cam, int32(dx), int32(dy), gerr)
	})
}

// SensorSize returns the full sensor size in pixels.
func (c *Camera) SensorSize() (width, height int, err error) {
	return int32Bounds("SensorSize", c, arv_camera_get_sensor_size)
}

// PixelFormat returns the current pixel format.
func (c *Camera) PixelFormat() (PixelFormat, error) {
	v, err := cameraCall(c, "PixelFormat", arv_camera_get_pixel_format)
	return PixelFormat(v), err
}

// SetPixelFormat sets the pixel format.
func (c *Camera) SetPixelFormat(f PixelFormat) error {
	return cameraExec(c, "SetPixelFormat", func(cam uintptr, gerr **gError) {
		arv_camera_set_pixel_format(cam, uint32(f), gerr)
	})
}

// PixelFormatString returns the GenICam name of the current pixel format.
func (c *Camera) PixelFormatString() (string, error) {
	return cameraCall(c, "PixelFormatString", arv_camera_get_pixel_format_as_string)
}

// SetPixelFormatString sets the pixel format by its GenICam name.
func (c *Camera) SetPixelFormatString(format string) error {
	return cameraExec(c, "SetPixelFormatString", func(cam uintptr, gerr **gError) {
		arv_camera_set_pixel_format_from_string(cam, format, gerr)
	})
}

// StartAcquisition starts streaming.
func (c *Camera) StartAcquisition() error {
	return cameraExec(c, "StartAcquisition", arv_camera_start_acquisition)
}

// StopAcquisition stops streaming.
func (c *Camera) StopAcquisition() error {
	return cameraExec(c, "StopAcquisition", arv_camera_stop_acquisition)
}

// AbortAcquisition aborts streaming without waiting for the current frame.
func (c *Camera) AbortAcquisition() error {
	return cameraExec(c, "AbortAcquisition", arv_camera_abort_acquisition)
}

// ExposureTime returns the exposure time in microseconds.
func (c *Camera) ExposureTime() (float64, error) {
	return cameraCall(c, "ExposureTime", arv_camera_get_exposure_time)
}

// SetExposureTime sets the exposure time in microseconds.
func (c *Camera) SetExposureTime(us float64) error {
	return cameraExec(c, "SetExposureTime", func(cam uintptr, gerr **gError) {
		arv_camera_set_exposure_time(cam, us, gerr)
	})
}

// ExposureTimeBounds returns the exposure time range in microseconds.
func (c *Camera) ExposureTimeBounds() (min, max float64, err error) {
	return float64Bounds("ExposureTimeBounds", c, arv_camera_get_exposure_time_bounds)
}

// ExposureTimeAuto returns the automatic exposure mode.
func (c *Camera) ExposureTimeAuto() (Auto, error) {
	v, err := cameraCall(c, "ExposureTimeAuto", arv_camera_get_exposure_time_auto)
	return Auto(v), err
}

// SetExposureTimeAuto sets the automatic exposure mode.
func (c *Camera) SetExposureTimeAuto(mode Auto) error {
	return cameraExec(c, "SetExposureTimeAuto", func(cam uintptr, gerr **gError) {
		arv_camera_set_exposure_time_auto(cam, int32(mode), gerr)
	})
}

// Gain returns the gain.
func (c *Camera) Gain() (float64, error) {
	return cameraCall(c, "Gain", arv_camera_get_gain)
}

// SetGain sets the gain.
func (c *Camera) SetGain(gain float64) error {
	return cameraExec(c, "SetGain", func(cam uintptr, gerr **gError) {
		arv_camera_set_gain(cam, gain, gerr)
	})
}

// GainBounds returns the gain range.
func (c *Camera) GainBounds() (min, max float64, err error) {
	return float64Bounds("GainBounds", c, arv_camera_get_gain_bounds)
}

// GainAuto returns the automatic gain mode.
func (c *Camera) GainAuto() (Auto, error) {
	v, err := cameraCall(c, "GainAuto", arv_camera_get_gain_auto)
	return Auto(v), err
}

// SetGainAuto sets the automatic gain mode.
func (c *Camera) SetGainAuto(mode Auto) error {
	return cameraExec(c, "SetGainAuto", func(cam uintptr, gerr **gError) {
		arv_camera_set_gain_auto(cam, int32(mode), gerr)
	})
}

// FrameRate returns the frame rate in frames per second.
func (c *Camera) FrameRate() (float64, error) {
	return cameraCall(c, "FrameRate", arv_camera_get_frame_rate)
}

// SetFrameRate sets the frame rate in frames per second.
func (c *Camera) SetFrameRate(fps float64) error {
	return cameraExec(c, "SetFrameRate", func(cam uintptr, gerr **gError) {
		arv_camera_set_frame_rate(cam, fps, gerr)
	})
}

// FrameRateBounds returns the frame rate range.
func (c *Camera) FrameRateBounds() (min, max float64, err error) {
	return float64Bounds("FrameRateBounds", c, arv_camera_get_frame_rate_bounds)
}

// AcquisitionMode returns the acquisition mode.
func (c *Camera) AcquisitionMode() (AcquisitionMode, error) {
	v, err := cameraCall(c, "AcquisitionMode", arv_camera_get_acquisition_mode)
	return AcquisitionMode(v), err
}

// SetAcquisitionMode sets the acquisition mode.
func (c *Camera) SetAcquisitionMode(mode AcquisitionMode) error {
	return cameraExec(c, "SetAcquisitionMode", func(cam uintptr, gerr **gError) {
		arv_camera_set_acquisition_mode(cam, int32(mode), gerr)
	})
}

// FrameCount returns the number of frames acquired in MultiFrame mode.
func (c *Camera) FrameCount() (int64, error) {
	if arv_camera_get_frame_count == nil {
		return 0, unsupported(c)
	}
	return cameraCall(c, "FrameCount", arv_camera_get_frame_count)
}

// SetFrameCount sets the number of frames acquired in MultiFrame mode.
func (c *Camera) SetFrameCount(n int64) error {
	if arv_camera_set_frame_count == nil {
		return unsupported(c)
	}
	return cameraExec(c, "SetFrameCount", func(cam uintptr, gerr **gError) {
		arv_camera_set_frame_count(cam, n, gerr)
	})
}

// FrameCountBounds returns the frame count range.
func (c *Camera) FrameCountBounds() (min, max int64, err error) {
	if arv_camera_get_frame_count_bounds == nil {
		return 0, 0, unsupported(c)
	}
	b, err := cameraCall(c, "FrameCountBounds", func(cam uintptr, gerr **gError) [2]int64 {
		var min, max int64
		arv_camera_get_frame_count_bounds(cam, &min, &max, gerr)
		return [2]int64{min, max}
	})
	return b[0], b[1], err
}

// PayloadSize returns the size in bytes a buffer needs to hold one frame.
func (c *Camera) PayloadSize() (int, error) {
	v, err := cameraCall(c, "PayloadSize", arv_camera_get_payload)
	return int(v), err
}

// SetTrigger configures the FrameStart trigger on source and disables the
// other triggers.
func (c *Camera) SetTrigger(source string) error {
	return cameraExec(c, "SetTrigger", func(cam uintptr, gerr **gError) {
		arv_camera_set_trigger(cam, source, gerr)
	})
}

// SetTriggerSource sets the trigger source.
func (c *Camera) SetTriggerSource(source string) error {
	return cameraExec(c, "SetTriggerSource", func(cam uintptr, gerr **gError) {
		arv_camera_set_trigger_source(cam, source, gerr)
	})
}

// TriggerSource returns the trigger source.
func (c *Camera) TriggerSource() (string, error) {
	return cameraCall(c, "TriggerSource", arv_camera_get_trigger_source)
}

// ClearTriggers disables every trigger, putting the camera back in free run.
func (c *Camera) ClearTriggers() error {
	return cameraExec(c, "ClearTriggers", arv_camera_clear_triggers)
}

// IsSoftwareTriggerSupported reports whether SoftwareTrigger can be used.
func (c *Camera) IsSoftwareTriggerSupported() (bool, error) {
	if arv_camera_is_software_trigger_supported == nil {
		return false, unsupported(c)
	}
	return cameraCall(c, "IsSoftwareTriggerSupported", arv_camera_is_software_trigger_supported)
}

// SoftwareTrigger sends a software trigger.
func (c *Camera) SoftwareTrigger() error {
	return cameraExec(c, "SoftwareTrigger", arv_camera_software_trigger)
}

// ExecuteCommand executes a command feature.
func (c *Camera) ExecuteCommand(feature string) error {
	return cameraExec(c, "ExecuteCommand", func(cam uintptr, gerr **gError) {
		arv_camera_execute_command(cam, feature, gerr)
	})
}

// GetString returns the value of a string feature.
func (c *Camera) GetString(feature string) (string, error) {
	return cameraCall(c, "GetString", func(cam uintptr, gerr **gError) string {
		return arv_camera_get_string(cam, feature, gerr)
	})
}

// SetString sets a string feature.
func (c *Camera) SetString(feature, value string) error {
	return cameraExec(c, "SetString", func(cam uintptr, gerr **gError) {
		arv_camera_set_string(cam, feature, value, gerr)
	})
}

// GetInteger returns the value of an integer feature.
func (c *Camera) GetInteger(feature string) (int64, error) {
	return cameraCall(c, "GetInteger", func(cam uintptr, gerr **gError) int64 {
		return arv_camera_get_integer(cam, feature, gerr)
	})
}

// SetInteger sets an integer feature.
func (c *Camera) SetInteger(feature string, value int64) error {
	return cameraExec(c, "SetInteger", func(cam uintptr, gerr **gError) {
		arv_camera_set_integer(cam, feature, value, gerr)
	})
}

// GetFloat returns the value of a float feature.
func (c *Camera) GetFloat(feature string) (float64, error) {
	return cameraCall(c, "GetFloat", func(cam uintptr, gerr **gError) float64 {
		return arv_camera_get_float(cam, feature, gerr)
	})
}

// SetFloat sets a float feature.
func (c *Camera) SetFloat(feature string, value float64) error {
	return cameraExec(c, "SetFloat", func(cam uintptr, gerr **gError) {
		arv_camera_set_float(cam, feature, value, gerr)
	})
}

// GetBoolean returns the value of a boolean feature.
func (c *Camera) GetBoolean(feature string) (bool, error) {
	return cameraCall(c, "GetBoolean", func(cam uintptr, gerr **gError) bool {
		return arv_camera_get_boolean(cam, feature, gerr)
	})
}

// SetBoolean sets a boolean feature.
func (c *Camera) SetBoolean(feature string, value bool) error {
	return cameraExec(c, "SetBoolean", func(cam uintptr, gerr **gError) {
		arv_camera_set_boolean(cam, feature, value, gerr)
	})
}

// IntegerBounds returns the range of an integer feature.
func (c *Camera) IntegerBounds(feature string) (min, max int64, err error) {
	b, err := cameraCall(c, "IntegerBounds", func(cam uintptr, gerr **gError) [2]int64 {
		var min, max int64
		arv_camera_get_integer_bounds(cam, feature, &min, &max, gerr)
		return [2]int64{min, max}
	})
	return b[0], b[1], err
}

// FloatBounds returns the range of a float feature.
func (c *Camera) FloatBounds(feature string) (min, max float64, err error) {
	b, err := cameraCall(c, "FloatBounds", func(cam uintptr, gerr **gError) [2]float64 {
		var min, max float64
		arv_camera_get_float_bounds(cam, feature, &min, &max, gerr)
		return [2]float64{min, max}
	})
	return b[0], b[1], err
}

// IntegerIncrement returns the step of an integer feature.
func (c *Camera) IntegerIncrement(feature string) (int64, error) {
	if arv_camera_get_integer_increment == nil {
		return 0, unsupported(c)
	}
	return cameraCall(c, "IntegerIncrement", func(cam uintptr, gerr **gError) int64 {
		return arv_camera_get_integer_increment(cam, feature, gerr)
	})
}

// FloatIncrement returns the step of a float feature.
func (c *Camera) FloatIncrement(feature string) (float64, error) {
	if arv_camera_get_float_increment == nil {
		return 0, unsupported(c)
	}
	return cameraCall(c, "FloatIncrement", func(cam uintptr, gerr **gError) float64 {
		return arv_camera_get_float_increment(cam, feature, gerr)
	})
}

// IsFeatureAvailable reports whether a feature is currently available.
func (c *Camera) IsFeatureAvailable(feature string) (bool, error) {
	return cameraCall(c, "IsFeatureAvailable", func(cam uintptr, gerr **gError) bool {
		return arv_camera_is_feature_available(cam, feature, gerr)
	})
}

// IsBinningAvailable reports whether binning can be set.
func (c *Camera) IsBinningAvailable() (bool, error) {
	return cameraCall(c, "IsBinningAvailable", arv_camera_is_binning_available)
}

// IsExposureTimeAvailable reports whether the exposure time can be set.
func (c *Camera) IsExposureTimeAvailable() (bool, error) {
	return cameraCall(c, "IsExposureTimeAvailable", arv_camera_is_exposure_time_available)
}

// IsExposureAutoAvailable reports whether automatic exposure is available.
func (c *Camera) IsExposureAutoAvailable() (bool, error) {
	return cameraCall(c, "IsExposureAutoAvailable", arv_camera_is_exposure_auto_available)
}

// IsGainAvailable reports whether the gain can be set.
func (c *Camera) IsGainAvailable() (bool, error) {
	return cameraCall(c, "IsGainAvailable", arv_camera_is_gain_available)
}

// IsGainAutoAvailable reports whether automatic gain is available.
func (c *Camera) IsGainAutoAvailable() (bool, error) {
	return cameraCall(c, "IsGainAutoAvailable", arv_camera_is_gain_auto_available)
}

// IsFrameRateAvailable reports whether the frame rate can be set.
func (c *Camera) IsFrameRateAvailable() (bool, error) {
	return cameraCall(c, "IsFrameRateAvailable", arv_camera_is_frame_rate_available)
}

// IsGigEVision reports whether the camera is a GigE Vision device.
func (c *Camera) IsGigEVision() (bool, error) {
	return cameraCall(c, "IsGigEVision", func(cam uintptr, _ **gError) bool {
		return arv_camera_is_gv_device(cam)
	})
}

// IsUSB3Vision reports whether the camera is a USB3 Vision device.
func (c *Camera) IsUSB3Vision() (bool, error) {
	return cameraCall(c, "IsUSB3Vision", func(cam uintptr, _ **gError) bool {
		return arv_camera_is_uv_device(cam)
	})
}

// GVAutoPacketSize negotiates the largest packet size the link supports and
// returns it.
func (c *Camera) GVAutoPacketSize() (int, error) {
	v, err := cameraCall(c, "GVAutoPacketSize", arv_camera_gv_auto_packet_size)
	return int(v), err
}

// GVPacketSize returns the GigE Vision stream packet size.
func (c *Camera) GVPacketSize() (int, error) {
	v, err := cameraCall(c, "GVPacketSize", arv_camera_gv_get_packet_size)
	return int(v), err
}

// SetGVPacketSize sets the GigE Vision stream packet size.
func (c *Camera) SetGVPacketSize(size int) error {
	return cameraExec(c, "SetGVPacketSize", func(cam uintptr, gerr **gError) {
		arv_camera_gv_set_packet_size(cam, int32(size), gerr)
	})
}

// UVBandwidth returns the USB3 Vision bandwidth limit.
func (c *Camera) UVBandwidth() (uint, error) {
	v, err := cameraCall(c, "UVBandwidth", arv_camera_uv_get_bandwidth)
	return uint(v), err
}

// SetUVBandwidth sets the USB3 Vision bandwidth limit.
func (c *Camera) SetUVBandwidth(bandwidth uint) error {
	return cameraExec(c, "SetUVBandwidth", func(cam uintptr, gerr **gError) {
		arv_camera_uv_set_bandwidth(cam, uint32(bandwidth), gerr)
	})
}

// UVBandwidthBounds returns the USB3 Vision bandwidth range.
func (c *Camera) UVBandwidthBounds() (min, max uint, err error) {
	b, err := cameraCall(c, "UVBandwidthBounds", func(cam uintptr, gerr **gError) [2]uint32 {
		var min, max uint32
		arv_camera_uv_get_bandwidth_bounds(cam, &min, &max, gerr)
		return [2]uint32{min, max}
	})
	return uint(b[0]), uint(b[1]), err
}

// IsUVBandwidthControlAvailable reports whether the USB3 Vision bandwidth
// can be limited.
func (c *Camera) IsUVBandwidthControlAvailable() (bool, error) {
	if arv_camera_uv_is_bandwidth_control_available == nil {
		return false, unsupported(c)
	}
	return cameraCall(c, "IsUVBandwidthControlAvailable", arv_camera_uv_is_bandwidth_control_available)
}

// CreateStream creates the stream frames are received on. Signals are
// disabled; buffers are collected by polling.
func (c *Camera) CreateStream() (*Stream, error) {
	ptr, err := cameraCall(c, "CreateStream", func(cam uintptr, gerr **gError) uintptr {
		return arv_camera_create_stream(cam, 0, 0, gerr)
	})
	if err != nil {
		return nil, err
	}
	if ptr == 0 {
		return nil, &Error{Op: "CreateStream", Message: "failed to create stream"}
	}
	arv_stream_set_emit_signals(ptr, false)
	return wrapStream(ptr, unrefObject), nil
}

// Device returns the device behind the camera for direct feature access.
// The device is owned by the camera and becomes unusable once the camera is
// closed.
func (c *Camera) Device() (*Device, error) {
	ptr, err := cameraCall(c, "Device", func(cam uintptr, _ **gError) uintptr {
		return arv_camera_get_device(cam)
	})
	if err != nil {
		return nil, err
	}
	if ptr == 0 {
		return nil, &Error{Op: "Device", Message: "failed to get device"}
	}
	return &Device{ptr: ptr, owner: c}, nil
}

// unsupported reports ErrUnsupported, unless the camera is closed.
func unsupported(c *Camera) error {
	if _, err := c.get(); err != nil {
		return err
	}
	return fmt.Errorf("camera: %w", ErrUnsupported)
}
