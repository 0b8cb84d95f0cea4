package aravis

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Device gives direct access to the GenICam features of a camera's device.
//
// A Device does not own its native object: it belongs to the Camera it was
// obtained from and stops working once that camera is closed.
type Device struct {
	ptr   uintptr
	owner *Camera
}

func (d *Device) get() (uintptr, error) {
	if d == nil || d.owner == nil || d.owner.h.isClosed() {
		return 0, closedError("device")
	}
	return d.ptr, nil
}

func deviceCall[T any](d *Device, op string, fn func(dev uintptr, gerr **gError) T) (T, error) {
	var zero T
	ptr, err := d.get()
	if err != nil {
		return zero, err
	}
	var gerr *gError
	v := fn(ptr, &gerr)
	runtime.KeepAlive(d.owner)
	if err := takeError(op, gerr); err != nil {
		return zero, err
	}
	return v, nil
}

func deviceExec(d *Device, op string, fn func(dev uintptr, gerr **gError)) error {
	_, err := deviceCall(d, op, func(dev uintptr, gerr **gError) struct{} {
		fn(dev, gerr)
		return struct{}{}
	})
	return err
}

// GetString returns the value of a string feature.
func (d *Device) GetString(feature string) (string, error) {
	return deviceCall(d, "GetString", func(dev uintptr, gerr **gError) string {
		return arv_device_get_string_feature_value(dev, feature, gerr)
	})
}

// SetString sets a string feature.
func (d *Device) SetString(feature, value string) error {
	return deviceExec(d, "SetString", func(dev uintptr, gerr **gError) {
		arv_device_set_string_feature_value(dev, feature, value, gerr)
	})
}

// GetInteger returns the value of an integer feature.
func (d *Device) GetInteger(feature string) (int64, error) {
	return deviceCall(d, "GetInteger", func(dev uintptr, gerr **gError) int64 {
		return arv_device_get_integer_feature_value(dev, feature, gerr)
	})
}

// SetInteger sets an integer feature.
func (d *Device) SetInteger(feature string, value int64) error {
	return deviceExec(d, "SetInteger", func(dev uintptr, gerr **gError) {
		arv_device_set_integer_feature_value(dev, feature, value, gerr)
	})
}

// GetFloat returns the value of a float feature.
func (d *Device) GetFloat(feature string) (float64, error) {
	return deviceCall(d, "GetFloat", func(dev uintptr, gerr **gError) float64 {
		return arv_device_get_float_feature_value(dev, feature, gerr)
	})
}

// SetFloat sets a float feature.
func (d *Device) SetFloat(feature string, value float64) error {
	return deviceExec(d, "SetFloat", func(dev uintptr, gerr **gError) {
		arv_device_set_float_feature_value(dev, feature, value, gerr)
	})
}

// GetBoolean returns the value of a boolean feature.
func (d *Device) GetBoolean(feature string) (bool, error) {
	return deviceCall(d, "GetBoolean", func(dev uintptr, gerr **gError) bool {
		return arv_device_get_boolean_feature_value(dev, feature, gerr)
	})
}

// SetBoolean sets a boolean feature.
func (d *Device) SetBoolean(feature string, value bool) error {
	return deviceExec(d, "SetBoolean", func(dev uintptr, gerr **gError) {
		arv_device_set_boolean_feature_value(dev, feature, value, gerr)
	})
}

// ExecuteCommand executes a command feature.
func (d *Device) ExecuteCommand(feature string) error {
	return deviceExec(d, "ExecuteCommand", func(dev uintptr, gerr **gError) {
		arv_device_execute_command(dev, feature, gerr)
	})
}

// IntegerBounds returns the range of an integer feature.
func (d *Device) IntegerBounds(feature string) (min, max int64, err error) {
	b, err := deviceCall(d, "IntegerBounds", func(dev uintptr, gerr **gError) [2]int64 {
		var min, max int64
		arv_device_get_integer_feature_bounds(dev, feature, &min, &max, gerr)
		return [2]int64{min, max}
	})
	return b[0], b[1], err
}

// FloatBounds returns the range of a float feature.
func (d *Device) FloatBounds(feature string) (min, max float64, err error) {
	b, err := deviceCall(d, "FloatBounds", func(dev uintptr, gerr **gError) [2]float64 {
		var min, max float64
		arv_device_get_float_feature_bounds(dev, feature, &min, &max, gerr)
		return [2]float64{min, max}
	})
	return b[0], b[1], err
}

// IntegerIncrement returns the step of an integer feature.
func (d *Device) IntegerIncrement(feature string) (int64, error) {
	if arv_device_get_integer_feature_increment == nil {
		return 0, d.unsupported()
	}
	return deviceCall(d, "IntegerIncrement", func(dev uintptr, gerr **gError) int64 {
		return arv_device_get_integer_feature_increment(dev, feature, gerr)
	})
}

// FloatIncrement returns the step of a float feature.
func (d *Device) FloatIncrement(feature string) (float64, error) {
	if arv_device_get_float_feature_increment == nil {
		return 0, d.unsupported()
	}
	return deviceCall(d, "FloatIncrement", func(dev uintptr, gerr **gError) float64 {
		return arv_device_get_float_feature_increment(dev, feature, gerr)
	})
}

// EnumerationValues returns the currently selectable entries of an
// enumeration feature.
func (d *Device) EnumerationValues(feature string) ([]string, error) {
	return deviceCall(d, "EnumerationValues", func(dev uintptr, gerr **gError) []string {
		var n uint32
		arr := arv_device_dup_available_enumeration_feature_values_as_strings(dev, feature, &n, gerr)
		return takeStringArray(arr, n)
	})
}

// EnumerationDisplayNames returns the display names of the currently
// selectable entries of an enumeration feature, in the order of
// EnumerationValues.
func (d *Device) EnumerationDisplayNames(feature string) ([]string, error) {
	if arv_device_dup_available_enumeration_feature_values_as_display_names == nil {
		return nil, d.unsupported()
	}
	return deviceCall(d, "EnumerationDisplayNames", func(dev uintptr, gerr **gError) []string {
		var n uint32
		arr := arv_device_dup_available_enumeration_feature_values_as_display_names(dev, feature, &n, gerr)
		return takeStringArray(arr, n)
	})
}

// GenicamXML returns the GenICam description document of the device. The
// document is copied out of memory owned by the device.
func (d *Device) GenicamXML() ([]byte, error) {
	ptr, err := d.get()
	if err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(d.owner)

	var size uintptr
	data := arv_device_get_genicam_xml(ptr, &size)
	if data == nil || size == 0 {
		return nil, &Error{Op: "GenicamXML", Message: "device has no GenICam document"}
	}
	xml := make([]byte, size)
	copy(xml, unsafe.Slice((*byte)(data), size))
	return xml, nil
}

func (d *Device) unsupported() error {
	if _, err := d.get(); err != nil {
		return err
	}
	return fmt.Errorf("device: %w", ErrUnsupported)
}

// takeStringArray copies a g_malloc'ed array of n borrowed C strings and
// frees the array itself.
func takeStringArray(arr unsafe.Pointer, n uint32) []string {
	if arr == nil {
		return nil
	}
	ptrs := unsafe.Slice((**byte)(arr), n)
	out := make([]string, n)
	for i, p := range ptrs {
		out[i] = goString(p)
	}
	g_free(arr)
	return out
}
