package aravis

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// gError mirrors GLib's GError.
type gError struct {
	domain  uint32
	code    int32
	message *byte
}

// gSList mirrors GLib's GSList node.
type gSList struct {
	data *byte
	next *gSList
}

// Native entry points. They are nil until Init binds them.
var (
	// glib
	g_error_free      func(err *gError)
	g_free            func(p unsafe.Pointer)
	g_quark_to_string func(quark uint32) string

	// gobject
	g_object_unref            func(obj uintptr)
	g_type_name_from_instance func(instance uintptr) string

	// discovery
	arv_update_device_list     func()
	arv_get_n_devices          func() uint32
	arv_get_device_id          func(index uint32) string
	arv_get_device_physical_id func(index uint32) string
	arv_get_device_model       func(index uint32) string
	arv_get_device_serial_nbr  func(index uint32) string
	arv_get_device_vendor      func(index uint32) string
	arv_get_device_address     func(index uint32) string
	arv_get_device_protocol    func(index uint32) string
	arv_shutdown               func()

	// camera
	arv_camera_new                               func(name *byte, err **gError) uintptr
	arv_camera_get_vendor_name                   func(cam uintptr, err **gError) string
	arv_camera_get_model_name                    func(cam uintptr, err **gError) string
	arv_camera_get_device_serial_number          func(cam uintptr, err **gError) string
	arv_camera_get_device_id                     func(cam uintptr, err **gError) string
	arv_camera_get_region                        func(cam uintptr, x, y, width, height *int32, err **gError)
	arv_camera_set_region                        func(cam uintptr, x, y, width, height int32, err **gError)
	arv_camera_get_width_bounds                  func(cam uintptr, min, max *int32, err **gError)
	arv_camera_get_height_bounds                 func(cam uintptr, min, max *int32, err **gError)
	arv_camera_get_width_increment               func(cam uintptr, err **gError) int32
	arv_camera_get_height_increment              func(cam uintptr, err **gError) int32
	arv_camera_get_binning                       func(cam uintptr, dx, dy *int32, err **gError)
	arv_camera_set_binning                       func(cam uintptr, dx, dy int32, err **gError)
	arv_camera_get_sensor_size                   func(cam uintptr, width, height *int32, err **gError)
	arv_camera_get_pixel_format                  func(cam uintptr, err **gError) uint32
	arv_camera_set_pixel_format                  func(cam uintptr, format uint32, err **gError)
	arv_camera_get_pixel_format_as_string        func(cam uintptr, err **gError) string
	arv_camera_set_pixel_format_from_string      func(cam uintptr, format string, err **gError)
	arv_camera_start_acquisition                 func(cam uintptr, err **gError)
	arv_camera_stop_acquisition                  func(cam uintptr, err **gError)
	arv_camera_abort_acquisition                 func(cam uintptr, err **gError)
	arv_camera_set_exposure_time                 func(cam uintptr, us float64, err **gError)
	arv_camera_get_exposure_time                 func(cam uintptr, err **gError) float64
	arv_camera_get_exposure_time_bounds          func(cam uintptr, min, max *float64, err **gError)
	arv_camera_get_exposure_time_auto            func(cam uintptr, err **gError) int32
	arv_camera_set_exposure_time_auto            func(cam uintptr, mode int32, err **gError)
	arv_camera_set_gain                          func(cam uintptr, gain float64, err **gError)
	arv_camera_get_gain                          func(cam uintptr, err **gError) float64
	arv_camera_get_gain_bounds                   func(cam uintptr, min, max *float64, err **gError)
	arv_camera_get_gain_auto                     func(cam uintptr, err **gError) int32
	arv_camera_set_gain_auto                     func(cam uintptr, mode int32, err **gError)
	arv_camera_set_frame_rate                    func(cam uintptr, fps float64, err **gError)
	arv_camera_get_frame_rate                    func(cam uintptr, err **gError) float64
	arv_camera_get_frame_rate_bounds             func(cam uintptr, min, max *float64, err **gError)
	arv_camera_get_acquisition_mode              func(cam uintptr, err **gError) int32
	arv_camera_set_acquisition_mode              func(cam uintptr, mode int32, err **gError)
	arv_camera_get_frame_count                   func(cam uintptr, err **gError) int64
	arv_camera_set_frame_count                   func(cam uintptr, count int64, err **gError)
	arv_camera_get_frame_count_bounds            func(cam uintptr, min, max *int64, err **gError)
	arv_camera_get_payload                       func(cam uintptr, err **gError) uint32
	arv_camera_set_trigger                       func(cam uintptr, source string, err **gError)
	arv_camera_set_trigger_source                func(cam uintptr, source string, err **gError)
	arv_camera_get_trigger_source                func(cam uintptr, err **gError) string
	arv_camera_clear_triggers                    func(cam uintptr, err **gError)
	arv_camera_is_software_trigger_supported     func(cam uintptr, err **gError) bool
	arv_camera_software_trigger                  func(cam uintptr, err **gError)
	arv_camera_execute_command                   func(cam uintptr, feature string, err **gError)
	arv_camera_get_string                        func(cam uintptr, feature string, err **gError) string
	arv_camera_set_string                        func(cam uintptr, feature, value string, err **gError)
	arv_camera_get_integer                       func(cam uintptr, feature string, err **gError) int64
	arv_camera_set_integer                       func(cam uintptr, feature string, value int64, err **gError)
	arv_camera_get_float                         func(cam uintptr, feature string, err **gError) float64
	arv_camera_set_float                         func(cam uintptr, feature string, value float64, err **gError)
	arv_camera_get_boolean                       func(cam uintptr, feature string, err **gError) bool
	arv_camera_set_boolean                       func(cam uintptr, feature string, value bool, err **gError)
	arv_camera_get_integer_bounds                func(cam uintptr, feature string, min, max *int64, err **gError)
	arv_camera_get_float_bounds                  func(cam uintptr, feature string, min, max *float64, err **gError)
	arv_camera_get_integer_increment             func(cam uintptr, feature string, err **gError) int64
	arv_camera_get_float_increment               func(cam uintptr, feature string, err **gError) float64
	arv_camera_is_feature_available              func(cam uintptr, feature string, err **gError) bool
	arv_camera_is_binning_available              func(cam uintptr, err **gError) bool
	arv_camera_is_exposure_time_available        func(cam uintptr, err **gError) bool
	arv_camera_is_exposure_auto_available        func(cam uintptr, err **gError) bool
	arv_camera_is_gain_available                 func(cam uintptr, err **gError) bool
	arv_camera_is_gain_auto_available            func(cam uintptr, err **gError) bool
	arv_camera_is_frame_rate_available           func(cam uintptr, err **gError) bool
	arv_camera_is_gv_device                      func(cam uintptr) bool
	arv_camera_is_uv_device                      func(cam uintptr) bool
	arv_camera_gv_auto_packet_size               func(cam uintptr, err **gError) uint32
	arv_camera_gv_get_packet_size                func(cam uintptr, err **gError) uint32
	arv_camera_gv_set_packet_size                func(cam uintptr, size int32, err **gError)
	arv_camera_uv_get_bandwidth                  func(cam uintptr, err **gError) uint32
	arv_camera_uv_set_bandwidth                  func(cam uintptr, bandwidth uint32, err **gError)
	arv_camera_uv_get_bandwidth_bounds           func(cam uintptr, min, max *uint32, err **gError)
	arv_camera_uv_is_bandwidth_control_available func(cam uintptr, err **gError) bool
	arv_camera_create_stream                     func(cam uintptr, callback, userData uintptr, err **gError) uintptr
	arv_camera_get_device                        func(cam uintptr) uintptr

	// stream
	arv_stream_push_buffer        func(stream, buffer uintptr)
	arv_stream_pop_buffer         func(stream uintptr) uintptr
	arv_stream_timeout_pop_buffer func(stream uintptr, timeoutUs uint64) uintptr
	arv_stream_get_statistics     func(stream uintptr, completed, failures, underruns *uint64)
	arv_stream_get_n_buffers      func(stream uintptr, input, output *int32)
	arv_stream_set_emit_signals   func(stream uintptr, emit bool)

	// buffer
	arv_buffer_new_allocate           func(size uintptr) uintptr
	arv_buffer_get_status             func(buffer uintptr) int32
	arv_buffer_get_data               func(buffer uintptr, size *uintptr) unsafe.Pointer
	arv_buffer_get_image_region       func(buffer uintptr, x, y, width, height *int32)
	arv_buffer_get_image_width        func(buffer uintptr) int32
	arv_buffer_get_image_height       func(buffer uintptr) int32
	arv_buffer_get_image_pixel_format func(buffer uintptr) uint32
	arv_buffer_get_timestamp          func(buffer uintptr) uint64
	arv_buffer_get_system_timestamp   func(buffer uintptr) uint64
	arv_buffer_get_frame_id           func(buffer uintptr) uint64

	// device
	arv_device_get_string_feature_value                                  func(dev uintptr, feature string, err **gError) string
	arv_device_set_string_feature_value                                  func(dev uintptr, feature, value string, err **gError)
	arv_device_get_integer_feature_value                                 func(dev uintptr, feature string, err **gError) int64
	arv_device_set_integer_feature_value                                 func(dev uintptr, feature string, value int64, err **gError)
	arv_device_get_float_feature_value                                   func(dev uintptr, feature string, err **gError) float64
	arv_device_set_float_feature_value                                   func(dev uintptr, feature string, value float64, err **gError)
	arv_device_get_boolean_feature_value                                 func(dev uintptr, feature string, err **gError) bool
	arv_device_set_boolean_feature_value                                 func(dev uintptr, feature string, value bool, err **gError)
	arv_device_execute_command                                           func(dev uintptr, feature string, err **gError)
	arv_device_get_integer_feature_bounds                                func(dev uintptr, feature string, min, max *int64, err **gError)
	arv_device_get_integer_feature_increment                             func(dev uintptr, feature string, err **gError) int64
	arv_device_get_float_feature_bounds                                  func(dev uintptr, feature string, min, max *float64, err **gError)
	arv_device_get_float_feature_increment                               func(dev uintptr, feature string, err **gError) float64
	arv_device_dup_available_enumeration_feature_values_as_strings       func(dev uintptr, feature string, n *uint32, err **gError) unsafe.Pointer
	arv_device_dup_available_enumeration_feature_values_as_display_names func(dev uintptr, feature string, n *uint32, err **gError) unsafe.Pointer
	arv_device_get_genicam                                               func(dev uintptr) uintptr
	arv_device_get_genicam_xml                                           func(dev uintptr, size *uintptr) unsafe.Pointer

	// genicam
	arv_gc_get_node                            func(gc uintptr, name string) uintptr
	arv_gc_category_get_features               func(category uintptr) unsafe.Pointer
	arv_gc_feature_node_get_name               func(node uintptr) string
	arv_gc_feature_node_get_display_name       func(node uintptr) string
	arv_gc_feature_node_get_description        func(node uintptr) string
	arv_gc_feature_node_get_tooltip            func(node uintptr) string
	arv_gc_feature_node_get_value_as_string    func(node uintptr, err **gError) string
	arv_gc_feature_node_get_actual_access_mode func(node uintptr) int32
	arv_gc_feature_node_get_visibility         func(node uintptr) int32
	arv_gc_feature_node_is_available           func(node uintptr, err **gError) bool
	arv_gc_feature_node_is_implemented         func(node uintptr, err **gError) bool
	arv_gc_feature_node_is_locked              func(node uintptr, err **gError) bool
)

type symbol struct {
	fn       interface{}
	name     string
	lib      string
	optional bool
}

func sym(fn interface{}, name string) symbol {
	return symbol{fn: fn, name: name, lib: LibAravis}
}

func optSym(fn interface{}, name string) symbol {
	return symbol{fn: fn, name: name, lib: LibAravis, optional: true}
}

var symbols = []symbol{
	{fn: &g_error_free, name: "g_error_free", lib: LibGLib},
	{fn: &g_free, name: "g_free", lib: LibGLib},
	{fn: &g_quark_to_string, name: "g_quark_to_string", lib: LibGLib},
	{fn: &g_object_unref, name: "g_object_unref", lib: LibGObject},
	{fn: &g_type_name_from_instance, name: "g_type_name_from_instance", lib: LibGObject},

	sym(&arv_update_device_list, "arv_update_device_list"),
	sym(&arv_get_n_devices, "arv_get_n_devices"),
	sym(&arv_get_device_id, "arv_get_device_id"),
	sym(&arv_get_device_physical_id, "arv_get_device_physical_id"),
	sym(&arv_get_device_model, "arv_get_device_model"),
	sym(&arv_get_device_serial_nbr, "arv_get_device_serial_nbr"),
	sym(&arv_get_device_vendor, "arv_get_device_vendor"),
	sym(&arv_get_device_address, "arv_get_device_address"),
	sym(&arv_get_device_protocol, "arv_get_device_protocol"),
	sym(&arv_shutdown, "arv_shutdown"),

	sym(&arv_camera_new, "arv_camera_new"),
	sym(&arv_camera_get_vendor_name, "arv_camera_get_vendor_name"),
	sym(&arv_camera_get_model_name, "arv_camera_get_model_name"),
	sym(&arv_camera_get_device_serial_number, "arv_camera_get_device_serial_number"),
	sym(&arv_camera_get_device_id, "arv_camera_get_device_id"),
	sym(&arv_camera_get_region, "arv_camera_get_region"),
	sym(&arv_camera_set_region, "arv_camera_set_region"),
	sym(&arv_camera_get_width_bounds, "arv_camera_get_width_bounds"),
	sym(&arv_camera_get_height_bounds, "arv_camera_get_height_bounds"),
	sym(&arv_camera_get_width_increment, "arv_camera_get_width_increment"),
	sym(&arv_camera_get_height_increment, "arv_camera_get_height_increment"),
	sym(&arv_camera_get_binning, "arv_camera_get_binning"),
	sym(&arv_camera_set_binning, "arv_camera_set_binning"),
	sym(&arv_camera_get_sensor_size, "arv_camera_get_sensor_size"),
	sym(&arv_camera_get_pixel_format, "arv_camera_get_pixel_format"),
	sym(&arv_camera_set_pixel_format, "arv_camera_set_pixel_format"),
	sym(&arv_camera_get_pixel_format_as_string, "arv_camera_get_pixel_format_as_string"),
	sym(&arv_camera_set_pixel_format_from_string, "arv_camera_set_pixel_format_from_string"),
	sym(&arv_camera_start_acquisition, "arv_camera_start_acquisition"),
	sym(&arv_camera_stop_acquisition, "arv_camera_stop_acquisition"),
	sym(&arv_camera_abort_acquisition, "arv_camera_abort_acquisition"),
	sym(&arv_camera_set_exposure_time, "arv_camera_set_exposure_time"),
	sym(&arv_camera_get_exposure_time, "arv_camera_get_exposure_time"),
	sym(&arv_camera_get_exposure_time_bounds, "arv_camera_get_exposure_time_bounds"),
	sym(&arv_camera_get_exposure_time_auto, "arv_camera_get_exposure_time_auto"),
	sym(&arv_camera_set_exposure_time_auto, "arv_camera_set_exposure_time_auto"),
	sym(&arv_camera_set_gain, "arv_camera_set_gain"),
	sym(&arv_camera_get_gain, "arv_camera_get_gain"),
	sym(&arv_camera_get_gain_bounds, "arv_camera_get_gain_bounds"),
	sym(&arv_camera_get_gain_auto, "arv_camera_get_gain_auto"),
	sym(&arv_camera_set_gain_auto, "arv_camera_set_gain_auto"),
	sym(&arv_camera_set_frame_rate, "arv_camera_set_frame_rate"),
	sym(&arv_camera_get_frame_rate, "arv_camera_get_frame_rate"),
	sym(&arv_camera_get_frame_rate_bounds, "arv_camera_get_frame_rate_bounds"),
	sym(&arv_camera_get_acquisition_mode, "arv_camera_get_acquisition_mode"),
	sym(&arv_camera_set_acquisition_mode, "arv_camera_set_acquisition_mode"),
	optSym(&arv_camera_get_frame_count, "arv_camera_get_frame_count"),
	optSym(&arv_camera_set_frame_count, "arv_camera_set_frame_count"),
	optSym(&arv_camera_get_frame_count_bounds, "arv_camera_get_frame_count_bounds"),
	sym(&arv_camera_get_payload, "arv_camera_get_payload"),
	sym(&arv_camera_set_trigger, "arv_camera_set_trigger"),
	sym(&arv_camera_set_trigger_source, "arv_camera_set_trigger_source"),
	sym(&arv_camera_get_trigger_source, "arv_camera_get_trigger_source"),
	sym(&arv_camera_clear_triggers, "arv_camera_clear_triggers"),
	optSym(&arv_camera_is_software_trigger_supported, "arv_camera_is_software_trigger_supported"),
	sym(&arv_camera_software_trigger, "arv_camera_software_trigger"),
	sym(&arv_camera_execute_command, "arv_camera_execute_command"),
	sym(&arv_camera_get_string, "arv_camera_get_string"),
	sym(&arv_camera_set_string, "arv_camera_set_string"),
	sym(&arv_camera_get_integer, "arv_camera_get_integer"),
	sym(&arv_camera_set_integer, "arv_camera_set_integer"),
	sym(&arv_camera_get_float, "arv_camera_get_float"),
	sym(&arv_camera_set_float, "arv_camera_set_float"),
	sym(&arv_camera_get_boolean, "arv_camera_get_boolean"),
	sym(&arv_camera_set_boolean, "arv_camera_set_boolean"),
	sym(&arv_camera_get_integer_bounds, "arv_camera_get_integer_bounds"),
	sym(&arv_camera_get_float_bounds, "arv_camera_get_float_bounds"),
	optSym(&arv_camera_get_integer_increment, "arv_camera_get_integer_increment"),
	optSym(&arv_camera_get_float_increment, "arv_camera_get_float_increment"),
	sym(&arv_camera_is_feature_available, "arv_camera_is_feature_available"),
	sym(&arv_camera_is_binning_available, "arv_camera_is_binning_available"),
	sym(&arv_camera_is_exposure_time_available, "arv_camera_is_exposure_time_available"),
	sym(&arv_camera_is_exposure_auto_available, "arv_camera_is_exposure_auto_available"),
	sym(&arv_camera_is_gain_available, "arv_camera_is_gain_available"),
	sym(&arv_camera_is_gain_auto_available, "arv_camera_is_gain_auto_available"),
	sym(&arv_camera_is_frame_rate_available, "arv_camera_is_frame_rate_available"),
	sym(&arv_camera_is_gv_device, "arv_camera_is_gv_device"),
	sym(&arv_camera_is_uv_device, "arv_camera_is_uv_device"),
	sym(&arv_camera_gv_auto_packet_size, "arv_camera_gv_auto_packet_size"),
	sym(&arv_camera_gv_get_packet_size, "arv_camera_gv_get_packet_size"),
	sym(&arv_camera_gv_set_packet_size, "arv_camera_gv_set_packet_size"),
	sym(&arv_camera_uv_get_bandwidth, "arv_camera_uv_get_bandwidth"),
	sym(&arv_camera_uv_set_bandwidth, "arv_camera_uv_set_bandwidth"),
	sym(&arv_camera_uv_get_bandwidth_bounds, "arv_camera_uv_get_bandwidth_bounds"),
	optSym(&arv_camera_uv_is_bandwidth_control_available, "arv_camera_uv_is_bandwidth_control_available"),
	sym(&arv_camera_create_stream, "arv_camera_create_stream"),
	sym(&arv_camera_get_device, "arv_camera_get_device"),

	sym(&arv_stream_push_buffer, "arv_stream_push_buffer"),
	sym(&arv_stream_pop_buffer, "arv_stream_pop_buffer"),
	sym(&arv_stream_timeout_pop_buffer, "arv_stream_timeout_pop_buffer"),
	sym(&arv_stream_get_statistics, "arv_stream_get_statistics"),
	sym(&arv_stream_get_n_buffers, "arv_stream_get_n_buffers"),
	sym(&arv_stream_set_emit_signals, "arv_stream_set_emit_signals"),

	sym(&arv_buffer_new_allocate, "arv_buffer_new_allocate"),
	sym(&arv_buffer_get_status, "arv_buffer_get_status"),
	sym(&arv_buffer_get_data, "arv_buffer_get_data"),
	sym(&arv_buffer_get_image_region, "arv_buffer_get_image_region"),
	sym(&arv_buffer_get_image_width, "arv_buffer_get_image_width"),
	sym(&arv_buffer_get_image_height, "arv_buffer_get_image_height"),
	sym(&arv_buffer_get_image_pixel_format, "arv_buffer_get_image_pixel_format"),
	sym(&arv_buffer_get_timestamp, "arv_buffer_get_timestamp"),
	sym(&arv_buffer_get_system_timestamp, "arv_buffer_get_system_timestamp"),
	sym(&arv_buffer_get_frame_id, "arv_buffer_get_frame_id"),

	sym(&arv_device_get_string_feature_value, "arv_device_get_string_feature_value"),
	sym(&arv_device_set_string_feature_value, "arv_device_set_string_feature_value"),
	sym(&arv_device_get_integer_feature_value, "arv_device_get_integer_feature_value"),
	sym(&arv_device_set_integer_feature_value, "arv_device_set_integer_feature_value"),
	sym(&arv_device_get_float_feature_value, "arv_device_get_float_feature_value"),
	sym(&arv_device_set_float_feature_value, "arv_device_set_float_feature_value"),
	sym(&arv_device_get_boolean_feature_value, "arv_device_get_boolean_feature_value"),
	sym(&arv_device_set_boolean_feature_value, "arv_device_set_boolean_feature_value"),
	sym(&arv_device_execute_command, "arv_device_execute_command"),
	sym(&arv_device_get_integer_feature_bounds, "arv_device_get_integer_feature_bounds"),
	optSym(&arv_device_get_integer_feature_increment, "arv_device_get_integer_feature_increment"),
	sym(&arv_device_get_float_feature_bounds, "arv_device_get_float_feature_bounds"),
	optSym(&arv_device_get_float_feature_increment, "arv_device_get_float_feature_increment"),
	sym(&arv_device_dup_available_enumeration_feature_values_as_strings, "arv_device_dup_available_enumeration_feature_values_as_strings"),
	optSym(&arv_device_dup_available_enumeration_feature_values_as_display_names, "arv_device_dup_available_enumeration_feature_values_as_display_names"),
	sym(&arv_device_get_genicam, "arv_device_get_genicam"),
	sym(&arv_device_get_genicam_xml, "arv_device_get_genicam_xml"),

	sym(&arv_gc_get_node, "arv_gc_get_node"),
	sym(&arv_gc_category_get_features, "arv_gc_category_get_features"),
	sym(&arv_gc_feature_node_get_name, "arv_gc_feature_node_get_name"),
	sym(&arv_gc_feature_node_get_display_name, "arv_gc_feature_node_get_display_name"),
	sym(&arv_gc_feature_node_get_description, "arv_gc_feature_node_get_description"),
	sym(&arv_gc_feature_node_get_tooltip, "arv_gc_feature_node_get_tooltip"),
	sym(&arv_gc_feature_node_get_value_as_string, "arv_gc_feature_node_get_value_as_string"),
	sym(&arv_gc_feature_node_get_actual_access_mode, "arv_gc_feature_node_get_actual_access_mode"),
	sym(&arv_gc_feature_node_get_visibility, "arv_gc_feature_node_get_visibility"),
	sym(&arv_gc_feature_node_is_available, "arv_gc_feature_node_is_available"),
	sym(&arv_gc_feature_node_is_implemented, "arv_gc_feature_node_is_implemented"),
	sym(&arv_gc_feature_node_is_locked, "arv_gc_feature_node_is_locked"),
}

// bindSymbols resolves every entry of the symbol table against the loaded
// modules. Optional symbols that are missing are left nil.
func bindSymbols(libs map[string]uintptr) error {
	for _, s := range symbols {
		addr, err := lookupSymbol(libs[s.lib], s.name)
		if err != nil || addr == 0 {
			if s.optional {
				logger().Debug("optional symbol not found", "symbol", s.name, "library", s.lib)
				continue
			}
			if err == nil {
				err = errors.New("null address")
			}
			return errors.Wrapf(err, "resolve %s in %s", s.name, s.lib)
		}
		purego.RegisterFunc(s.fn, addr)
	}
	return nil
}
