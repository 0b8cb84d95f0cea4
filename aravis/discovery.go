package aravis

import (
	"fmt"
)

// DeviceInfo describes a device found by the last device list update.
type DeviceInfo struct {
	Index        uint
	ID           string
	PhysicalID   string
	Model        string
	SerialNumber string
	Vendor       string
	Address      string
	Protocol     string
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s %s (S/N: %s) [%s] @ %s", d.Vendor, d.Model, d.SerialNumber, d.Protocol, d.Address)
}

// UpdateDeviceList rescans the GigE Vision and USB3 Vision interfaces.
func UpdateDeviceList() error {
	if err := Init(); err != nil {
		return err
	}
	arv_update_device_list()
	return nil
}

// GetNumDevices returns the number of devices found by the last update.
func GetNumDevices() (uint, error) {
	if err := Init(); err != nil {
		return 0, err
	}
	return uint(arv_get_n_devices()), nil
}

// GetDeviceInfo returns the description of the device at index, or nil if
// the index does not name a device.
func GetDeviceInfo(index uint) (*DeviceInfo, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	i := uint32(index)
	id := arv_get_device_id(i)
	if id == "" {
		return nil, nil
	}

	return &DeviceInfo{
		Index:        index,
		ID:           id,
		PhysicalID:   arv_get_device_physical_id(i),
		Model:        arv_get_device_model(i),
		SerialNumber: arv_get_device_serial_nbr(i),
		Vendor:       arv_get_device_vendor(i),
		Address:      arv_get_device_address(i),
		Protocol:     arv_get_device_protocol(i),
	}, nil
}

// GetDevices returns the devices found by the last update.
func GetDevices() ([]DeviceInfo, error) {
	ndevices, err := GetNumDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, 0, ndevices)
	for index := uint(0); index < ndevices; index++ {
		info, err := GetDeviceInfo(index)
		if err != nil {
			return nil, err
		}
		if info != nil {
			devices = append(devices, *info)
		}
	}
	return devices, nil
}

// Discover updates the device list and returns every device on it.
func Discover() ([]DeviceInfo, error) {
	if err := UpdateDeviceList(); err != nil {
		return nil, err
	}
	return GetDevices()
}

// Shutdown releases the interface singletons held by libaravis. Cameras
// must be closed before calling it.
func Shutdown() {
	if Loaded() {
		arv_shutdown()
	}
}
