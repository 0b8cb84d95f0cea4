package device

import (
	"context"
	"sort"
	"time"

	"github.com/hashicorp/nomad/plugins/device"
	"github.com/hashicorp/nomad/plugins/shared/structs"

	"github.com/Standard-Cognition/go-aravis/aravis"
)

// doFingerprint is the long-running goroutine that detects device changes
func (d *GenicamDevice) doFingerprint(ctx context.Context, devices chan *device.FingerprintResponse) {
	defer close(devices)

	// Create a timer that will fire immediately for the first detection
	ticker := time.NewTimer(0)
	defer ticker.Stop()

	var last *device.FingerprintResponse
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticker.Reset(d.fingerprintPeriod)
		}

		resp, changed := d.fingerprint()
		if last != nil && !changed {
			continue
		}
		last = resp

		select {
		case devices <- resp:
		case <-ctx.Done():
			return
		}
	}
}

// fingerprintedDevice is what we discover and transform into device.Device objects.
type fingerprintedDevice struct {
	deviceID   string
	physicalID string
	model      string
	serialNbr  string
	vendor     string
	address    string
	protocol   string
}

func fingerprintedFromInfo(info aravis.DeviceInfo) *fingerprintedDevice {
	return &fingerprintedDevice{
		deviceID:   info.ID,
		physicalID: info.PhysicalID,
		model:      info.Model,
		serialNbr:  info.SerialNumber,
		vendor:     info.Vendor,
		address:    info.Address,
		protocol:   info.Protocol,
	}
}

// fingerprint runs one discovery pass, replaces the known device set and
// builds the response for it. changed reports whether the set differs from
// the previous pass.
func (d *GenicamDevice) fingerprint() (*device.FingerprintResponse, bool) {
	if !d.enabled {
		return device.NewFingerprint(), d.replaceDevices(nil)
	}

	infos, err := d.lister.Discover()
	if err != nil {
		d.logger.Error("failed to get devices", "error", err)
		d.replaceDevices(nil)
		return device.NewFingerprintError(err), true
	}

	discovered := make(map[string]*fingerprintedDevice, len(infos))
	for _, info := range infos {
		if info.SerialNumber == "" {
			d.logger.Warn("skipping device without serial number", "device_id", info.ID)
			continue
		}
		d.logger.Debug("found device", "device_id", info.ID, "address", info.Address)
		discovered[info.SerialNumber] = fingerprintedFromInfo(info)
	}
	changed := d.replaceDevices(discovered)

	// during fingerprinting, devices are grouped by "device group" in
	// order to facilitate scheduling
	// devices in the same device group should have the same
	// Vendor, Type, and Name ("Model")
	deviceListByDeviceName := make(map[string][]*fingerprintedDevice)
	for _, dev := range discovered {
		deviceListByDeviceName[dev.model] = append(deviceListByDeviceName[dev.model], dev)
	}

	names := make([]string, 0, len(deviceListByDeviceName))
	for name := range deviceListByDeviceName {
		names = append(names, name)
	}
	sort.Strings(names)

	deviceGroups := make([]*device.DeviceGroup, 0, len(names))
	for _, groupName := range names {
		deviceGroups = append(deviceGroups, deviceGroupFromFingerprintData(groupName, deviceListByDeviceName[groupName]))
	}
	return device.NewFingerprint(deviceGroups...), changed
}

// replaceDevices swaps in a new device set and reports whether it differs
// from the old one.
func (d *GenicamDevice) replaceDevices(devices map[string]*fingerprintedDevice) bool {
	if devices == nil {
		devices = map[string]*fingerprintedDevice{}
	}

	d.deviceLock.Lock()
	defer d.deviceLock.Unlock()

	changed := len(devices) != len(d.devices)
	for serial, dev := range devices {
		old, ok := d.devices[serial]
		if !ok || *old != *dev {
			changed = true
			break
		}
	}
	d.devices = devices
	return changed
}

// deviceGroupFromFingerprintData composes deviceGroup from a slice of detected devicers
func deviceGroupFromFingerprintData(groupName string, deviceList []*fingerprintedDevice) *device.DeviceGroup {
	// deviceGroup without devices makes no sense -> return nil when no devices are provided
	if len(deviceList) == 0 {
		return nil
	}

	sort.Slice(deviceList, func(i, j int) bool {
		return deviceList[i].serialNbr < deviceList[j].serialNbr
	})

	devices := make([]*device.Device, 0, len(deviceList))
	for _, dev := range deviceList {
		devices = append(devices, &device.Device{
			ID:      dev.serialNbr,
			Healthy: true,
		})
	}

	first := deviceList[0]
	return &device.DeviceGroup{
		Vendor:  vendor,
		Type:    deviceType,
		Name:    groupName,
		Devices: devices,
		// The device API assumes that devices with the same DeviceName have the same
		// attributes. If not, then they'll need to be split into different device
		// groups with different names.
		Attributes: map[string]*structs.Attribute{
			"vendor":   structs.NewStringAttribute(first.vendor),
			"model":    structs.NewStringAttribute(first.model),
			"protocol": structs.NewStringAttribute(first.protocol),
		},
	}
}
