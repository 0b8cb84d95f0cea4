package device

import (
	"context"
	"sort"
	"time"

	"github.com/hashicorp/nomad/plugins/device"
	"github.com/hashicorp/nomad/plugins/shared/structs"
)

// doStats is the long running goroutine that streams device statistics
func (d *GenicamDevice) doStats(ctx context.Context, stats chan<- *device.StatsResponse, interval time.Duration) {
	defer close(stats)

	if interval <= 0 {
		interval = d.fingerprintPeriod
	}

	// Create a timer that will fire immediately for the first collection
	ticker := time.NewTimer(0)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticker.Reset(interval)
		}

		select {
		case stats <- d.collectStats(time.Now()):
		case <-ctx.Done():
			return
		}
	}
}

// collectStats reports every device of the last fingerprint as present,
// grouped the same way the fingerprint groups them.
func (d *GenicamDevice) collectStats(now time.Time) *device.StatsResponse {
	d.deviceLock.RLock()
	defer d.deviceLock.RUnlock()

	groups := make(map[string]*device.DeviceGroupStats)
	for serial, dev := range d.devices {
		group, ok := groups[dev.model]
		if !ok {
			group = &device.DeviceGroupStats{
				Vendor:        vendor,
				Type:          deviceType,
				Name:          dev.model,
				InstanceStats: make(map[string]*device.DeviceStats),
			}
			groups[dev.model] = group
		}
		group.InstanceStats[serial] = deviceStats(dev, now)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := &device.StatsResponse{Groups: make([]*device.DeviceGroupStats, 0, len(names))}
	for _, name := range names {
		resp.Groups = append(resp.Groups, groups[name])
	}
	return resp
}

func deviceStats(dev *fingerprintedDevice, now time.Time) *device.DeviceStats {
	return &device.DeviceStats{
		Summary: &structs.StatValue{
			BoolVal: boolPtr(true),
			Desc:    "present",
		},
		Stats: &structs.StatObject{
			Attributes: map[string]*structs.StatValue{
				"address":     {StringVal: stringPtr(dev.address), Desc: "Device address"},
				"protocol":    {StringVal: stringPtr(dev.protocol), Desc: "Transport protocol"},
				"physical_id": {StringVal: stringPtr(dev.physicalID), Desc: "Physical id"},
			},
		},
		Timestamp: now,
	}
}

func boolPtr(b bool) *bool { return &b }

func stringPtr(s string) *string { return &s }
