package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad/plugins/base"
	"github.com/hashicorp/nomad/plugins/device"
	"github.com/hashicorp/nomad/plugins/shared/hclspec"
	"github.com/kr/pretty"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Standard-Cognition/go-aravis/aravis"
)

const (
	// pluginName is the deviceName of the plugin
	// this is used for logging and (along with the version) for uniquely identifying
	// plugin binaries fingerprinted by the client
	pluginName = "genicam-device"

	// plugin version allows the client to identify and use newer versions of
	// an installed plugin
	pluginVersion = "v0.1.0"

	// vendor is the label for the vendor providing the devices.
	// along with "type" and "model", this can be used when requesting devices:
	//   https://www.nomadproject.io/docs/job-specification/device.html#name
	vendor = "aravis"

	// deviceType is the "type" of device being returned
	deviceType = "genicam"

	// environment variable names
	deviceSerialNbr = "GENICAM_DEVICE_SERIAL_NBR"
	deviceAddress   = "GENICAM_DEVICE_ADDRESS"
	deviceID        = "GENICAM_DEVICE_ID"
)

var (
	// pluginInfo provides information used by Nomad to identify the plugin
	pluginInfo = &base.PluginInfoResponse{
		Type:              base.PluginTypeDevice,
		PluginApiVersions: []string{device.ApiVersion010},
		PluginVersion:     pluginVersion,
		Name:              pluginName,
	}

	// configSpec is the specification of the schema for this plugin's config.
	// this is used to validate the HCL for the plugin provided
	// as part of the client config:
	//   https://www.nomadproject.io/docs/configuration/plugin.html
	// options are here:
	//   https://github.com/hashicorp/nomad/blob/v0.10.0/plugins/shared/hclspec/hcl_spec.proto
	configSpec = hclspec.NewObject(map[string]*hclspec.Spec{
		"enabled": hclspec.NewDefault(
			hclspec.NewAttr("enabled", "bool", false),
			hclspec.NewLiteral("true"),
		),
		"fingerprint_period": hclspec.NewDefault(
			hclspec.NewAttr("fingerprint_period", "string", false),
			hclspec.NewLiteral("\"5s\""),
		),
		"library_dir": hclspec.NewAttr("library_dir", "string", false),
	})

	// error to return when a device is requested but the plugin isn't enabled
	errPluginDisabled = fmt.Errorf("genicam device is not enabled")
)

// Config contains configuration information for the plugin.
type Config struct {
	Enabled           bool   `codec:"enabled"`
	FingerprintPeriod string `codec:"fingerprint_period"`

	// LibraryDir is probed for libaravis after the system search path.
	LibraryDir string `codec:"library_dir"`
}

// deviceLister enumerates the cameras visible to the host.
type deviceLister interface {
	Discover() ([]aravis.DeviceInfo, error)
}

type aravisLister struct{}

func (aravisLister) Discover() ([]aravis.DeviceInfo, error) {
	return aravis.Discover()
}

// GenicamDevice is a Nomad device plugin exposing the GenICam cameras found
// by libaravis.
type GenicamDevice struct {
	logger log.Logger

	// enabled indicates whether the plugin should be enabled
	enabled bool

	// fingerprintPeriod the period for the fingerprinting loop
	fingerprintPeriod time.Duration

	lister   deviceLister
	initLibs func(opts ...aravis.Option) error

	// devices holds the devices seen by the last fingerprint, keyed by
	// serial number
	devices    map[string]*fingerprintedDevice
	deviceLock sync.RWMutex
}

// NewGenicamDevice returns a device plugin, used primarily by the main wrapper
//
// Plugin configuration isn't available yet, so there will typically be
// a limit to the initialization that can be performed at this point.
func NewGenicamDevice(log log.Logger) *GenicamDevice {
	return &GenicamDevice{
		logger:            log.Named(pluginName),
		fingerprintPeriod: 5 * time.Second,
		lister:            aravisLister{},
		initLibs:          aravis.Init,
		devices:           make(map[string]*fingerprintedDevice),
	}
}

// PluginInfo returns information describing the plugin.
//
// This is called during Nomad client startup, while discovering and loading
// plugins.
func (d *GenicamDevice) PluginInfo() (*base.PluginInfoResponse, error) {
	return pluginInfo, nil
}

// ConfigSchema returns the configuration schema for the plugin.
//
// This is called during Nomad client startup, immediately before parsing
// plugin config and calling SetConfig
func (d *GenicamDevice) ConfigSchema() (*hclspec.Spec, error) {
	return configSpec, nil
}

// SetConfig is called by the client to pass the configuration for the plugin.
func (d *GenicamDevice) SetConfig(c *base.Config) error {
	// decode the plugin config
	var config Config
	if err := base.MsgPackDecode(c.PluginConfig, &config); err != nil {
		return err
	}

	period, err := time.ParseDuration(config.FingerprintPeriod)
	if err != nil {
		return fmt.Errorf("failed to parse doFingerprint period %q: %v", config.FingerprintPeriod, err)
	}
	if period <= 0 {
		return fmt.Errorf("fingerprint period must be positive, got %q", config.FingerprintPeriod)
	}
	d.fingerprintPeriod = period
	d.enabled = config.Enabled
	d.logger.Info("configured plugin", "config", log.Fmt("% #v", pretty.Formatter(config)))

	if !d.enabled {
		return nil
	}

	// A missing libaravis is reported through the fingerprint channel, not
	// here, so the client keeps running.
	aravis.SetLogger(d.logger)
	if err := d.initLibs(aravis.WithSearchDirs(config.LibraryDir), aravis.WithLogger(d.logger)); err != nil {
		d.logger.Warn("failed to load libaravis", "error", err)
	}
	return nil
}

// Fingerprint streams detected devices.
// Messages should be emitted to the returned channel when there are changes
// to the devices or their health.
func (d *GenicamDevice) Fingerprint(ctx context.Context) (<-chan *device.FingerprintResponse, error) {
	outCh := make(chan *device.FingerprintResponse)
	go d.doFingerprint(ctx, outCh)
	return outCh, nil
}

// Stats streams statistics for the detected devices.
// Messages should be emitted to the returned channel on the specified interval.
func (d *GenicamDevice) Stats(ctx context.Context, interval time.Duration) (<-chan *device.StatsResponse, error) {
	outCh := make(chan *device.StatsResponse)
	go d.doStats(ctx, outCh, interval)
	return outCh, nil
}

type reservationError struct {
	notExistingIDs []string
}

func (e *reservationError) Error() string {
	return fmt.Sprintf("unknown device IDs: %s", strings.Join(e.notExistingIDs, ","))
}

// Reserve returns information to the task driver on on how to mount the given devices.
// It may also perform any device-specific orchestration necessary to prepare the device
// for use. This is called in a pre-start hook on the client, before starting the workload.
func (d *GenicamDevice) Reserve(deviceIDs []string) (*device.ContainerReservation, error) {
	if len(deviceIDs) == 0 {
		return &device.ContainerReservation{}, nil
	}

	if !d.enabled {
		return nil, errPluginDisabled
	}

	d.logger.Info("reserving device ids", "deviceIDs", pretty.Formatter(deviceIDs))

	// This pattern can be useful for some drivers to avoid a race condition where a device disappears
	// after being scheduled by the server but before the server gets an update on the fingerprint
	// channel that the device is no longer available.
	d.deviceLock.RLock()
	defer d.deviceLock.RUnlock()

	var notExistingIDs []string
	for _, id := range deviceIDs {
		if _, deviceIDExists := d.devices[id]; !deviceIDExists {
			notExistingIDs = append(notExistingIDs, id)
		}
	}
	if len(notExistingIDs) != 0 {
		return nil, &reservationError{notExistingIDs}
	}

	serials := make([]string, 0, len(deviceIDs))
	addresses := make([]string, 0, len(deviceIDs))
	ids := make([]string, 0, len(deviceIDs))
	for index, serialNbr := range deviceIDs {
		dev, found := d.devices[serialNbr]
		if !found {
			return nil, status.Newf(codes.InvalidArgument, "unknown device %q", serialNbr).Err()
		}

		d.logger.Info("got device", "index", index, "address", dev.address, "serial_nbr", serialNbr)
		serials = append(serials, serialNbr)
		addresses = append(addresses, dev.address)
		ids = append(ids, dev.deviceID)
	}

	// Envs are a set of environment variables to set for the task.
	return &device.ContainerReservation{
		Envs: map[string]string{
			deviceSerialNbr: strings.Join(serials, ","),
			deviceAddress:   strings.Join(addresses, ","),
			deviceID:        strings.Join(ids, ","),
		},
		Mounts:  []*device.Mount{},
		Devices: []*device.DeviceSpec{},
	}, nil
}
