package deepvoice

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

// DeviceRegistry enumerates audio input devices and tracks the one the
// session records from. Selection defaults to the first enumerated input
// device until a caller picks one explicitly.
type DeviceRegistry struct {
	mu       sync.RWMutex
	devices  []DeviceDescriptor
	selected *int
	logger   *VoiceLogger
}

// NewDeviceRegistry creates a new device registry
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{
		devices: make([]DeviceDescriptor, 0),
		logger:  GetGlobalLogger().WithComponent("DeviceRegistry"),
	}
}

// Initialize initializes PortAudio and enumerates input devices.
func (dr *DeviceRegistry) Initialize() error {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		dr.logger.WithError(err).Error("Failed to initialize PortAudio")
		return err
	}

	if err := dr.refreshDevices(); err != nil {
		dr.logger.WithError(err).Error("Failed to refresh device list")
		return err
	}

	dr.logger.WithField("device_count", len(dr.devices)).Info("Device registry initialized")
	return nil
}

// Cleanup cleans up the device registry
func (dr *DeviceRegistry) Cleanup() {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if err := portaudio.Terminate(); err != nil {
		dr.logger.WithError(err).Error("Failed to terminate PortAudio")
	}

	dr.logger.Info("Device registry cleaned up")
}

func (dr *DeviceRegistry) refreshDevices() error {
	dr.devices = make([]DeviceDescriptor, 0)

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		dr.logger.WithError(err).Warn("No default input device")
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}

	for i, dev := range devices {
		if dev.MaxInputChannels <= 0 {
			continue
		}

		dr.devices = append(dr.devices, DeviceDescriptor{
			ID:                i,
			Label:             dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
			IsDefault:         defaultInput != nil && dev == defaultInput,
		})
	}

	return nil
}

// RefreshDevices re-enumerates the input devices. Enumeration may come
// back empty before the platform has granted microphone permission; the
// caller retries after the first successful capture.
func (dr *DeviceRegistry) RefreshDevices() error {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	return dr.refreshDevices()
}

// ListInputDevices returns all enumerated input devices.
func (dr *DeviceRegistry) ListInputDevices() []DeviceDescriptor {
	dr.mu.RLock()
	defer dr.mu.RUnlock()

	devices := make([]DeviceDescriptor, len(dr.devices))
	copy(devices, dr.devices)
	return devices
}

// Select makes the device with the given id the recording device.
func (dr *DeviceRegistry) Select(id int) *VoiceError {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	for _, device := range dr.devices {
		if device.ID == id {
			dr.selected = &id
			dr.logger.WithField("device_label", device.Label).Info("Input device selected")
			return nil
		}
	}
	return NewDeviceError("input device not found").AddDetail("device_id", id)
}

// CurrentSelection returns the active input device, defaulting to the
// first enumerated one when none has been chosen.
func (dr *DeviceRegistry) CurrentSelection() (DeviceDescriptor, *VoiceError) {
	dr.mu.RLock()
	defer dr.mu.RUnlock()

	if dr.selected != nil {
		for _, device := range dr.devices {
			if device.ID == *dr.selected {
				return device, nil
			}
		}
	}

	if len(dr.devices) > 0 {
		return dr.devices[0], nil
	}
	return DeviceDescriptor{}, NewDeviceError("no input devices available")
}

// GetDeviceByID returns an input device by its id.
func (dr *DeviceRegistry) GetDeviceByID(id int) (DeviceDescriptor, *VoiceError) {
	dr.mu.RLock()
	defer dr.mu.RUnlock()

	for _, device := range dr.devices {
		if device.ID == id {
			return device, nil
		}
	}
	return DeviceDescriptor{}, NewDeviceError("input device not found").AddDetail("device_id", id)
}

// ValidateDevice checks that a device can record with the requested format.
func (dr *DeviceRegistry) ValidateDevice(id int, channels int, sampleRate float64) *VoiceError {
	device, err := dr.GetDeviceByID(id)
	if err != nil {
		return err
	}

	if device.MaxInputChannels < channels {
		return NewDeviceError("device does not support requested channel count").
			AddDetail("device_label", device.Label).
			AddDetail("max_channels", device.MaxInputChannels).
			AddDetail("requested", channels)
	}

	if sampleRate > 0 && device.DefaultSampleRate > 0 {
		ratio := sampleRate / device.DefaultSampleRate
		if ratio < 0.5 || ratio > 2.0 {
			dr.logger.WithFields(map[string]interface{}{
				"device_label":          device.Label,
				"device_sample_rate":    device.DefaultSampleRate,
				"requested_sample_rate": sampleRate,
			}).Warn("Sample rate significantly different from device default")
		}
	}

	return nil
}
