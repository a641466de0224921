package persistence

import (
	"github.com/pkg/errors"
)

// ErrDeviceNotFound is returned when a descriptor address names a device the
// pool does not contain.
var ErrDeviceNotFound = errors.New("device not found")

// Pool owns the collection of devices blocks are scattered across.
type Pool struct {
	devices map[uint32]*Device
}

// NewPool creates a pool from its member devices. Device ids must be unique.
func NewPool(devices ...*Device) (*Pool, error) {
	p := &Pool{
		devices: make(map[uint32]*Device, len(devices)),
	}
	for _, dev := range devices {
		if _, exists := p.devices[dev.ID()]; exists {
			return nil, errors.Errorf("duplicated device id %d", dev.ID())
		}
		p.devices[dev.ID()] = dev
	}
	return p, nil
}

// Device looks up a member device by id.
func (p *Pool) Device(id uint32) (*Device, bool) {
	dev, exists := p.devices[id]
	return dev, exists
}
