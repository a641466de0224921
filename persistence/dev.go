package persistence

import (
	"io"

	"github.com/pkg/errors"
)

// Dev is the interface required from the backing store of a device. The read
// path never writes, populating a backing store is the front end's business.
type Dev interface {
	io.ReadSeeker
	Size() int64
}

// Device serves byte-range reads from one backing store, addressed pool-wide
// by its integer id.
type Device struct {
	id  uint32
	dev Dev
}

// NewDevice binds a backing store to its pool-wide id.
func NewDevice(id uint32, dev Dev) *Device {
	return &Device{
		id:  id,
		dev: dev,
	}
}

// ID returns the pool-wide id of the device.
func (d *Device) ID() uint32 {
	return d.id
}

// Read fills p with bytes starting at the given byte offset. Requests
// reaching outside the backing store fail without any I/O.
func (d *Device) Read(p []byte, offset int64) error {
	if offset < 0 || offset+int64(len(p)) > d.dev.Size() {
		return errors.Errorf("read of %d bytes at offset %d is outside device %d of %d bytes",
			len(p), offset, d.id, d.dev.Size())
	}

	if _, err := d.dev.Seek(offset, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	if _, err := io.ReadFull(d.dev, p); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
