package ztree

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/ztree/blocks"
	"github.com/outofforest/ztree/persistence"
	"github.com/outofforest/ztree/pkg/memdev"
)

const sector = blocks.SectorSize

// testObjectType is an arbitrary non-sentinel object type for fixtures.
const testObjectType blocks.ObjectType = 10

// fixture lays blocks out sector by sector on a single in-memory device and
// hands out descriptors pointing at them.
type fixture struct {
	requireT *require.Assertions
	dev      *memdev.MemDev
	devID    uint32
	pool     *persistence.Pool
	next     uint64
}

func newFixture(t *testing.T) *fixture {
	requireT := require.New(t)

	dev := memdev.New(4096 * sector)
	devID := uint32(1)
	pool, err := persistence.NewPool(persistence.NewDevice(devID, dev))
	requireT.NoError(err)

	return &fixture{
		requireT: requireT,
		dev:      dev,
		devID:    devID,
		pool:     pool,
	}
}

// writeBlock stores raw bytes at the next free sectors and returns a
// descriptor addressing them.
func (f *fixture) writeBlock(
	raw []byte,
	logicalSize int64,
	level uint8,
	checksumAlg blocks.ChecksumType,
	compressionAlg blocks.CompressionType,
) blocks.Descriptor {
	f.requireT.Zero(len(raw) % sector)

	offset := f.next
	f.next += uint64(len(raw) / sector)

	_, err := f.dev.Seek(int64(offset)*sector, io.SeekStart)
	f.requireT.NoError(err)
	_, err = f.dev.Write(raw)
	f.requireT.NoError(err)

	var checksum blocks.Checksum
	if checksumAlg != blocks.ChecksumOff {
		checksum, err = blocks.ComputeChecksum(checksumAlg, raw)
		f.requireT.NoError(err)
	}

	return blocks.Descriptor{
		Addresses: [blocks.AddressesPerDescriptor]blocks.DeviceAddress{
			{DeviceID: f.devID, Offset: offset},
		},
		PhysicalSize:         uint16(len(raw)/sector - 1),
		LogicalSize:          uint16(logicalSize/sector - 1),
		Type:                 testObjectType,
		Level:                level,
		ChecksumAlgorithm:    checksumAlg,
		CompressionAlgorithm: compressionAlg,
		Checksum:             checksum,
	}
}

// writeLeaf stores an uncompressed, fletcher4-protected payload. The payload
// length must be a sector multiple.
func (f *fixture) writeLeaf(payload []byte) blocks.Descriptor {
	return f.writeBlock(payload, int64(len(payload)), 0, blocks.ChecksumFletcher4, blocks.CompressionOff)
}

// writeIndirect stores the packed descriptors of the children, zero-padded to
// a sector multiple. The padding decodes as unused slots which the queue
// drops.
func (f *fixture) writeIndirect(level uint8, children ...blocks.Descriptor) blocks.Descriptor {
	var raw []byte
	for _, child := range children {
		raw = append(raw, blocks.Encode(child)...)
	}
	if rem := len(raw) % sector; rem != 0 {
		raw = append(raw, make([]byte, sector-rem)...)
	}
	return f.writeBlock(raw, int64(len(raw)), level, blocks.ChecksumFletcher4, blocks.CompressionOff)
}

// corrupt flips one stored byte under the given descriptor address.
func (f *fixture) corrupt(bp blocks.Descriptor) {
	offset := int64(bp.Addresses[0].Offset) * sector
	_, err := f.dev.Seek(offset, io.SeekStart)
	f.requireT.NoError(err)
	b := make([]byte, 1)
	_, err = f.dev.Read(b)
	f.requireT.NoError(err)

	_, err = f.dev.Seek(offset, io.SeekStart)
	f.requireT.NoError(err)
	_, err = f.dev.Write([]byte{b[0] ^ 0xff})
	f.requireT.NoError(err)
}

// payload generates deterministic sector-multiple content, distinct per seed.
func payload(seed byte, sectors int) []byte {
	p := make([]byte, sectors*sector)
	for i := range p {
		p[i] = byte(i)*3 + seed
	}
	return p
}
