package blocks

import (
	"github.com/pkg/errors"
)

const (
	// SectorSize is the addressing unit of devices. All size and offset
	// fields of a descriptor are expressed in sectors.
	SectorSize = 512

	// DescriptorSize is the on-disk size of a block descriptor.
	DescriptorSize = 128

	// AddressesPerDescriptor is the number of redundant physical addresses
	// stored in each descriptor.
	AddressesPerDescriptor = 3
)

// ErrUnsupported is returned when a descriptor requires a feature this
// engine does not implement: gang blocks and unrecognized checksum or
// compression codes.
var ErrUnsupported = errors.New("unsupported feature")

// ObjectType is the type of the object a descriptor belongs to.
type ObjectType uint8

// ObjectTypeNone marks an unused descriptor slot. Such descriptors never
// enter a pending queue or leaf index.
const ObjectTypeNone ObjectType = 0

// ChecksumType is the enum of checksum algorithms.
type ChecksumType uint8

// Checksum algorithm codes as stored on disk.
const (
	ChecksumInherit ChecksumType = iota
	ChecksumOn
	ChecksumOff
	ChecksumLabel
	ChecksumGangHeader
	ChecksumZILog
	ChecksumFletcher2
	ChecksumFletcher4
	ChecksumSHA256
	ChecksumZILog2
)

// CompressionType is the enum of compression algorithms.
type CompressionType uint8

// Compression algorithm codes as stored on disk.
const (
	CompressionInherit CompressionType = iota
	CompressionOn
	CompressionOff
	CompressionLZJB
	CompressionEmpty
	CompressionGZIP1
	CompressionGZIP2
	CompressionGZIP3
	CompressionGZIP4
	CompressionGZIP5
	CompressionGZIP6
	CompressionGZIP7
	CompressionGZIP8
	CompressionGZIP9
	CompressionZLE
)

// Checksum is the checksum value stored in a descriptor, wide enough for a
// 256-bit digest.
type Checksum [4]uint64

// DeviceAddress is one of a descriptor's redundant physical copy loci.
type DeviceAddress struct {
	DeviceID uint32
	// Offset is expressed in sectors.
	Offset uint64
	// Gang marks a fragmented block. Gang blocks are not supported and fail
	// resolution for this address.
	Gang bool
}

// Descriptor is the on-disk record referencing stored data or metadata.
type Descriptor struct {
	Addresses [AddressesPerDescriptor]DeviceAddress

	// PhysicalSize and LogicalSize are stored as sectors minus one.
	PhysicalSize uint16
	LogicalSize  uint16

	Type ObjectType
	// Level is the indirection level: 0 means the block holds payload bytes,
	// anything above means it holds a packed array of child descriptors.
	Level uint8

	ChecksumAlgorithm    ChecksumType
	CompressionAlgorithm CompressionType

	Checksum Checksum
}

// PhysicalBytes returns the stored size of the block in bytes.
func (d Descriptor) PhysicalBytes() int64 {
	return (int64(d.PhysicalSize) + 1) * SectorSize
}

// LogicalBytes returns the decompressed size of the block in bytes.
func (d Descriptor) LogicalBytes() int64 {
	return (int64(d.LogicalSize) + 1) * SectorSize
}
