package blocks

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrTreeCorrupted is returned when the payload of an indirect block cannot
// be interpreted as a packed array of descriptors.
var ErrTreeCorrupted = errors.New("corrupted block tree")

// Descriptor word layout, little-endian 64-bit words:
//
//	words 0-5   three addresses, two words each:
//	            word A: device id in bits 32-63, allocation info below
//	            word B: gang flag in bit 63, sector offset in bits 0-62
//	word 6      properties: logical size 0-15, physical size 16-31,
//	            compression 32-39, checksum 40-47, type 48-55, level 56-60
//	words 7-11  padding and lifecycle fields, not used by the read path
//	words 12-15 checksum value
const (
	propWordOffset     = 48
	checksumWordOffset = 96

	offsetMask = uint64(1)<<63 - 1
)

// Decode parses a single descriptor record.
func Decode(b []byte) (Descriptor, error) {
	if len(b) != DescriptorSize {
		return Descriptor{}, errors.Wrapf(ErrTreeCorrupted, "descriptor record is %d bytes, expected %d", len(b), DescriptorSize)
	}

	var d Descriptor
	for i := 0; i < AddressesPerDescriptor; i++ {
		wordA := binary.LittleEndian.Uint64(b[16*i:])
		wordB := binary.LittleEndian.Uint64(b[16*i+8:])
		d.Addresses[i] = DeviceAddress{
			DeviceID: uint32(wordA >> 32),
			Offset:   wordB & offsetMask,
			Gang:     wordB>>63 != 0,
		}
	}

	prop := binary.LittleEndian.Uint64(b[propWordOffset:])
	d.LogicalSize = uint16(prop)
	d.PhysicalSize = uint16(prop >> 16)
	d.CompressionAlgorithm = CompressionType(prop >> 32)
	d.ChecksumAlgorithm = ChecksumType(prop >> 40)
	d.Type = ObjectType(prop >> 48)
	d.Level = uint8(prop>>56) & 0x1f

	for i := range d.Checksum {
		d.Checksum[i] = binary.LittleEndian.Uint64(b[checksumWordOffset+8*i:])
	}

	return d, nil
}

// DecodeList parses a buffer holding a tightly packed sequence of descriptor
// records, as found in the payload of an indirect block. A length not evenly
// divisible by the record size means the tree is corrupted.
func DecodeList(b []byte) ([]Descriptor, error) {
	if len(b)%DescriptorSize != 0 {
		return nil, errors.Wrapf(ErrTreeCorrupted, "indirect payload of %d bytes is not a whole number of %d-byte records", len(b), DescriptorSize)
	}

	descriptors := make([]Descriptor, 0, len(b)/DescriptorSize)
	for o := 0; o < len(b); o += DescriptorSize {
		d, err := Decode(b[o : o+DescriptorSize])
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// Encode serializes a descriptor record. Fields ignored by the read path are
// written as zero.
func Encode(d Descriptor) []byte {
	b := make([]byte, DescriptorSize)

	for i, addr := range d.Addresses {
		wordA := uint64(addr.DeviceID) << 32
		wordB := addr.Offset & offsetMask
		if addr.Gang {
			wordB |= 1 << 63
		}
		binary.LittleEndian.PutUint64(b[16*i:], wordA)
		binary.LittleEndian.PutUint64(b[16*i+8:], wordB)
	}

	prop := uint64(d.LogicalSize) |
		uint64(d.PhysicalSize)<<16 |
		uint64(d.CompressionAlgorithm)<<32 |
		uint64(d.ChecksumAlgorithm)<<40 |
		uint64(d.Type)<<48 |
		uint64(d.Level&0x1f)<<56
	binary.LittleEndian.PutUint64(b[propWordOffset:], prop)

	for i, w := range d.Checksum {
		binary.LittleEndian.PutUint64(b[checksumWordOffset+8*i:], w)
	}

	return b
}
