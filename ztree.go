// Package ztree resolves and decodes block trees of a copy-on-write,
// checksummed storage pool. Given root block descriptors it reconstructs the
// logical byte stream they represent, trying each descriptor's redundant
// physical addresses, verifying checksums and decompressing payloads, and
// expanding indirect blocks into their child descriptors on the way down.
package ztree

import (
	"github.com/pkg/errors"

	"github.com/outofforest/ztree/blocks"
	"github.com/outofforest/ztree/persistence"
)

// Resolve resolves one block descriptor into verified, decompressed bytes.
// The descriptor's redundant addresses are tried in order, any per-address
// failure moves on to the next one. An unknown checksum or compression code
// aborts immediately instead, no other copy could decode it either.
func Resolve(pool *persistence.Pool, bp blocks.Descriptor) ([]byte, error) {
	var lastErr error

	for _, addr := range bp.Addresses {
		if addr.Gang {
			lastErr = errors.Wrapf(blocks.ErrUnsupported, "gang block at device %d offset %d", addr.DeviceID, addr.Offset)
			continue
		}

		dev, exists := pool.Device(addr.DeviceID)
		if !exists {
			lastErr = errors.Wrapf(persistence.ErrDeviceNotFound, "device %d", addr.DeviceID)
			continue
		}

		src := make([]byte, bp.PhysicalBytes())
		if err := dev.Read(src, int64(addr.Offset)*blocks.SectorSize); err != nil {
			lastErr = err
			continue
		}

		if err := blocks.VerifyChecksum(bp.ChecksumAlgorithm, src, bp.Checksum); err != nil {
			if errors.Is(err, blocks.ErrUnsupported) {
				return nil, err
			}
			lastErr = err
			continue
		}

		dst, err := blocks.Decompress(bp.CompressionAlgorithm, src, bp.LogicalBytes())
		if err != nil {
			if errors.Is(err, blocks.ErrUnsupported) {
				return nil, err
			}
			lastErr = err
			continue
		}

		return dst, nil
	}

	if lastErr == nil {
		lastErr = errors.New("descriptor has no resolvable address")
	}
	return nil, errors.WithMessage(lastErr, "block unresolvable at all addresses")
}

// tree keeps the descriptors awaiting resolution in traversal order and
// expands indirection depth-first, one subtree at a time.
type tree struct {
	pool    *persistence.Pool
	pending []blocks.Descriptor
}

func newTree(pool *persistence.Pool, descriptors []blocks.Descriptor) tree {
	t := tree{
		pool: pool,
	}
	t.insert(descriptors)
	return t
}

// insert merges newly discovered descriptors into the pending queue.
// Children of a just-resolved indirect block go ahead of previously pending
// items, preserving depth-first, left-to-right order. Unused slots are
// dropped silently.
func (t *tree) insert(descriptors []blocks.Descriptor) {
	live := make([]blocks.Descriptor, 0, len(descriptors))
	for _, bp := range descriptors {
		if bp.Type != blocks.ObjectTypeNone {
			live = append(live, bp)
		}
	}

	if len(t.pending) == 0 {
		t.pending = live
		return
	}
	t.pending = append(live, t.pending...)
}

// nextLeaf pops descriptors off the queue, expanding indirect ones in place,
// until a level-0 descriptor surfaces. Exhaustion of the queue is reported
// through the second return value, any expansion failure aborts.
func (t *tree) nextLeaf() (blocks.Descriptor, bool, error) {
	for len(t.pending) > 0 {
		bp := t.pending[0]
		t.pending = t.pending[1:]

		if bp.Level == 0 {
			return bp, true, nil
		}

		buf, err := Resolve(t.pool, bp)
		if err != nil {
			return blocks.Descriptor{}, false, err
		}

		children, err := blocks.DecodeList(buf)
		if err != nil {
			return blocks.Descriptor{}, false, err
		}

		t.insert(children)
	}

	return blocks.Descriptor{}, false, nil
}
