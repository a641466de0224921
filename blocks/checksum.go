package blocks

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrChecksumMismatch is returned when the computed checksum of a block does
// not match the one stored in its descriptor.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ComputeChecksum computes the checksum of raw block bytes using the given
// algorithm. Several on-disk codes are aliases of the same algorithm and are
// routed accordingly; an unrecognized code is an unsupported feature.
func ComputeChecksum(algorithm ChecksumType, p []byte) (Checksum, error) {
	switch algorithm {
	case ChecksumOn, ChecksumZILog, ChecksumFletcher2:
		return fletcher2(p), nil
	case ChecksumZILog2, ChecksumFletcher4:
		return fletcher4(p), nil
	case ChecksumLabel, ChecksumGangHeader, ChecksumSHA256:
		digest := sha256.Sum256(p)
		var c Checksum
		for i := range c {
			c[i] = binary.BigEndian.Uint64(digest[8*i:])
		}
		return c, nil
	default:
		return Checksum{}, errors.Wrapf(ErrUnsupported, "checksum algorithm %d", algorithm)
	}
}

// VerifyChecksum verifies that the checksum of raw block bytes matches the
// expected one. ChecksumOff always passes.
func VerifyChecksum(algorithm ChecksumType, p []byte, expected Checksum) error {
	if algorithm == ChecksumOff {
		return nil
	}

	checksum, err := ComputeChecksum(algorithm, p)
	if err != nil {
		return err
	}
	if checksum == expected {
		return nil
	}
	return errors.Wrapf(ErrChecksumMismatch, "computed: %016x%016x%016x%016x, expected: %016x%016x%016x%016x",
		checksum[0], checksum[1], checksum[2], checksum[3],
		expected[0], expected[1], expected[2], expected[3])
}

// fletcher2 runs two 64-bit lanes over the block, each keeping a running sum
// and the sum of its prefix sums. Trailing bytes beyond the last full 16-byte
// pair do not occur in practice because blocks are sector multiples.
func fletcher2(p []byte) Checksum {
	var a0, a1, b0, b1 uint64
	for o := 0; o+16 <= len(p); o += 16 {
		a0 += binary.LittleEndian.Uint64(p[o:])
		a1 += binary.LittleEndian.Uint64(p[o+8:])
		b0 += a0
		b1 += a1
	}
	return Checksum{a0, a1, b0, b1}
}

// fletcher4 cascades four 64-bit accumulators over 32-bit input words.
func fletcher4(p []byte) Checksum {
	var a, b, c, d uint64
	for o := 0; o+4 <= len(p); o += 4 {
		a += uint64(binary.LittleEndian.Uint32(p[o:]))
		b += a
		c += b
		d += c
	}
	return Checksum{a, b, c, d}
}
