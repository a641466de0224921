package blocks

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload(size int) []byte {
	p := make([]byte, size)
	for i := range p {
		p[i] = byte(i*31 + 7)
	}
	return p
}

func TestVerifySupportedAlgorithms(t *testing.T) {
	requireT := require.New(t)

	p := testPayload(2 * SectorSize)

	for _, algorithm := range []ChecksumType{
		ChecksumOn, ChecksumZILog, ChecksumFletcher2,
		ChecksumZILog2, ChecksumFletcher4,
		ChecksumLabel, ChecksumGangHeader, ChecksumSHA256,
	} {
		checksum, err := ComputeChecksum(algorithm, p)
		requireT.NoError(err)
		requireT.NoError(VerifyChecksum(algorithm, p, checksum))

		for _, bit := range []int{0, 7, len(p)*8/2, len(p)*8 - 1} {
			flipped := append([]byte{}, p...)
			flipped[bit/8] ^= 1 << (bit % 8)
			requireT.ErrorIs(VerifyChecksum(algorithm, flipped, checksum), ErrChecksumMismatch)
		}
	}
}

func TestAliasedAlgorithms(t *testing.T) {
	requireT := require.New(t)

	p := testPayload(SectorSize)

	f2, err := ComputeChecksum(ChecksumFletcher2, p)
	requireT.NoError(err)
	for _, alias := range []ChecksumType{ChecksumOn, ChecksumZILog} {
		c, err := ComputeChecksum(alias, p)
		requireT.NoError(err)
		requireT.Equal(f2, c)
	}

	f4, err := ComputeChecksum(ChecksumFletcher4, p)
	requireT.NoError(err)
	c, err := ComputeChecksum(ChecksumZILog2, p)
	requireT.NoError(err)
	requireT.Equal(f4, c)
	requireT.NotEqual(f2, f4)

	sha, err := ComputeChecksum(ChecksumSHA256, p)
	requireT.NoError(err)
	for _, alias := range []ChecksumType{ChecksumLabel, ChecksumGangHeader} {
		c, err := ComputeChecksum(alias, p)
		requireT.NoError(err)
		requireT.Equal(sha, c)
	}
}

func TestFletcher2(t *testing.T) {
	requireT := require.New(t)

	p := make([]byte, 32)
	binary.LittleEndian.PutUint64(p[0:], 1)
	binary.LittleEndian.PutUint64(p[8:], 2)
	binary.LittleEndian.PutUint64(p[16:], 3)
	binary.LittleEndian.PutUint64(p[24:], 4)

	c, err := ComputeChecksum(ChecksumFletcher2, p)
	requireT.NoError(err)
	// Lane sums: a0 = 1+3, a1 = 2+4; prefix sums: b0 = 1+(1+3), b1 = 2+(2+4).
	requireT.Equal(Checksum{4, 6, 5, 8}, c)
}

func TestFletcher4(t *testing.T) {
	requireT := require.New(t)

	p := make([]byte, 8)
	binary.LittleEndian.PutUint32(p[0:], 1)
	binary.LittleEndian.PutUint32(p[4:], 2)

	c, err := ComputeChecksum(ChecksumFletcher4, p)
	requireT.NoError(err)
	// a: 1, 3; b: 1, 4; c: 1, 5; d: 1, 6.
	requireT.Equal(Checksum{3, 4, 5, 6}, c)
}

func TestSHA256WordPacking(t *testing.T) {
	requireT := require.New(t)

	p := testPayload(SectorSize)
	digest := sha256.Sum256(p)

	var expected Checksum
	for i := range expected {
		expected[i] = binary.BigEndian.Uint64(digest[8*i:])
	}

	c, err := ComputeChecksum(ChecksumSHA256, p)
	requireT.NoError(err)
	requireT.Equal(expected, c)
}

func TestChecksumOffAlwaysPasses(t *testing.T) {
	assertT := assert.New(t)

	assertT.NoError(VerifyChecksum(ChecksumOff, testPayload(SectorSize), Checksum{1, 2, 3, 4}))
	assertT.NoError(VerifyChecksum(ChecksumOff, nil, Checksum{}))
}

func TestUnknownChecksumAlgorithm(t *testing.T) {
	assertT := assert.New(t)

	p := testPayload(SectorSize)

	for _, algorithm := range []ChecksumType{ChecksumInherit, 10, 200} {
		_, err := ComputeChecksum(algorithm, p)
		assertT.ErrorIs(err, ErrUnsupported)
		assertT.ErrorIs(VerifyChecksum(algorithm, p, Checksum{}), ErrUnsupported)
	}
}
