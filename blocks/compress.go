package blocks

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// ErrDecompression is returned when compressed block bytes cannot be expanded
// to the logical size declared by the descriptor.
var ErrDecompression = errors.New("decompression failed")

const (
	lzjbMatchBits  = 6
	lzjbMatchMin   = 3
	lzjbOffsetMask = 1<<(16-lzjbMatchBits) - 1

	// zleWindow is the fixed threshold separating literal runs from zero runs
	// in the zero-length encoding.
	zleWindow = 64
)

// Decompress expands raw block bytes into exactly logicalSize decompressed
// bytes. Several on-disk codes are aliases of the same codec and are routed
// accordingly; an unrecognized code is an unsupported feature.
func Decompress(algorithm CompressionType, src []byte, logicalSize int64) ([]byte, error) {
	switch algorithm {
	case CompressionOff, CompressionEmpty:
		if int64(len(src)) != logicalSize {
			return nil, errors.Wrapf(ErrDecompression, "stored size %d of uncompressed block does not match logical size %d", len(src), logicalSize)
		}
		return src, nil
	case CompressionOn, CompressionLZJB:
		return lzjbDecompress(src, logicalSize)
	case CompressionGZIP1, CompressionGZIP2, CompressionGZIP3,
		CompressionGZIP4, CompressionGZIP5, CompressionGZIP6,
		CompressionGZIP7, CompressionGZIP8, CompressionGZIP9:
		// The level only mattered at compression time, all nine codes decode
		// through the same inflate path.
		return zlibDecompress(src, logicalSize)
	case CompressionZLE:
		return zleDecompress(src, logicalSize)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "compression algorithm %d", algorithm)
	}
}

func lzjbDecompress(src []byte, logicalSize int64) ([]byte, error) {
	dst := make([]byte, logicalSize)

	var si int
	var di int64
	var copymap byte
	copymask := uint16(1) << 7

	for di < logicalSize {
		copymask <<= 1
		if copymask == 1<<8 {
			copymask = 1
			if si >= len(src) {
				return nil, errors.Wrap(ErrDecompression, "lzjb source exhausted")
			}
			copymap = src[si]
			si++
		}
		if copymap&byte(copymask) != 0 {
			if si+2 > len(src) {
				return nil, errors.Wrap(ErrDecompression, "lzjb source exhausted")
			}
			mlen := int64(src[si]>>(8-lzjbMatchBits)) + lzjbMatchMin
			offset := (int64(src[si])<<8 | int64(src[si+1])) & lzjbOffsetMask
			si += 2

			cpy := di - offset
			if cpy < 0 {
				return nil, errors.Wrapf(ErrDecompression, "lzjb back-reference %d before start of output", offset)
			}
			for ; mlen > 0 && di < logicalSize; mlen-- {
				dst[di] = dst[cpy]
				di++
				cpy++
			}
		} else {
			if si >= len(src) {
				return nil, errors.Wrap(ErrDecompression, "lzjb source exhausted")
			}
			dst[di] = src[si]
			di++
			si++
		}
	}

	return dst, nil
}

func zlibDecompress(src []byte, logicalSize int64) ([]byte, error) {
	// Stored blocks are sector-padded, trailing bytes after the deflate
	// stream are expected and ignored.
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, errors.Wrapf(ErrDecompression, "zlib: %s", err)
	}
	defer r.Close()

	dst := make([]byte, logicalSize)
	if _, err := io.ReadFull(r, dst); err != nil {
		return nil, errors.Wrapf(ErrDecompression, "zlib: %s", err)
	}
	return dst, nil
}

func zleDecompress(src []byte, logicalSize int64) ([]byte, error) {
	dst := make([]byte, 0, logicalSize)

	var si int
	for si < len(src) && int64(len(dst)) < logicalSize {
		n := int(src[si]) + 1
		si++
		if n <= zleWindow {
			if si+n > len(src) {
				return nil, errors.Wrap(ErrDecompression, "zle source exhausted")
			}
			dst = append(dst, src[si:si+n]...)
			si += n
		} else {
			zeros := n - zleWindow
			for i := 0; i < zeros; i++ {
				dst = append(dst, 0)
			}
		}
	}

	if int64(len(dst)) != logicalSize {
		return nil, errors.Wrapf(ErrDecompression, "zle produced %d bytes, expected %d", len(dst), logicalSize)
	}
	return dst, nil
}
