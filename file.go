package ztree

import (
	"github.com/pkg/errors"

	"github.com/outofforest/ztree/blocks"
	"github.com/outofforest/ztree/persistence"
)

// ErrOutOfRange is returned when a requested byte range reaches beyond the
// logical size of a file.
var ErrOutOfRange = errors.New("byte range exceeds file size")

type leafExtent struct {
	bp     blocks.Descriptor
	start  int64
	length int64
}

// File serves random-access reads over a block tree. The whole tree is
// flattened into an ordered leaf index at construction time, reads then
// locate the covering leaves and resolve them through a one-block
// decompressed cache. A file instance is not safe for concurrent use.
type File struct {
	pool   *persistence.Pool
	leaves []leafExtent

	physicalSize int64
	logicalSize  int64

	// cachedLeaf indexes into leaves, -1 means nothing is cached.
	cachedLeaf int
	cachedBuf  []byte
}

// NewFile flattens the tree under the given root descriptors into a file.
// Any expansion failure aborts construction, a partial file is never
// returned.
func NewFile(pool *persistence.Pool, descriptors []blocks.Descriptor) (*File, error) {
	f := &File{
		pool:       pool,
		cachedLeaf: -1,
	}

	t := newTree(pool, descriptors)
	for {
		bp, exists, err := t.nextLeaf()
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}

		length := bp.LogicalBytes()
		f.leaves = append(f.leaves, leafExtent{
			bp:     bp,
			start:  f.logicalSize,
			length: length,
		})
		f.physicalSize += bp.PhysicalBytes()
		f.logicalSize += length
	}

	return f, nil
}

// Size returns the logical byte size of the file.
func (f *File) Size() int64 {
	return f.logicalSize
}

// PhysicalSize returns the number of bytes the file occupies on its devices.
func (f *File) PhysicalSize() int64 {
	return f.physicalSize
}

// ReadAt fills p with file content starting at byte offset off. Ranges
// reaching beyond the file size fail before any I/O. A resolution failure
// anywhere in the range fails the whole call, partial reads are never
// reported.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > f.logicalSize {
		return 0, errors.Wrapf(ErrOutOfRange, "read of %d bytes at offset %d in file of %d bytes", len(p), off, f.logicalSize)
	}
	if len(p) == 0 {
		return 0, nil
	}

	// Linear scan from the start of the index. Fine for the leaf counts seen
	// in practice, a prefix-sum lookup would only change the constant here.
	var n int
	for i := range f.leaves {
		l := &f.leaves[i]
		pos := off + int64(n)
		if pos >= l.start+l.length {
			continue
		}

		buf, err := f.leaf(i)
		if err != nil {
			return 0, err
		}

		n += copy(p[n:], buf[pos-l.start:])
		if n == len(p) {
			return n, nil
		}
	}

	return 0, errors.Wrapf(blocks.ErrTreeCorrupted, "leaf index does not cover bytes %d..%d", off, off+int64(len(p)))
}

// leaf returns the decompressed content of leaf i, refreshing the one-block
// cache when a different leaf is required.
func (f *File) leaf(i int) ([]byte, error) {
	if f.cachedLeaf == i {
		return f.cachedBuf, nil
	}

	buf, err := Resolve(f.pool, f.leaves[i].bp)
	if err != nil {
		return nil, err
	}

	f.cachedLeaf = i
	f.cachedBuf = buf
	return buf, nil
}
