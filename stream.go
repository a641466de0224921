package ztree

import (
	"github.com/outofforest/ztree/blocks"
	"github.com/outofforest/ztree/persistence"
)

// Stream reads the logical byte stream of a block tree sequentially. Indirect
// blocks are expanded on demand, depth-first, so the full tree is never
// materialized. A stream is not restartable, once the pending queue empties
// no more data is available from the instance.
type Stream struct {
	tree
}

// NewStream creates a stream over the given root descriptors.
func NewStream(pool *persistence.Pool, descriptors []blocks.Descriptor) *Stream {
	return &Stream{
		tree: newTree(pool, descriptors),
	}
}

// ReadNext returns the payload of the next leaf block. The second return
// value is false once the stream is exhausted.
func (s *Stream) ReadNext() ([]byte, bool, error) {
	bp, exists, err := s.nextLeaf()
	if !exists || err != nil {
		return nil, false, err
	}

	buf, err := Resolve(s.pool, bp)
	if err != nil {
		return nil, false, err
	}
	return buf, true, nil
}

// ReadToEnd reads leaf payloads until exhaustion and returns their
// concatenation.
func (s *Stream) ReadToEnd() ([]byte, error) {
	var dst []byte
	for {
		buf, exists, err := s.ReadNext()
		if err != nil {
			return nil, err
		}
		if !exists {
			return dst, nil
		}
		dst = append(dst, buf...)
	}
}
