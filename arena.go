// Copyright 2026 The Arena Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The heap space management.

// Package arena implements a fixed-capacity, in-place heap allocator. It
// carves a statically sized byte buffer into variable-length blocks on
// demand and coalesces freed blocks with their immediate neighbors.
package arena

import (
	"encoding/binary"
	"math"

	"github.com/rs/zerolog"
)

const (
	// SentinelSize is the width W, in bytes, of one boundary sentinel.
	SentinelSize = 4

	minCap     = 2 * SentinelSize
	maxPayload = math.MaxInt32
)

// Stats records statistics about a heap. It is filled by Heap.Verify, if
// successful.
type Stats struct {
	TotalBytes  int64 // capacity of the backing Buffer
	AllocBytes  int64 // payload bytes of busy blocks
	AllocBlocks int64 // number of busy blocks
	FreeBytes   int64 // payload bytes of free blocks
	FreeBlocks  int64 // number of free blocks
}

/*

Heap implements "raw" storage space management (allocation and deallocation)
inside a fixed-capacity Buffer.

Heap file

The Buffer is a linear, contiguous sequence of blocks whose union exactly
covers its capacity N. Blocks may be either free (currently unused) or busy
(currently handed out). No block ever moves; allocation and deallocation only
rewrite sentinels.

Blocks

A block is a payload framed by two sentinels. A sentinel is a signed 32-bit
integer, stored big endian, whose absolute value is the payload length in
bytes and whose sign encodes the block status:

	s > 0  the block is free
	s < 0  the block is busy

Both sentinels of the same block hold the same value, magnitude and sign:

	|<-block start      ...      block end->|
	+------+--        ...          --+------+
	|  s   |       |s| payload       |  s   |
	+------+--        ...          --+------+

The block at offset i thus occupies [i, i+2*W+|s|), its payload is
[i+W, i+W+|s|) and the next block starts at i+2*W+|s|, where W ==
SentinelSize. The smallest buffer holds one zero-payload block, so N >= 2*W.

A freshly formatted heap contains a single free block spanning everything:

	+--------+--     ...     --+--------+
	| N-2*W  |   N-2*W bytes   | N-2*W  |
	+--------+--     ...     --+--------+

Offsets as handles

Alloc returns the offset of the payload, never the offset of the block. The
zero offset cannot name a payload (the first payload lives at W), so 0 is the
null offset, returned by Alloc(0). The left sentinel of the block owning a
payload at off is always at off-W.

Allocation

Alloc scans blocks left to right and takes the first free block whose payload
fits the request (first-fit). If carving the request out of the block would
leave a remainder too small to frame another block - the slack is not above
2*W - the whole block is absorbed and the caller receives slightly more bytes
than requested. Otherwise the block is split: a busy block of exactly the
requested size, followed by a free block holding the remainder.

Deallocation

Free flips the block's sentinels back to positive and joins the result with
its immediate neighbors where those are free, merging left, right, or both at
once. Two adjacent free blocks therefore never exist; this is an invariant of
every heap the package produces and Verify enforces it.

Content wiping

When a block is deallocated its payload is not wiped. Client code should
overwrite any sensitive content before calling Free.

*/
type Heap struct {
	b         Buffer
	cap       int64
	elemSize  int
	selfCheck bool
	tr        *zerolog.Logger
}

// New formats b as an empty heap for elements of elemSize bytes and returns
// a Heap managing it. The buffer's whole capacity is claimed by a single
// free block. Any previous content of b is disregarded.
//
// A capacity below 2*SentinelSize fails with ErrNOMEM; elemSize must be
// positive. opts may be nil.
func New(b Buffer, elemSize int, opts *Options) (*Heap, error) {
	h, err := attach(b, elemSize, opts)
	if err != nil {
		return nil, err
	}

	if err = h.setBlock(0, int32(h.cap-minCap)); err != nil {
		return nil, err
	}

	if h.selfCheck {
		if err = h.Verify(nil, nil); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// Open returns a Heap managing an already formatted buffer, for example one
// restored by MemBuffer.ReadFrom. The heap structure is verified before any
// use; a broken image fails with ErrILSEQ.
func Open(b Buffer, elemSize int, opts *Options) (*Heap, error) {
	h, err := attach(b, elemSize, opts)
	if err != nil {
		return nil, err
	}

	if err = h.Verify(nil, nil); err != nil {
		return nil, err
	}

	return h, nil
}

func attach(b Buffer, elemSize int, opts *Options) (*Heap, error) {
	if elemSize < 1 {
		return nil, &ErrINVAL{"arena: invalid element size", elemSize}
	}

	if opts == nil {
		opts = &Options{}
	}

	n := b.Size()
	if n < minCap {
		return nil, &ErrNOMEM{"arena: buffer", n}
	}

	if n-minCap > maxPayload {
		return nil, &ErrINVAL{"arena: capacity not representable by a sentinel", n}
	}

	return &Heap{
		b:         b,
		cap:       n,
		elemSize:  elemSize,
		selfCheck: opts.SelfCheck,
		tr:        opts.Trace,
	}, nil
}

// Cap returns the capacity of the backing Buffer in bytes.
func (h *Heap) Cap() int64 { return h.cap }

// ElemSize returns the element size the heap allocates in multiples of.
func (h *Heap) ElemSize() int { return h.elemSize }

func (h *Heap) read(b []byte, off int64) error {
	if n, err := h.b.ReadAt(b, off); n != len(b) {
		return &ErrILSEQ{Type: ErrOther, Off: off, More: err}
	}

	return nil
}

func (h *Heap) write(b []byte, off int64) error {
	if n, err := h.b.WriteAt(b, off); n != len(b) {
		return &ErrILSEQ{Type: ErrOther, Off: off, More: err}
	}

	return nil
}

// sentinel returns the signed sentinel stored at off.
func (h *Heap) sentinel(off int64) (int32, error) {
	var b [SentinelSize]byte
	if err := h.read(b[:], off); err != nil {
		return 0, err
	}

	return int32(binary.BigEndian.Uint32(b[:])), nil
}

// setSentinel stores s at off.
func (h *Heap) setSentinel(off int64, s int32) error {
	var b [SentinelSize]byte
	binary.BigEndian.PutUint32(b[:], uint32(s))
	return h.write(b[:], off)
}

// setBlock writes both sentinels of the block at off framing a payload of
// |s| bytes.
func (h *Heap) setBlock(off int64, s int32) error {
	if err := h.setSentinel(off, s); err != nil {
		return err
	}

	sz := int64(s)
	if sz < 0 {
		sz = -sz
	}
	return h.setSentinel(off+SentinelSize+sz, s)
}

// Alloc allocates storage for n elements and returns the offset of the
// payload or an error, if any. The payload holds at least n*ElemSize()
// bytes; when the first fitting free block cannot be split it is absorbed
// whole and the payload is up to 2*SentinelSize bytes larger.
//
// Alloc(0) returns the null offset 0 and leaves the heap untouched. A
// negative n fails with ErrINVAL. If no free block can satisfy the request
// the result is ErrNOSPC.
func (h *Heap) Alloc(n int) (off int64, err error) {
	if n < 0 {
		return 0, &ErrINVAL{"Heap.Alloc: invalid count", n}
	}

	if n == 0 {
		return 0, nil
	}

	need := int64(n) * int64(h.elemSize)
	if need > maxPayload || need > h.cap-minCap {
		return 0, &ErrNOSPC{"Heap.Alloc", need}
	}

	for i := int64(0); i < h.cap; {
		s, err := h.sentinel(i)
		if err != nil {
			return 0, err
		}

		sz := int64(s)
		if sz < 0 {
			sz = -sz
		}

		if s >= 0 && sz >= need {
			slack := sz - need
			if slack <= minCap {
				// Absorb: flipping the signs hands out the
				// whole block, slack included.
				if err = h.setBlock(i, -s); err != nil {
					return 0, err
				}

				if h.tr != nil {
					h.tr.Debug().Int64("off", i).Int64("need", need).Int64("got", sz).Msg("absorb")
				}
			} else {
				if err = h.setBlock(i, int32(-need)); err != nil {
					return 0, err
				}

				if err = h.setBlock(i+minCap+need, int32(slack-minCap)); err != nil {
					return 0, err
				}

				if h.tr != nil {
					h.tr.Debug().Int64("off", i).Int64("need", need).Int64("rest", slack-minCap).Msg("split")
				}
			}

			if h.selfCheck {
				if err = h.Verify(nil, nil); err != nil {
					return 0, err
				}
			}

			return i + SentinelSize, nil
		}

		i += sz + minCap
	}

	return 0, &ErrNOSPC{"Heap.Alloc", need}
}

// Free deallocates the block whose payload starts at off, joining it with
// any adjacent free neighbors, and returns an error, if any.
//
// After Free succeeds, off is invalid and must not be used. off must have
// been obtained from Alloc on the same Heap and must be still valid,
// otherwise the heap may get irreparably corrupted; only cheaply detectable
// misuse - an offset out of limits or a block that is not busy - fails with
// ErrINVAL.
func (h *Heap) Free(off int64) (err error) {
	if off < SentinelSize || off > h.cap-SentinelSize {
		return &ErrINVAL{"Heap.Free: offset out of limits", off}
	}

	i := off - SentinelSize
	s, err := h.sentinel(i)
	if err != nil {
		return err
	}

	if s >= 0 {
		return &ErrINVAL{"Heap.Free: attempt to free a free block at off", off}
	}

	sz := int64(-s)
	start, length := i, sz
	joinL, joinR := false, false

	if i > 0 {
		// Right sentinel of the left neighbor.
		ls, err := h.sentinel(i - SentinelSize)
		if err != nil {
			return err
		}

		if ls >= 0 {
			start = i - minCap - int64(ls)
			length += int64(ls) + minCap
			joinL = true
		}
	}

	if r := i + minCap + sz; r < h.cap {
		// Left sentinel of the right neighbor.
		rs, err := h.sentinel(r)
		if err != nil {
			return err
		}

		if rs >= 0 {
			length += int64(rs) + minCap
			joinR = true
		}
	}

	if err = h.setBlock(start, int32(length)); err != nil {
		return err
	}

	if h.tr != nil {
		h.tr.Debug().Int64("off", i).Int64("bytes", sz).Bool("joinl", joinL).Bool("joinr", joinR).Msg("free")
	}

	if h.selfCheck {
		return h.Verify(nil, nil)
	}

	return nil
}

// Payload returns a writable view of the payload of the busy block starting
// at off, as returned by Alloc. The view aliases the heap's storage and is
// valid until the block is freed.
func (h *Heap) Payload(off int64) ([]byte, error) {
	if off < SentinelSize || off > h.cap-SentinelSize {
		return nil, &ErrINVAL{"Heap.Payload: offset out of limits", off}
	}

	s, err := h.sentinel(off - SentinelSize)
	if err != nil {
		return nil, err
	}

	if s >= 0 {
		return nil, &ErrINVAL{"Heap.Payload: block is not busy at off", off}
	}

	return h.b.Slice(off, int64(-s))
}

var nolog = func(error) bool { return false }

// Verify attempts to find any structural errors in the heap. Blocks are
// walked left to right; for every block the left and right sentinels must
// agree, no two consecutive blocks may both be free, and the walk must
// terminate exactly at the buffer end. Any problem found is reported to
// 'log' as an ErrILSEQ and returned; passing a nil log works like providing
// a log function always returning false. Buffer access errors are not
// reported to 'log', but returned directly, because Verify cannot proceed in
// such cases.
//
// Statistics are returned via 'stats' if non nil. The statistics are valid
// only if Verify succeeded, ie. it returned a nil error.
func (h *Heap) Verify(log func(error) bool, stats *Stats) (err error) {
	if log == nil {
		log = nolog
	}

	var st Stats
	st.TotalBytes = h.cap
	prevFree := false
	prevOff := int64(0)

	for i := int64(0); i < h.cap; {
		if i+SentinelSize > h.cap {
			err = &ErrILSEQ{Type: ErrBlockSpan, Off: i}
			log(err)
			return
		}

		left, e := h.sentinel(i)
		if e != nil {
			return e
		}

		sz := int64(left)
		if sz < 0 {
			sz = -sz
		}

		end := i + minCap + sz
		if end > h.cap {
			err = &ErrILSEQ{Type: ErrBlockSpan, Off: i, Arg: sz}
			log(err)
			return
		}

		right, e := h.sentinel(i + SentinelSize + sz)
		if e != nil {
			return e
		}

		if left != right {
			err = &ErrILSEQ{Type: ErrSentinelMismatch, Off: i, Arg: int64(left), Arg2: int64(right)}
			log(err)
			return
		}

		free := left >= 0
		if free && prevFree {
			err = &ErrILSEQ{Type: ErrAdjacentFree, Off: prevOff, Arg: i}
			log(err)
			return
		}

		switch free {
		case true:
			st.FreeBlocks++
			st.FreeBytes += sz
		case false:
			st.AllocBlocks++
			st.AllocBytes += sz
		}

		prevFree = free
		prevOff = i
		i = end
	}

	// The walk can only leave the loop at exactly cap: a block reaching
	// beyond it was rejected above.
	if stats != nil {
		*stats = st
	}
	return nil
}

// IsValid reports whether the heap structure is intact. It is a convenience
// for Verify(nil, nil) == nil.
func (h *Heap) IsValid() bool {
	return h.Verify(nil, nil) == nil
}
