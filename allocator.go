// Copyright 2026 The Arena Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The typed element surface over a Heap.

package arena

// A Kind describes the element type T as stored in a heap: its exact byte
// size and the hooks bridging between Go values and raw element storage. The
// size is an explicit parameter, not derived from T, so the stored layout is
// under caller control.
//
// Init writes v into the Size bytes at p; it is the in-place initializer run
// by Construct and is mandatory. Drop tears an element down in place; it is
// run by Destroy and may be nil, in which case Destroy only validates its
// argument. Neither hook may touch bytes outside p.
type Kind[T any] struct {
	Size int
	Init func(p []byte, v T)
	Drop func(p []byte)
}

// Allocator is the typed surface over a Heap for elements of kind T. It adds
// element construction and teardown to the untyped Alloc/Free; element
// storage is raw bytes inside the heap's Buffer either way.
type Allocator[T any] struct {
	h    *Heap
	kind Kind[T]
}

// NewAllocator formats b as an empty heap for elements described by kind and
// returns an Allocator managing it. kind.Size must be positive and kind.Init
// must be set. opts may be nil.
func NewAllocator[T any](b Buffer, kind Kind[T], opts *Options) (*Allocator[T], error) {
	if kind.Init == nil {
		return nil, &ErrINVAL{"NewAllocator: missing Init hook", nil}
	}

	h, err := New(b, kind.Size, opts)
	if err != nil {
		return nil, err
	}

	return &Allocator[T]{h: h, kind: kind}, nil
}

// Heap returns the untyped heap backing the Allocator.
func (a *Allocator[T]) Heap() *Heap { return a.h }

// Allocate allocates storage for n elements and returns the offset of the
// first element, or the null offset 0 when n == 0. The storage is
// uninitialized; use Construct on each element before reading it.
func (a *Allocator[T]) Allocate(n int) (int64, error) {
	return a.h.Alloc(n)
}

// Deallocate returns the storage at off, previously obtained from Allocate,
// to the heap. Elements still alive in the block should be destroyed with
// Destroy first; Deallocate does not run teardown hooks.
func (a *Allocator[T]) Deallocate(off int64) error {
	return a.h.Free(off)
}

// elem maps an element offset to its storage bytes.
func (a *Allocator[T]) elem(off int64) ([]byte, error) {
	sz := int64(a.kind.Size)
	if off < SentinelSize || off+sz > a.h.cap-SentinelSize {
		return nil, &ErrINVAL{"element offset out of limits", off}
	}

	return a.h.b.Slice(off, sz)
}

// Construct initializes an element with the value v at off, which must lie
// within a previously allocated run: the offset of the i-th element of an
// allocation at p is p + i*kind.Size. Sentinels are never modified.
func (a *Allocator[T]) Construct(off int64, v T) error {
	p, err := a.elem(off)
	if err != nil {
		return err
	}

	a.kind.Init(p, v)
	return a.check()
}

// Destroy runs the teardown hook, if any, on the element at off. Sentinels
// are never modified and the storage is not recycled; that is Deallocate's
// job.
func (a *Allocator[T]) Destroy(off int64) error {
	p, err := a.elem(off)
	if err != nil {
		return err
	}

	if a.kind.Drop != nil {
		a.kind.Drop(p)
	}
	return a.check()
}

func (a *Allocator[T]) check() error {
	if a.h.selfCheck {
		return a.h.Verify(nil, nil)
	}

	return nil
}

// Equal reports whether a and o are interchangeable, which is always true:
// any two Allocators of the same kind are equal as types, not as resource
// holders. The notion matters only to containing APIs that require an
// equality over allocators for rebind-like behavior.
func (a *Allocator[T]) Equal(o *Allocator[T]) bool {
	return true
}
