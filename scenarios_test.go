// Copyright 2026 The Arena Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// End-to-end walkthroughs of a heap holding 4 byte elements, 100 bytes
// unless a scenario says otherwise.

package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newHeap100(t *testing.T) (*MemBuffer, *Heap) {
	t.Helper()
	f := NewMemBuffer(100)
	h, err := New(f, 4, &Options{SelfCheck: true})
	require.NoError(t, err)
	return f, h
}

func sentinelOf(t *testing.T, h *Heap, off int64) int32 {
	t.Helper()
	s, err := h.sentinel(off)
	require.NoError(t, err)
	return s
}

func TestScenarioFreshState(t *testing.T) {
	_, h := newHeap100(t)

	require.EqualValues(t, 92, sentinelOf(t, h, 0))
	require.EqualValues(t, 92, sentinelOf(t, h, 96))
	require.True(t, h.IsValid())
}

func TestScenarioSingleAllocFree(t *testing.T) {
	_, h := newHeap100(t)

	p, err := h.Alloc(10) // 40 bytes
	require.NoError(t, err)
	require.EqualValues(t, SentinelSize, p)

	require.EqualValues(t, -40, sentinelOf(t, h, 0))
	require.EqualValues(t, -40, sentinelOf(t, h, 44))
	require.EqualValues(t, 44, sentinelOf(t, h, 48))
	require.EqualValues(t, 44, sentinelOf(t, h, 96))

	require.NoError(t, h.Free(p))
	require.EqualValues(t, 92, sentinelOf(t, h, 0))
	require.EqualValues(t, 92, sentinelOf(t, h, 96))
}

func TestScenarioFreeSecondThenFirst(t *testing.T) {
	_, h := newHeap100(t)

	p1, err := h.Alloc(3) // 12 bytes
	require.NoError(t, err)
	p2, err := h.Alloc(3) // 12 bytes
	require.NoError(t, err)

	require.Equal(t, []int32{-12, -12, 52}, layout(t, h))

	// Releasing the second block joins the trailing free space.
	require.NoError(t, h.Free(p2))
	require.Equal(t, []int32{-12, 72}, layout(t, h))

	// Releasing the first joins again, restoring the fresh heap.
	require.NoError(t, h.Free(p1))
	require.Equal(t, []int32{92}, layout(t, h))
}

func TestScenarioThreeWayCoalesce(t *testing.T) {
	_, h := newHeap100(t)

	p1, err := h.Alloc(5) // 20 bytes
	require.NoError(t, err)
	p2, err := h.Alloc(3) // 12 bytes
	require.NoError(t, err)
	p3, err := h.Alloc(2) // 8 bytes
	require.NoError(t, err)

	require.NoError(t, h.Free(p1))
	require.NoError(t, h.Free(p3))
	require.Equal(t, []int32{20, -12, 44}, layout(t, h))

	// Both neighbors of p2 are free now; releasing it must merge all
	// three into a single block.
	require.NoError(t, h.Free(p2))
	require.Equal(t, []int32{92}, layout(t, h))
}

func TestScenarioAbsorb(t *testing.T) {
	// A free block of payload 48 and a request for 40 bytes: the slack of
	// 8 cannot frame another block, so the allocation absorbs all 48
	// bytes and no new internal sentinel appears.
	f := NewMemBuffer(56)
	h, err := New(f, 4, &Options{SelfCheck: true})
	require.NoError(t, err)

	p, err := h.Alloc(10)
	require.NoError(t, err)
	require.Equal(t, []int32{-48}, layout(t, h))

	b, err := h.Payload(p)
	require.NoError(t, err)
	require.Len(t, b, 48)
}

func TestScenarioOutOfSpace(t *testing.T) {
	_, h := newHeap100(t)

	// 80 payload bytes out of 92 leave a residual free block of 4.
	_, err := h.Alloc(20)
	require.NoError(t, err)
	require.Equal(t, []int32{-80, 4}, layout(t, h))

	// Two elements need 8 bytes, the residue holds 4.
	_, err = h.Alloc(2)
	require.Error(t, err)
	require.IsType(t, &ErrNOSPC{}, err)

	// One element still fits, absorbing the residue whole.
	p, err := h.Alloc(1)
	require.NoError(t, err)
	require.Equal(t, []int32{-80, -4}, layout(t, h))

	b, err := h.Payload(p)
	require.NoError(t, err)
	require.Len(t, b, 4)

	// Now the heap is exhausted for good.
	_, err = h.Alloc(1)
	require.IsType(t, &ErrNOSPC{}, err)
}
