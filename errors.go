// Copyright 2026 The Arena Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Error types used by the package.

package arena

import "fmt"

// ErrINVAL reports invalid arguments or detectable misuse of the API.
type ErrINVAL struct {
	Src string
	Val interface{}
}

// Error implements the built in error type.
func (e *ErrINVAL) Error() string {
	return fmt.Sprintf("%s: %v", e.Src, e.Val)
}

// ErrPERM reports an operation on a closed Buffer.
type ErrPERM struct {
	Src string
}

// Error implements the built in error type.
func (e *ErrPERM) Error() string {
	return fmt.Sprintf("%s: operation not permitted", e.Src)
}

// ErrNOMEM reports a Buffer too small to host a heap: the capacity cannot
// hold even the two sentinels of a single empty block.
type ErrNOMEM struct {
	Src string
	Cap int64
}

// Error implements the built in error type.
func (e *ErrNOMEM) Error() string {
	return fmt.Sprintf("%s: insufficient capacity %d", e.Src, e.Cap)
}

// ErrNOSPC reports an allocation request no free block can satisfy.
type ErrNOSPC struct {
	Src  string
	Need int64
}

// Error implements the built in error type.
func (e *ErrNOSPC) Error() string {
	return fmt.Sprintf("%s: out of space, need %d bytes", e.Src, e.Need)
}

// ErrType is the type of a structural problem reported by ErrILSEQ.
type ErrType int

// ErrILSEQ types.
const (
	ErrOther            ErrType = iota // Error on backing Buffer access. More says why.
	ErrSentinelMismatch                // Left and right sentinels of the block at Off disagree. Arg/Arg2 are their values.
	ErrBlockSpan                       // The block at Off extends beyond the buffer end. Arg is its payload length.
	ErrAdjacentFree                    // The blocks at Off and Arg are both free.
)

// ErrILSEQ reports a broken heap structure.
type ErrILSEQ struct {
	Type ErrType
	Off  int64
	Arg  int64
	Arg2 int64
	More error
}

// Error implements the built in error type.
func (e *ErrILSEQ) Error() string {
	switch e.Type {
	case ErrSentinelMismatch:
		return fmt.Sprintf("Sentinel mismatch at off %#x: left %d, right %d", e.Off, e.Arg, e.Arg2)
	case ErrBlockSpan:
		return fmt.Sprintf("Block at off %#x (payload %d) spans beyond the buffer end", e.Off, e.Arg)
	case ErrAdjacentFree:
		return fmt.Sprintf("Adjacent free blocks at off %#x and %#x", e.Off, e.Arg)
	}

	more := ""
	if e.More != nil {
		more = ", " + e.More.Error()
	}
	return fmt.Sprintf("Error at off %#x%s", e.Off, more)
}
