// Copyright 2026 The Arena Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A memory-only implementation of Buffer.

package arena

import (
	"fmt"
	"io"

	"modernc.org/mathutil"
)

var _ Buffer = &MemBuffer{} // Ensure MemBuffer is a Buffer.

// MemBuffer is a memory backed Buffer of fixed capacity. The storage is a
// single flat array allocated up front; a heap's capacity is bounded and
// known at construction, so there is nothing to gain from paging it. It is
// not automatically persistent, but it has ReadFrom and WriteTo methods.
type MemBuffer struct {
	b      []byte
	closed bool
}

// NewMemBuffer returns a new MemBuffer with a capacity of size bytes.
// A negative size is clamped to zero.
func NewMemBuffer(size int64) *MemBuffer {
	return &MemBuffer{b: make([]byte, mathutil.MaxInt64(size, 0))}
}

// Close implements Buffer.
func (f *MemBuffer) Close() (err error) {
	if f.closed {
		return &ErrPERM{f.Name() + ":Close"}
	}

	f.closed = true
	return
}

// Name implements Buffer.
func (f *MemBuffer) Name() string {
	return fmt.Sprintf("%p.membuffer", f)
}

// ReadAt implements Buffer.
func (f *MemBuffer) ReadAt(b []byte, off int64) (n int, err error) {
	if f.closed {
		return 0, &ErrPERM{f.Name() + ":ReadAt"}
	}

	if off < 0 {
		return 0, &ErrINVAL{f.Name() + ":ReadAt invalid off", off}
	}

	if off >= f.Size() {
		return 0, io.EOF
	}

	n = copy(b, f.b[off:])
	if n < len(b) {
		err = io.EOF
	}
	return
}

// ReadFrom fills the MemBuffer's content from r, starting at offset 0. 'n'
// reports the number of bytes read from 'r'. Content beyond the fixed
// capacity is not read; the remainder of r is left unconsumed.
func (f *MemBuffer) ReadFrom(r io.Reader) (n int64, err error) {
	if f.closed {
		return 0, &ErrPERM{f.Name() + ":ReadFrom"}
	}

	var rn int
	var rerr error
	for rerr == nil && n < f.Size() {
		rn, rerr = r.Read(f.b[n:])
		n += int64(rn)
	}
	if rerr != nil && rerr != io.EOF {
		err = rerr
	}
	return
}

// Size implements Buffer.
func (f *MemBuffer) Size() int64 {
	return int64(len(f.b))
}

// Slice implements Buffer.
func (f *MemBuffer) Slice(off, size int64) ([]byte, error) {
	if f.closed {
		return nil, &ErrPERM{f.Name() + ":Slice"}
	}

	if off < 0 || size < 0 || off+size > f.Size() {
		return nil, &ErrINVAL{f.Name() + ":Slice invalid range", fmt.Sprintf("[%d, %d)", off, off+size)}
	}

	return f.b[off : off+size : off+size], nil
}

// WriteAt implements Buffer.
func (f *MemBuffer) WriteAt(b []byte, off int64) (n int, err error) {
	if f.closed {
		return 0, &ErrPERM{f.Name() + ":WriteAt"}
	}

	if off < 0 || off+int64(len(b)) > f.Size() {
		return 0, &ErrINVAL{f.Name() + ":WriteAt invalid off", off}
	}

	return copy(f.b[off:], b), nil
}

// Bytes returns a copy of the MemBuffer's content.
func (f *MemBuffer) Bytes() []byte {
	return append([]byte(nil), f.b...)
}

// WriteTo is a helper to copy/persist MemBuffer's content to w. 'n' reports
// the number of bytes written to 'w'.
func (f *MemBuffer) WriteTo(w io.Writer) (n int64, err error) {
	wn, err := w.Write(f.b)
	return int64(wn), err
}
