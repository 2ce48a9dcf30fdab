// Copyright 2026 The Arena Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// An abstraction of fixed-capacity, offset-addressed byte storage.

package arena

// A Buffer is a []byte-like model of a fixed amount of storage. In contrast
// to a stream it is not sequentially accessible; ReadAt and WriteAt are
// always "addressed" by an offset and are assumed to perform atomically. The
// capacity reported by Size never changes during the lifetime of a Buffer -
// a heap never grows or shrinks its storage, it only reinterprets it.
//
// Slice returns a view aliasing the underlying storage, valid until Close.
// It is the offset-to-address translation used to reach block payloads
// without copying.
//
// A Buffer is not safe for concurrent access. It is designed for consumption
// by the other objects in the package, which use a Buffer from one goroutine
// only.
type Buffer interface {
	// As os.File.Close().
	Close() error

	// As os.File.Name().
	Name() string

	// As os.File.ReadAt. `off` is an absolute offset and cannot be
	// negative.
	ReadAt(b []byte, off int64) (n int, err error)

	// Size returns the fixed capacity of the Buffer in bytes.
	Size() int64

	// Slice returns a writable view of [off, off+size). The view aliases
	// the underlying storage: writes through it are observable by ReadAt.
	Slice(off, size int64) ([]byte, error)

	// As os.File.WriteAt(). `off` is an absolute offset and cannot be
	// negative. Writing beyond Size fails, the storage is fixed.
	WriteAt(b []byte, off int64) (n int, err error)
}
