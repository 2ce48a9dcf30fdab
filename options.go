// Copyright 2026 The Arena Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arena

import "github.com/rs/zerolog"

// Options are passed to New, Open and NewAllocator to amend the behavior of
// the heap. The compatibility promise is the same as of struct types in the
// Go standard library - introducing changes can be made only by adding new
// exported fields, which is backward compatible as long as client code uses
// field names to assign values of imported struct types literals.
//
// A nil *Options is valid and means all defaults.
type Options struct {
	// SelfCheck makes every mutating operation, and the element
	// construct/destroy hooks, re-run the structural validity scan before
	// returning and fail with ErrILSEQ if the heap is broken. The scan is
	// O(number of blocks), so this is intended for tests and debugging
	// rather than for production use.
	SelfCheck bool

	// Trace, when non-nil, receives a debug event for every allocation,
	// deallocation, split, absorb and coalesce. Errors are never logged,
	// they are returned.
	Trace *zerolog.Logger
}
