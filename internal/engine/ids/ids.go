// SPDX-License-Identifier: MIT
// Package ids generates process-wide unique ObjectIds for Processors
// (tracks and plugins). Grounded on pipelined-pipe's use of rs/xid for its
// own graph-node identifiers: xid values are k-sortable, allocation-free to
// compare, and cheap enough to mint on the non-RT thread that constructs an
// ADD_PROCESSOR event.
package ids

import "github.com/rs/xid"

// ObjectId identifies a Processor for the lifetime of a run. It is
// immutable after creation and never reused.
type ObjectId struct {
	id xid.ID
}

// Nil is the zero ObjectId, used to mean "no target" (e.g. Track-internal
// routes with no parameter).
var Nil ObjectId

// New mints a fresh, process-wide unique ObjectId.
func New() ObjectId {
	return ObjectId{id: xid.New()}
}

// String renders the ObjectId as its canonical base32 form.
func (o ObjectId) String() string {
	return o.id.String()
}

// IsNil reports whether this is the zero ObjectId.
func (o ObjectId) IsNil() bool {
	return o == Nil
}

// Compare orders ObjectIds by creation time then machine/process
// disambiguator, matching xid's own ordering.
func (o ObjectId) Compare(other ObjectId) int {
	return o.id.Compare(other.id)
}
