// Package store defines the pluggable key/value persistence contract
// nodes use for durable state: a node's persisted emission counter (so
// a restarted producer resumes its clock) and sink nodes that persist
// converged packets (see nodes/sink/save).
package store

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"errors"

	"github.com/brunotm/flowgraph/config"
)

// ErrKeyNotFound is returned when a key is not found on a get from the
// store.
var ErrKeyNotFound = errors.New("store: key not found")

// Initializer is implemented by a Store that needs the owning node's
// context (name, settings) before first use.
type Initializer interface {
	Init(ctx Context) (err error)
}

// Closer is implemented by a Store that holds resources needing
// release at node finish.
type Closer interface {
	Close() (err error)
}

// Remover is implemented by a Store that can clear its data or state
// entirely, releasing and closing resources in the process.
type Remover interface {
	Remove() (err error)
}

// Supplier instantiates a Store for one node. Called at most once per
// node and store name, when that store is first opened; if the
// returned Store implements Initializer, Init is called before first
// use.
type Supplier func() Store

// ROStore is a read-only key/value store.
type ROStore interface {
	// Name returns this store's name (conventionally the owning node's
	// identity).
	Name() (name string)

	// Get the value for the given key.
	Get(key []byte) (value []byte, err error)

	// Range iterates the store in byte-wise lexicographical order
	// within [from, to), applying callback to each pair. A non-nil
	// error from callback stops iteration. A nil from or to means the
	// beginning or end of the store; both nil iterates everything. Key
	// and value are valid only for the duration of the callback.
	Range(from, to []byte, callback func(key, value []byte) error) (err error)

	// RangePrefix iterates the store over a key prefix, same contract
	// as Range.
	RangePrefix(prefix []byte, callback func(key, value []byte) error) (err error)
}

// Store is a read/write key/value store.
type Store interface {
	ROStore

	// Set the value for the given key.
	Set(key, value []byte) (err error)

	// Delete the given key and its associated value.
	Delete(key []byte) (err error)
}

// Context is the subset of node.Context a Store needs at Init time: its
// owning node's identity and settings. Defined here (rather than
// imported from package node) so store does not import node, which
// would import store right back for its persisted-counter and Save
// sink use.
type Context interface {
	NodeName() string
	Config() config.Config
}
