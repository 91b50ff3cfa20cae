// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"errors"
	"fmt"

	"github.com/poiesic/searchit/core"
)

var (
	// ErrEmbedderRequired indicates a nil embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEngineRequired indicates a nil index engine was provided.
	ErrEngineRequired = errors.New("index engine is required")

	// ErrStoreRequired indicates a nil text store was provided.
	ErrStoreRequired = errors.New("text store is required")

	// ErrVectorCountMismatch indicates the encoder returned a different
	// number of vectors than texts it was given.
	ErrVectorCountMismatch = errors.New("encoder returned mismatched vector count")
)

// WindowError is the terminal failure of one accumulation window. It names
// the chunk-id range of the window and the index location so a run can be
// diagnosed; partial index state is left in place on purpose.
type WindowError struct {
	Stage    string
	FirstID  core.ID
	LastID   core.ID
	Location string
	Err      error
}

func (e *WindowError) Error() string {
	msg := fmt.Sprintf("%s failed for chunks %d..%d", e.Stage, e.FirstID, e.LastID)
	if e.Location != "" {
		msg += fmt.Sprintf(" (index at %s)", e.Location)
	}
	return msg + ": " + e.Err.Error()
}

func (e *WindowError) Unwrap() error {
	return e.Err
}
