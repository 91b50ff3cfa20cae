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


// Package ingestion drives the build of a vector index and its matching
// text store from a stream of chunk texts.
//
// The pipeline works in accumulation windows: chunks are pulled into a
// bounded buffer, encoded in fixed sub-batches, committed to the index
// engine in one call, and persisted to the text store in the same cadence.
// Chunk ids are dense, zero-based, and shared between the index and the
// store. A window failure is terminal for the run and reported as a
// WindowError carrying the affected chunk-id range.
package ingestion
