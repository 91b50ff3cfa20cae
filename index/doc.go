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


// Package index defines the vector index engine abstraction.
//
// An Engine stores (id, vector) pairs and answers nearest-neighbor queries.
// The engine's internal structure, persistence format, and similarity metric
// are opaque to the rest of the system: the pipeline only appends, the
// search service only queries.
//
// Engines may report query results in several shapes (pair lists, keyed
// records, columnar). The Raw type carries the shape as a tagged variant and
// Normalize resolves it into canonical core.Hit records exactly once, at
// this boundary.
//
// The index/flat subpackage provides the built-in engine: a BadgerDB-backed
// flat index with brute-force cosine scoring.
package index
