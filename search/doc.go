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


// Package search turns a query string into a ranked, probability-annotated
// result list over a built index.
//
// A query is encoded with the same embedder used during ingestion, sent to
// the index engine, and the engine's raw result normalized into canonical
// hits. Ranks follow the engine's return order; a softmax over the scores
// yields a confidence distribution; the final list is ordered by descending
// score with ascending-id tie-breaks, and enriched with stored chunk text
// when a text store is available. Full responses are cached per (query, k)
// in a bounded LRU.
package search
