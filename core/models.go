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


package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a chunk identifier. IDs are dense, zero-based, and unique across a
// single ingestion run; they are the join key between the vector index and
// the text store.
type ID uint64

// Fingerprint generates a deterministic 64-bit digest of text using BLAKE2b.
// It is used to stamp configuration-dependent artifacts (such as the dataset
// cache) so that identical inputs always produce identical digests.
func Fingerprint(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// Entry is a text store record: the chunk text keyed by the chunk ID that
// produced the matching index vector.
type Entry struct {
	Id   ID
	Text string
}

// Hit is a canonical index engine result: a chunk ID with the engine's raw
// similarity score. Higher scores are more similar; the exact metric is
// engine-defined.
type Hit struct {
	Id    ID
	Score float32
}

// SearchResult is one ranked entry of a search response.
type SearchResult struct {
	Id          ID      `json:"pid"`
	Rank        int     `json:"rank"`
	Score       float64 `json:"score"`
	Probability float64 `json:"prob"`
	Text        string  `json:"text,omitempty"`
}
