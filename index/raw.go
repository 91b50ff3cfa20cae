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


package index

import (
	"fmt"
	"strconv"

	"github.com/poiesic/searchit/core"
)

// Kind tags the shape of a raw engine result.
type Kind int

const (
	// KindPairs is an ordered list of (id, score) pairs.
	KindPairs Kind = iota + 1
	// KindObjects is an ordered list of keyed records ("id"/"pid", "score").
	KindObjects
	// KindColumns is a columnar result: parallel id and score columns.
	KindColumns
)

// Pair is one (id, score) element of a KindPairs result.
type Pair struct {
	Id    core.ID
	Score float32
}

// Columns holds a columnar result. Ids and Scores must be the same length.
type Columns struct {
	Ids    []core.ID
	Scores []float32
}

// Raw is a tagged-variant engine result. Exactly one of Pairs, Objects, or
// Columns is populated, selected by Kind. Engines return whichever shape is
// natural for them; the serving layer resolves it once at this boundary.
type Raw struct {
	Kind    Kind
	Pairs   []Pair
	Objects []map[string]any
	Columns *Columns
}

// Normalize converts a raw result into canonical hits, preserving the
// engine's returned order. It is the single point where result shape is
// resolved; nothing downstream inspects the raw form.
func (r *Raw) Normalize() ([]core.Hit, error) {
	if r == nil {
		return []core.Hit{}, nil
	}

	switch r.Kind {
	case KindPairs:
		hits := make([]core.Hit, len(r.Pairs))
		for i, pair := range r.Pairs {
			hits[i] = core.Hit{Id: pair.Id, Score: pair.Score}
		}
		return hits, nil

	case KindObjects:
		hits := make([]core.Hit, 0, len(r.Objects))
		for i, obj := range r.Objects {
			id, ok := objectID(obj)
			if !ok {
				return nil, fmt.Errorf("%w: object %d has no id field", ErrMalformedResult, i)
			}
			score, ok := numeric(obj["score"])
			if !ok {
				return nil, fmt.Errorf("%w: object %d has no score field", ErrMalformedResult, i)
			}
			hits = append(hits, core.Hit{Id: id, Score: score})
		}
		return hits, nil

	case KindColumns:
		if r.Columns == nil {
			return []core.Hit{}, nil
		}
		if len(r.Columns.Ids) != len(r.Columns.Scores) {
			return nil, fmt.Errorf("%w: %d ids vs %d scores",
				ErrMalformedResult, len(r.Columns.Ids), len(r.Columns.Scores))
		}
		hits := make([]core.Hit, len(r.Columns.Ids))
		for i := range r.Columns.Ids {
			hits[i] = core.Hit{Id: r.Columns.Ids[i], Score: r.Columns.Scores[i]}
		}
		return hits, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedResult, r.Kind)
	}
}

// objectID reads the id of a keyed record, accepting either an "id" or a
// "pid" key with a numeric or string value.
func objectID(obj map[string]any) (core.ID, bool) {
	for _, key := range []string{"id", "pid"} {
		val, ok := obj[key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case core.ID:
			return v, true
		case uint64:
			return core.ID(v), true
		case int:
			if v >= 0 {
				return core.ID(v), true
			}
		case int64:
			if v >= 0 {
				return core.ID(v), true
			}
		case float64:
			if v >= 0 {
				return core.ID(v), true
			}
		case string:
			parsed, err := strconv.ParseUint(v, 10, 64)
			if err == nil {
				return core.ID(parsed), true
			}
		}
	}
	return 0, false
}

// numeric coerces a score value to float32.
func numeric(val any) (float32, bool) {
	switch v := val.(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	case int64:
		return float32(v), true
	default:
		return 0, false
	}
}
