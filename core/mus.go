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
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted domain types. The layouts are small and
// fixed, so they are written by hand on the mus-go primitives rather than
// generated.

// IDMUS serializes IDs in the varint format.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// EntryMUS serializes Entries as varint ID followed by a length-prefixed
// string.
var EntryMUS = entryMUS{}

type entryMUS struct{}

func (entryMUS) Marshal(entry Entry, bs []byte) (n int) {
	n = IDMUS.Marshal(entry.Id, bs)
	n += ord.String.Marshal(entry.Text, bs[n:])
	return n
}

func (entryMUS) Unmarshal(bs []byte) (entry Entry, n int, err error) {
	entry.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return entry, n, err
	}
	var n1 int
	entry.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return entry, n, err
}

func (entryMUS) Size(entry Entry) int {
	return IDMUS.Size(entry.Id) + ord.String.Size(entry.Text)
}

func (entryMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return n, err
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	return n + n1, err
}

// VectorMUS serializes embedding vectors as a varint length followed by raw
// float32 components.
var VectorMUS = vectorMUS{}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, val := range v {
		n += raw.Float32.Marshal(val, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	v = make([]float32, length)
	for i := range v {
		var n1 int
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, val := range v {
		size += raw.Float32.Size(val)
	}
	return size
}

func (vectorMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return n, err
	}
	for i := uint64(0); i < length; i++ {
		var n1 int
		n1, err = raw.Float32.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
