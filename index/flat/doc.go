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


// Package flat provides a brute-force vector index backed by BadgerDB.
//
// The flat engine stores unit-normalized vectors and answers queries with
// an exhaustive dot-product scan, so scores are cosine similarities. It is
// exact and simple, which suits corpora in the tens to hundreds of
// thousands of chunks. Create builds a fresh index (replacing any existing
// one at the same path), Open loads an existing index read-only for
// serving.
package flat
