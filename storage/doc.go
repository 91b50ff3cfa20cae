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


// Package storage provides the text store abstraction for searchit.
//
// The TextStore interface decouples the durable chunk-id to chunk-text
// mapping from its implementation, allowing different backends (BadgerDB,
// in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction:
//
//	store, err := badger.NewTextStore(backend)  // returns storage.TextStore
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Durability and Concurrency
//
// Implementations must commit each AddBatch durably and keep per-key
// upserts idempotent, so a batch interrupted mid-write is safe to retry.
// One writer and many concurrent readers are supported; the serving
// process opens the store read-only.
//
// # Context Support
//
// All methods accept context.Context. Pass context.Background() for
// operations without specific timeout requirements.
package storage
