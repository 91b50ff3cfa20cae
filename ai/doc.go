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


// Package ai provides the text-encoding abstraction used by searchit.
//
// The package defines the Embedder interface, which maps text to fixed-form
// vectors. The same embedder is used for documents during ingestion and for
// queries at search time, so both live in the same embedding space.
//
// # Implementation Packages
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles, no external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder) return the ai.Embedder INTERFACE
// to enforce abstraction and prevent accidental coupling to a concrete
// implementation:
//
//	embedder, err := openai.NewEmbedder(config)  // returns ai.Embedder
//
// Test utility constructors (mock.NewEmbedder) return CONCRETE types to
// enable test assertions and behavior injection via the mock's public
// surface (DocumentCalls, EmbedDocumentsFunc, Reset, ...):
//
//	mockEmbed := mock.NewEmbedder()      // returns *mock.Embedder
//	mockEmbed.EmbedDocumentsFunc = ...   // needs concrete type
//	count := mockEmbed.DocumentCalls()   // test assertion
package ai
