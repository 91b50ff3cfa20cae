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


// Package dataset turns a filesystem path into a restartable stream of
// document texts and, via the Chunker, into encoder-sized chunk texts.
//
// Two source kinds are supported. A flat file holds documents joined by a
// fixed delimiter; it is streamed and split without ever materializing the
// whole corpus. A directory is scanned once, each file's text extracted by
// format, and the joined result written to a compressed cache artifact next
// to the directory; later runs stream from the artifact directly.
//
// Use NewSource to dispatch on the path kind, then Chunks to derive the
// chunk stream fed to the ingestion pipeline.
package dataset
