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


package search

import "github.com/poiesic/searchit/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during a search.
type Monitor interface {
	Start(query string, k int)
	CacheHit(query string, k int)
	AfterEncode(vector []float32)
	AfterEngineQuery(hits []core.Hit)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)         {}
func (n *noopMonitor) CacheHit(_ string, _ int)      {}
func (n *noopMonitor) AfterEncode(_ []float32)       {}
func (n *noopMonitor) AfterEngineQuery(_ []core.Hit) {}
func (n *noopMonitor) Finish(_ []core.SearchResult)  {}
