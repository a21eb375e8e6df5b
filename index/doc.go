// Copyright 2026 Poiesic Systems
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


// Package index defines the vector index abstraction the pipeline writes
// embedded segments into.
//
// # Implementations
//
//   - index/pgvector: production backend against Postgres with the pgvector
//     extension
//   - index/badger: embedded BadgerDB backend for local runs and tests
//
// # Contract
//
// A collection is created once with a fixed vector dimensionality via
// EnsureCollection; EnsureCollection must complete before Upsert or Exists
// are used on that collection. Upsert overwrites by record key, so writing
// the same records again is a no-op in record-count terms. Exists answers
// bulk membership checks and treats a collection that does not exist yet
// as containing nothing.
//
// # Error Mapping
//
// Backends return core.ErrDimensionMismatch when a vector's length
// disagrees with the collection's established dimensionality, and
// ErrCollectionNotFound for writes to a collection that was never ensured.
// Transport and storage failures pass through untranslated; callers decide
// retry and classification policy.
package index
