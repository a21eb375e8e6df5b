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


// Package storage provides the object storage abstraction for docingest.
//
// The pipeline keeps everything it touches in bucket-organized object
// storage: source PDFs in one bucket, converted markdown artifacts in
// another, run reports in a third. This package defines the ObjectStore
// interface those stages program against, so backends can be swapped
// without touching pipeline logic.
//
// # Implementations
//
//   - storage/minio: production backend for MinIO or any S3-compatible server
//   - storage/memory: in-process backend for tests and local experiments
//
// # Constructor Return Type Pattern
//
// Implementation packages return concrete types (*minio.Store,
// *memory.Store); consumers accept the ObjectStore interface. Tests that
// need fault injection wrap a concrete store rather than reimplementing it.
//
// # Error Mapping
//
// Backends translate their native not-found conditions to ErrNotFound and
// missing buckets to ErrBucketNotFound so callers can classify failures
// with errors.Is without importing backend packages.
//
// # Thread Safety
//
// All ObjectStore implementations must be safe for concurrent use; the
// pipeline issues reads from multiple workers at once.
package storage
