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


// Package ai provides the embedding service abstraction used by the
// ingestion pipeline.
//
// The package defines the Embedder interface and its shared Config. It
// follows the dependency inversion principle: the pipeline depends on the
// abstraction here, never on a concrete client.
//
// # Implementation Packages
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: test double for unit testing without an embedding service
//
// # Constructor Return Type Pattern
//
// The production constructor (openai.NewEmbedder) returns the ai.Embedder
// INTERFACE to enforce abstraction. The test constructor
// (mock.NewMockEmbedder) returns the CONCRETE type so tests can inject
// behavior through its public fields and assert on call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("text-embedding-3-small"))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vectors, err := embedder.EmbedTexts(ctx, []string{"first", "second"})
package ai
