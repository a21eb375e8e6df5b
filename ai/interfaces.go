package ai

import "context"

// Embedder generates vector embeddings from text for semantic indexing.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedTexts generates vector embeddings for a batch of text strings.
	// The returned slice contains exactly one embedding per input text, in
	// the same order as the inputs. Implementations fail rather than return
	// a result of a different length.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
