// Package mock provides a test double for the ai.Embedder interface.
//
// MockEmbedder lets tests run without an embedding service. By default it
// returns small deterministic unit vectors derived from the input text;
// custom behavior (including failures) is injected through EmbedTextsFunc.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service down")
//	}
//	count := embedder.CallCount()
package mock
