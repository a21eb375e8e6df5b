// Package openai implements the ai.Embedder interface for OpenAI-compatible
// embedding APIs, including local services like Ollama, LocalAI and vLLM.
package openai
