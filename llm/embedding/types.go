// Package embedding implements the embedding subservice: a narrower
// sibling of the chat Provider Registry that reuses the same
// per-provider credentials to turn text into vectors. Grounded on the
// teacher's llm/embedding package (BaseProvider/BaseConfig, the
// per-provider Provider implementations), generalized with an explicit
// Azure quirk the teacher's embedding package never modeled: Azure's
// embedding endpoint cannot batch, so embedMany on Azure iterates
// sequentially and concatenates results while every other provider
// uses its native batch endpoint.
package embedding

import "context"

// Request mirrors the teacher's EmbeddingRequest, trimmed to the
// fields this gateway's providers actually use.
type Request struct {
	Input      []string
	Model      string
	Dimensions int
}

// Vector is one embedding result, keyed by its position in the
// original input slice.
type Vector struct {
	Index     int
	Embedding []float64
}

// Response mirrors the teacher's EmbeddingResponse.
type Response struct {
	Provider   string
	Model      string
	Embeddings []Vector
	Usage      Usage
}

// Usage carries token accounting when the upstream reports it.
type Usage struct {
	PromptTokens int
	TotalTokens  int
}

// Provider is the embedding subservice's contract: embedOne / embedMany
// per spec.md §4.5, plus the metadata callers need to pick defaults.
type Provider interface {
	EmbedOne(ctx context.Context, text string) ([]float64, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)
	Name() string
	Model() string
	Dimensions() int
	MaxBatchSize() int
}
