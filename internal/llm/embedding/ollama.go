// Package embedding implements interfaces.EmbeddingModel for local
// (Ollama) and remote (OpenAI-compatible) backends.
package embedding

import (
	"context"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/rinarakaki/graphrag/internal/llm"
	"github.com/rinarakaki/graphrag/internal/llm/ollama"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// OllamaEmbedder embeds text through a shared ollama.Service.
type OllamaEmbedder struct {
	modelName  string
	dimensions int
	service    *ollama.Service
	limiter    *llm.Limiter
}

func NewOllamaEmbedder(cfg types.ModelConfig, service *ollama.Service) *OllamaEmbedder {
	return &OllamaEmbedder{
		modelName:  cfg.ModelName,
		dimensions: cfg.Dimensions,
		service:    service,
		limiter:    llm.NewLimiter(cfg),
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.service.EnsureModelAvailable(ctx, e.modelName); err != nil {
		return nil, err
	}
	var out [][]float32
	err := e.limiter.Do(ctx, func(ctx context.Context) error {
		resp, err := e.service.Embed(ctx, &ollamaapi.EmbedRequest{Model: e.modelName, Input: texts})
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.LLMTransient, "ollama embed failed", err)
		}
		out = resp.Embeddings
		return nil
	})
	return out, err
}

func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

var _ interfaces.EmbeddingModel = (*OllamaEmbedder)(nil)
