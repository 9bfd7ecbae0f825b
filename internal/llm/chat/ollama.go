// Package chat implements interfaces.ChatModel for local (Ollama) and
// remote (OpenAI-compatible) backends.
package chat

import (
	"context"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/rinarakaki/graphrag/internal/llm"
	"github.com/rinarakaki/graphrag/internal/llm/ollama"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// OllamaChat drives a locally-hosted chat model through a shared
// ollama.Service, grounded on the teacher's OllamaChat.
type OllamaChat struct {
	modelName string
	service   *ollama.Service
	limiter   *llm.Limiter
}

func NewOllamaChat(cfg types.ModelConfig, service *ollama.Service) *OllamaChat {
	return &OllamaChat{modelName: cfg.ModelName, service: service, limiter: llm.NewLimiter(cfg)}
}

func convertMessages(history []types.ChatMessage) []ollamaapi.Message {
	out := make([]ollamaapi.Message, len(history))
	for i, m := range history {
		out[i] = ollamaapi.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func (c *OllamaChat) buildRequest(history []types.ChatMessage, prompt string, opts types.ChatOptions, stream bool) *ollamaapi.ChatRequest {
	messages := append(convertMessages(history), ollamaapi.Message{Role: "user", Content: prompt})
	streamFlag := stream
	req := &ollamaapi.ChatRequest{
		Model:    c.modelName,
		Messages: messages,
		Stream:   &streamFlag,
		Options:  map[string]any{},
	}
	if opts.Temperature > 0 {
		req.Options["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		req.Options["top_p"] = opts.TopP
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}
	return req
}

func (c *OllamaChat) Chat(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (types.ChatResponse, error) {
	if err := c.service.EnsureModelAvailable(ctx, c.modelName); err != nil {
		return types.ChatResponse{}, err
	}
	req := c.buildRequest(history, prompt, opts, false)

	var content string
	var promptTokens, completionTokens int
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		content, promptTokens, completionTokens = "", 0, 0
		return c.service.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
			content += resp.Message.Content
			if resp.EvalCount > 0 {
				promptTokens = resp.PromptEvalCount
				completionTokens = resp.EvalCount
			}
			return nil
		})
	})
	if err != nil {
		return types.ChatResponse{}, pipelineerr.Wrap(pipelineerr.LLMTransient, "ollama chat failed", err)
	}

	return types.ChatResponse{
		Content: content,
		Metrics: types.ChatMetrics{PromptTokens: promptTokens, OutputTokens: completionTokens},
	}, nil
}

func (c *OllamaChat) ChatStream(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (<-chan types.StreamDelta, <-chan error) {
	out := make(chan types.StreamDelta)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)
		if err := c.service.EnsureModelAvailable(ctx, c.modelName); err != nil {
			errc <- err
			return
		}
		req := c.buildRequest(history, prompt, opts, true)
		err := c.service.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
			if resp.Message.Content != "" {
				out <- types.StreamDelta{Content: resp.Message.Content}
			}
			if resp.Done {
				out <- types.StreamDelta{Done: true}
			}
			return nil
		})
		if err != nil {
			errc <- pipelineerr.Wrap(pipelineerr.LLMTransient, "ollama chat stream failed", err)
		}
	}()

	return out, errc
}

var _ interfaces.ChatModel = (*OllamaChat)(nil)
