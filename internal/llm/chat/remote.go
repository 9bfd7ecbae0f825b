package chat

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/rinarakaki/graphrag/internal/llm"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// RemoteChat drives any OpenAI-compatible chat completion endpoint,
// grounded on the teacher's RemoteAPIChat.
type RemoteChat struct {
	modelName string
	client    *openai.Client
	limiter   *llm.Limiter
}

func NewRemoteChat(cfg types.ModelConfig) *RemoteChat {
	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = cfg.BaseURL
	}
	return &RemoteChat{
		modelName: cfg.ModelName,
		client:    openai.NewClientWithConfig(oaCfg),
		limiter:   llm.NewLimiter(cfg),
	}
}

func (c *RemoteChat) buildRequest(history []types.ChatMessage, prompt string, opts types.ChatOptions, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: "user", Content: prompt})

	req := openai.ChatCompletionRequest{Model: c.modelName, Messages: messages, Stream: stream}
	if opts.Temperature > 0 {
		req.Temperature = float32(opts.Temperature)
	}
	if opts.TopP > 0 {
		req.TopP = float32(opts.TopP)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Seed != 0 {
		seed := opts.Seed
		req.Seed = &seed
	}
	return req
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if ok := asAPIError(err, &apiErr); ok {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return pipelineerr.Wrap(pipelineerr.LLMTransient, "remote chat transient error", err)
		}
	}
	return pipelineerr.Wrap(pipelineerr.LLMTerminal, "remote chat failed", err)
}

func asAPIError(err error, target **openai.APIError) bool {
	apiErr, ok := err.(*openai.APIError)
	if ok {
		*target = apiErr
	}
	return ok
}

func (c *RemoteChat) Chat(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (types.ChatResponse, error) {
	req := c.buildRequest(history, prompt, opts, false)

	var resp openai.ChatCompletionResponse
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classifyOpenAIError(err)
		}
		return nil
	})
	if err != nil {
		return types.ChatResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return types.ChatResponse{}, pipelineerr.New(pipelineerr.LLMTerminal, "remote chat returned no choices", nil)
	}

	return types.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Metrics: types.ChatMetrics{PromptTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}, nil
}

func (c *RemoteChat) ChatStream(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (<-chan types.StreamDelta, <-chan error) {
	out := make(chan types.StreamDelta)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)
		req := c.buildRequest(history, prompt, opts, true)
		stream, err := c.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			errc <- classifyOpenAIError(err)
			return
		}
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if err != nil {
				out <- types.StreamDelta{Done: true}
				return
			}
			if len(resp.Choices) > 0 {
				out <- types.StreamDelta{Content: resp.Choices[0].Delta.Content}
			}
		}
	}()

	return out, errc
}

var _ interfaces.ChatModel = (*RemoteChat)(nil)
