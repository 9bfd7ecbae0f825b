package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rinarakaki/graphrag/internal/llm"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// OpenAIEmbedder embeds text through any OpenAI-compatible /embeddings
// endpoint, grounded on the teacher's OpenAIEmbedder but routed through the
// shared rate-limit/retry Limiter rather than a hand-rolled backoff loop.
type OpenAIEmbedder struct {
	apiKey     string
	baseURL    string
	modelName  string
	dimensions int
	httpClient *http.Client
	limiter    *llm.Limiter
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func NewOpenAIEmbedder(cfg types.ModelConfig) *OpenAIEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := time.Duration(cfg.RequestTimeout * float64(time.Second))
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIEmbedder{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		modelName:  cfg.ModelName,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    llm.NewLimiter(cfg),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	jsonData, err := json.Marshal(embedRequest{Model: e.modelName, Input: texts})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ParseFailed, "marshalling embed request", err)
	}

	var embeddings [][]float32
	err = e.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(jsonData))
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.LLMTerminal, "building embed request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.apiKey)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.LLMTransient, "sending embed request", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.LLMTransient, "reading embed response", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return pipelineerr.New(pipelineerr.LLMTransient, "embed endpoint returned retryable status", map[string]any{"status": resp.StatusCode})
		}
		if resp.StatusCode != http.StatusOK {
			return pipelineerr.New(pipelineerr.LLMTerminal, "embed endpoint returned error status", map[string]any{"status": resp.StatusCode, "body": string(body)})
		}

		var parsed embedResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return pipelineerr.Wrap(pipelineerr.ParseFailed, "unmarshalling embed response", err)
		}
		embeddings = make([][]float32, len(parsed.Data))
		for _, d := range parsed.Data {
			embeddings[d.Index] = d.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

var _ interfaces.EmbeddingModel = (*OpenAIEmbedder)(nil)
