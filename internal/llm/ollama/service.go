// Package ollama wraps the official Ollama client with availability
// checks and on-demand model pulls, adapted from the teacher's OllamaService
// for use by both chat and embedding models.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ollama/ollama/api"

	"github.com/rinarakaki/graphrag/internal/logger"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
)

// Service manages a connection to a local Ollama daemon.
type Service struct {
	client      *api.Client
	baseURL     string
	mu          sync.Mutex
	isAvailable bool
}

// NewService connects to an Ollama daemon at baseURL (defaults to
// http://localhost:11434 when empty).
func NewService(baseURL string) (*Service, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigError, "invalid ollama base url", err)
	}
	return &Service{client: api.NewClient(parsed, http.DefaultClient), baseURL: baseURL}, nil
}

// StartService verifies the daemon is reachable.
func (s *Service) StartService(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.Heartbeat(ctx); err != nil {
		s.isAvailable = false
		return pipelineerr.Wrap(pipelineerr.LLMTransient, "ollama service unavailable", err)
	}
	s.isAvailable = true
	return nil
}

func (s *Service) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAvailable
}

// IsModelAvailable reports whether modelName is already pulled.
func (s *Service) IsModelAvailable(ctx context.Context, modelName string) (bool, error) {
	if err := s.StartService(ctx); err != nil {
		return false, err
	}
	list, err := s.client.List(ctx)
	if err != nil {
		return false, pipelineerr.Wrap(pipelineerr.LLMTransient, "listing ollama models", err)
	}
	for _, m := range list.Models {
		if m.Name == modelName {
			return true, nil
		}
	}
	return false, nil
}

// EnsureModelAvailable pulls modelName if it is not already present.
func (s *Service) EnsureModelAvailable(ctx context.Context, modelName string) error {
	available, err := s.IsModelAvailable(ctx, modelName)
	if err != nil {
		return err
	}
	if available {
		return nil
	}
	logger.Infof(ctx, "pulling ollama model %s", modelName)
	err = s.client.Pull(ctx, &api.PullRequest{Name: modelName}, func(p api.ProgressResponse) error {
		if p.Total > 0 && p.Completed > 0 {
			logger.Debugf(ctx, "pull %s: %s (%d/%d)", modelName, p.Status, p.Completed, p.Total)
		}
		return nil
	})
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.LLMTransient, "pulling ollama model", err)
	}
	return nil
}

func (s *Service) Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error {
	if err := s.StartService(ctx); err != nil {
		return err
	}
	return s.client.Chat(ctx, req, fn)
}

func (s *Service) Embed(ctx context.Context, req *api.EmbedRequest) (*api.EmbedResponse, error) {
	if err := s.StartService(ctx); err != nil {
		return nil, err
	}
	return s.client.Embed(ctx, req)
}

// IsValidModelName rejects obviously malformed model name configuration.
func IsValidModelName(name string) bool {
	return name != "" && !strings.Contains(name, " ")
}
