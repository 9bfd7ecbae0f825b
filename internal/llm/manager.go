package llm

import (
	"fmt"
	"sync"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/llm/chat"
	"github.com/rinarakaki/graphrag/internal/llm/embedding"
	"github.com/rinarakaki/graphrag/internal/llm/ollama"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// Manager resolves named ChatModel/EmbeddingModel instances from Config,
// grounded on the teacher's NewChat source switch, generalized to a
// registry so a pipeline run never has to re-parse config per call. One
// Manager belongs to one scoped runtime container (SPEC_FULL.md A.5): two
// concurrent runs never share a cached model instance.
type Manager struct {
	cfg *config.Config

	mu         sync.Mutex
	chatModels map[string]interfaces.ChatModel
	embedders  map[string]interfaces.EmbeddingModel
	ollama     *ollama.Service
}

// NewManager builds a Manager. The ollama service is lazily connected on
// first use by a model configured with source "local".
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:        cfg,
		chatModels: make(map[string]interfaces.ChatModel),
		embedders:  make(map[string]interfaces.EmbeddingModel),
	}
}

func (m *Manager) ollamaService() (*ollama.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ollama != nil {
		return m.ollama, nil
	}
	svc, err := ollama.NewService("")
	if err != nil {
		return nil, err
	}
	m.ollama = svc
	return svc, nil
}

func (m *Manager) Chat(name string) (interfaces.ChatModel, error) {
	m.mu.Lock()
	if c, ok := m.chatModels[name]; ok {
		m.mu.Unlock()
		return c, nil
	}
	m.mu.Unlock()

	model, err := m.cfg.ModelByName(name)
	if err != nil {
		return nil, err
	}

	var chatModel interfaces.ChatModel
	switch model.Source {
	case types.ModelSourceLocal:
		svc, err := m.ollamaService()
		if err != nil {
			return nil, err
		}
		chatModel = chat.NewOllamaChat(model, svc)
	case types.ModelSourceRemote:
		chatModel = chat.NewRemoteChat(model)
	default:
		return nil, pipelineerr.New(pipelineerr.ConfigError, fmt.Sprintf("unsupported chat model source %q", model.Source), nil)
	}

	m.mu.Lock()
	m.chatModels[name] = chatModel
	m.mu.Unlock()
	return chatModel, nil
}

func (m *Manager) Embedding(name string) (interfaces.EmbeddingModel, error) {
	m.mu.Lock()
	if e, ok := m.embedders[name]; ok {
		m.mu.Unlock()
		return e, nil
	}
	m.mu.Unlock()

	model, err := m.cfg.ModelByName(name)
	if err != nil {
		return nil, err
	}

	var embedder interfaces.EmbeddingModel
	switch model.Source {
	case types.ModelSourceLocal:
		svc, err := m.ollamaService()
		if err != nil {
			return nil, err
		}
		embedder = embedding.NewOllamaEmbedder(model, svc)
	case types.ModelSourceRemote:
		embedder = embedding.NewOpenAIEmbedder(model)
	default:
		return nil, pipelineerr.New(pipelineerr.ConfigError, fmt.Sprintf("unsupported embedding model source %q", model.Source), nil)
	}

	m.mu.Lock()
	m.embedders[name] = embedder
	m.mu.Unlock()
	return embedder, nil
}

var _ interfaces.Manager = (*Manager)(nil)
