// Package container wires concrete implementations behind the capability
// interfaces in internal/types/interfaces, selecting a backend per config
// section (file/blob/memory storage, file/memory/redis cache,
// postgres/memory vector store, neo4j/memory graph store). Grounded on the
// teacher's internal/container/container.go dig.Provide wiring, generalized
// from a single fixed backend set to the spec's pluggable-backend config
// (SPEC_FULL.md A.5, A.1).
package container

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rinarakaki/graphrag/internal/cache"
	"github.com/rinarakaki/graphrag/internal/callbacks"
	"github.com/rinarakaki/graphrag/internal/chunking"
	"github.com/rinarakaki/graphrag/internal/cluster"
	"github.com/rinarakaki/graphrag/internal/community"
	"github.com/rinarakaki/graphrag/internal/concurrency"
	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/embed"
	"github.com/rinarakaki/graphrag/internal/extract"
	graphstore "github.com/rinarakaki/graphrag/internal/graph/store"
	"github.com/rinarakaki/graphrag/internal/llm"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/report"
	"github.com/rinarakaki/graphrag/internal/search"
	"github.com/rinarakaki/graphrag/internal/store"
	"github.com/rinarakaki/graphrag/internal/summarize"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
	"github.com/rinarakaki/graphrag/internal/vectorstore"
	"github.com/rinarakaki/graphrag/internal/workflow"
)

// Build registers every provider into c and returns it, mirroring the
// teacher's BuildContainer(c *dig.Container) *dig.Container shape.
func Build(c *dig.Container, cfg *config.Config) (*dig.Container, error) {
	providers := []any{
		func() *config.Config { return cfg },
		func() context.Context { return context.Background() },
		provideStorage,
		provideCache,
		provideCallbacks,
		provideManager,
		provideChatModel,
		provideEmbeddingModel,
		provideVectorStore,
		provideGraphStore,
		provideTokenizer,
		provideConcurrencyPool,
		provideExtractor,
		provideSummarizer,
		provideClusterer,
		provideReporter,
		provideEmbedder,
		provideDispatcher,
		provideCommunitySelector,
		provideSearchEngine,
		provideWorkflowRunner,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.ConfigError, "registering container provider", err)
		}
	}
	return c, nil
}

func provideStorage(cfg *config.Config) (interfaces.TableStorage, error) {
	var base interfaces.Storage
	var err error
	switch cfg.Output.Type {
	case "blob":
		b := cfg.Output.Blob
		base, err = store.NewBlobStorage(b.Endpoint, b.AccessKeyID, b.SecretAccessKey, b.Bucket, b.UseSSL)
	case "memory":
		base = store.NewMemoryStorage()
	default:
		base, err = store.NewFileStorage(cfg.Output.BaseDir)
	}
	if err != nil {
		return nil, err
	}
	return store.NewParquetTables(base), nil
}

func provideCache(cfg *config.Config) (interfaces.Cache, error) {
	switch cfg.Cache.Type {
	case "redis":
		return cache.NewRedisCache(cfg.Cache.Redis.Address, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix, cfg.Cache.Redis.TTL)
	case "memory":
		return cache.NewMemoryCache(), nil
	default:
		return cache.NewFileCache(cfg.Cache.BaseDir)
	}
}

func provideCallbacks(ctx context.Context) types.WorkflowCallbacks {
	return callbacks.NewMultiplexer(callbacks.NewLoggingCallbacks(ctx))
}

func provideManager(cfg *config.Config) interfaces.Manager {
	return llm.NewManager(cfg)
}

func provideChatModel(cfg *config.Config, manager interfaces.Manager) (interfaces.ChatModel, error) {
	return manager.Chat(cfg.DefaultChatModel)
}

func provideEmbeddingModel(cfg *config.Config, manager interfaces.Manager) (interfaces.EmbeddingModel, error) {
	return manager.Embedding(cfg.DefaultEmbedModel)
}

func provideVectorStore(cfg *config.Config) (interfaces.BaseVectorStore, error) {
	switch cfg.VectorStore.Type {
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.VectorStore.DSN), &gorm.Config{})
		if err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "connecting to postgres vector store", err)
		}
		return vectorstore.NewPostgresVectorStore(db)
	default:
		return vectorstore.NewMemoryVectorStore(), nil
	}
}

func provideGraphStore(cfg *config.Config) (interfaces.GraphStore, error) {
	if !cfg.GraphStore.Enabled || cfg.GraphStore.URI == "" {
		return graphstore.NewMemoryGraphStore(), nil
	}
	driver, err := neo4j.NewDriverWithContext(cfg.GraphStore.URI, neo4j.BasicAuth(cfg.GraphStore.Username, cfg.GraphStore.Password, ""))
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "connecting to neo4j", err)
	}
	return graphstore.NewNeo4jGraphStore(driver), nil
}

func provideTokenizer(cfg *config.Config) (chunking.Tokenizer, error) {
	return chunking.NewTokenizer(cfg.Chunks.Encoding)
}

// defaultPoolSize bounds concurrent LLM/embedding calls when
// Config.ConcurrentRequests is not set to a positive value (spec §5's
// "semaphore = concurrent_requests" default).
const defaultPoolSize = 8

func provideConcurrencyPool(cfg *config.Config) (*concurrency.Pool, error) {
	size := cfg.ConcurrentRequests
	if size <= 0 {
		size = defaultPoolSize
	}
	return concurrency.NewPool(size)
}

func provideExtractor(cfg *config.Config, chat interfaces.ChatModel) *extract.Extractor {
	return extract.NewExtractor(chat, cfg.Extraction)
}

func provideSummarizer(cfg *config.Config, chat interfaces.ChatModel, c interfaces.Cache) *summarize.Summarizer {
	return summarize.NewSummarizer(chat, c, cfg.Summarization)
}

func provideClusterer(cfg *config.Config) interfaces.Clusterer {
	return cluster.New(cfg.ClusterGraph)
}

func provideReporter(cfg *config.Config, chat interfaces.ChatModel, tokenizer chunking.Tokenizer) interfaces.CommunityReporter {
	return report.New(chat, tokenizer, cfg.CommunityReports)
}

func provideEmbedder(cfg *config.Config, embedding interfaces.EmbeddingModel, vectorStore interfaces.BaseVectorStore, tokenizer chunking.Tokenizer, pool *concurrency.Pool) *embed.Embedder {
	return embed.New(embedding, vectorStore, tokenizer, cfg.Embeddings, pool)
}

func provideDispatcher(cfg *config.Config) (*workflow.Dispatcher, error) {
	return workflow.NewDispatcher(cfg.Asynq)
}

func provideCommunitySelector(cfg *config.Config, chat interfaces.ChatModel) *community.Selector {
	selCfg := cfg.GlobalSearch.DynamicSelectionConfig
	return community.New(selCfg, community.ChatRater(chat, selCfg.UseSummary))
}

func provideSearchEngine(chat interfaces.ChatModel, embedding interfaces.EmbeddingModel, vectorStore interfaces.BaseVectorStore, graphStore interfaces.GraphStore, tokenizer chunking.Tokenizer) *search.Engine {
	return search.New(chat, embedding, vectorStore, graphStore, tokenizer)
}

func provideWorkflowRunner(storage interfaces.TableStorage, c interfaces.Cache, cb types.WorkflowCallbacks) *workflow.Runner {
	return workflow.New(storage, c, cb)
}
