// Package config loads and validates the pipeline's root configuration.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
)

// Config is the root configuration for an indexing or query run (spec §1,
// SPEC_FULL.md A.1).
type Config struct {
	RootDir          string                  `yaml:"root_dir" json:"root_dir"`
	Models           []types.ModelConfig     `yaml:"models" json:"models"`
	DefaultChatModel string                  `yaml:"default_chat_model" json:"default_chat_model"`
	DefaultEmbedModel string                 `yaml:"default_embed_model" json:"default_embed_model"`
	Input            InputConfig             `yaml:"input" json:"input"`
	Chunks           ChunksConfig            `yaml:"chunks" json:"chunks"`
	Output           OutputConfig            `yaml:"output" json:"output"`
	Cache            CacheConfig             `yaml:"cache" json:"cache"`
	Reporting        ReportingConfig         `yaml:"reporting" json:"reporting"`
	VectorStore      VectorStoreConfig       `yaml:"vector_store" json:"vector_store"`
	GraphStore       GraphStoreConfig        `yaml:"graph_store" json:"graph_store"`
	Workflows        []string                `yaml:"workflows" json:"workflows"`
	Extraction       ExtractionConfig        `yaml:"extract_graph" json:"extract_graph"`
	Summarization    SummarizationConfig     `yaml:"summarize_descriptions" json:"summarize_descriptions"`
	ClusterGraph     ClusterGraphConfig      `yaml:"cluster_graph" json:"cluster_graph"`
	CommunityReports CommunityReportsConfig  `yaml:"community_reports" json:"community_reports"`
	Embeddings       EmbeddingsConfig        `yaml:"embeddings" json:"embeddings"`
	LocalSearch      LocalSearchConfig       `yaml:"local_search" json:"local_search"`
	GlobalSearch     GlobalSearchConfig      `yaml:"global_search" json:"global_search"`
	DriftSearch      DriftSearchConfig       `yaml:"drift_search" json:"drift_search"`
	BasicSearch      BasicSearchConfig       `yaml:"basic_search" json:"basic_search"`
	Snapshots        SnapshotsConfig         `yaml:"snapshots" json:"snapshots"`
	Asynq            AsynqConfig             `yaml:"asynq" json:"asynq"`
	// ConcurrentRequests bounds simultaneous LLM/embedding calls across the
	// pipeline (spec §5's "semaphore = concurrent_requests").
	ConcurrentRequests int `yaml:"concurrent_requests" json:"concurrent_requests"`
}

// AsynqConfig configures the optional redis-backed task queue for
// background re-embedding jobs (SPEC_FULL.md B "Task dispatch").
// Zero-value Addr disables dispatch (NewDispatcher returns nil).
type AsynqConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Username     string        `yaml:"username" json:"username"`
	Password     string        `yaml:"password" json:"password"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`
}

type InputConfig struct {
	Type        string `yaml:"type" json:"type"` // "file" | "blob"
	BasePath    string `yaml:"base_path" json:"base_path"`
	FilePattern string `yaml:"file_pattern" json:"file_pattern"`
	Encoding    string `yaml:"encoding" json:"encoding"`
}

type ChunksConfig struct {
	Size                      int      `yaml:"size" json:"size"`
	Overlap                   int      `yaml:"overlap" json:"overlap"`
	Strategy                  string   `yaml:"strategy" json:"strategy"` // "tokens" | "sentences"
	Encoding                  string   `yaml:"encoding" json:"encoding"`
	GroupByColumns            []string `yaml:"group_by_columns" json:"group_by_columns"`
	ChunkSizeIncludesMetadata bool     `yaml:"chunk_size_includes_metadata" json:"chunk_size_includes_metadata"`
	PrependMetadata           bool     `yaml:"prepend_metadata" json:"prepend_metadata"`
}

type OutputConfig struct {
	Type    string     `yaml:"type" json:"type"` // "file" | "blob" | "memory"
	BaseDir string     `yaml:"base_dir" json:"base_dir"`
	Blob    BlobConfig `yaml:"blob" json:"blob"`
}

// BlobConfig configures the object-storage output backend (minio/S3
// compatible), used when OutputConfig.Type is "blob".
type BlobConfig struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	UseSSL          bool   `yaml:"use_ssl" json:"use_ssl"`
}

type CacheConfig struct {
	Type    string `yaml:"type" json:"type"` // "file" | "memory" | "redis"
	BaseDir string `yaml:"base_dir" json:"base_dir"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Address  string        `yaml:"address" json:"address"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

type ReportingConfig struct {
	Type    string `yaml:"type" json:"type"` // "file" | "console"
	BaseDir string `yaml:"base_dir" json:"base_dir"`
}

type VectorStoreConfig struct {
	Type     string `yaml:"type" json:"type"` // "postgres" | "memory"
	DSN      string `yaml:"dsn" json:"dsn"`
	Dimensions int `yaml:"dimensions" json:"dimensions"`
}

type GraphStoreConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	URI      string `yaml:"uri" json:"uri"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
}

type ExtractionConfig struct {
	ModelID       string   `yaml:"model_id" json:"model_id"`
	Prompt        string   `yaml:"prompt" json:"prompt"`
	EntityTypes   []string `yaml:"entity_types" json:"entity_types"`
	MaxGleanings  int      `yaml:"max_gleanings" json:"max_gleanings"`
	Concurrency   int      `yaml:"concurrency" json:"concurrency"`
}

type SummarizationConfig struct {
	ModelID          string `yaml:"model_id" json:"model_id"`
	Prompt           string `yaml:"prompt" json:"prompt"`
	MaxLength        int    `yaml:"max_length" json:"max_length"`
	MaxInputTokens   int    `yaml:"max_input_tokens" json:"max_input_tokens"`
}

type ClusterGraphConfig struct {
	MaxClusterSize int   `yaml:"max_cluster_size" json:"max_cluster_size"`
	Seed           int64 `yaml:"seed" json:"seed"`
	UseLCC         bool  `yaml:"use_lcc" json:"use_lcc"`
}

type CommunityReportsConfig struct {
	ModelID           string `yaml:"model_id" json:"model_id"`
	Prompt            string `yaml:"prompt" json:"prompt"`
	MaxInputLength    int    `yaml:"max_input_length" json:"max_input_length"`
	MaxReportLength   int    `yaml:"max_report_length" json:"max_report_length"`
}

type EmbeddingsConfig struct {
	ModelID   string   `yaml:"model_id" json:"model_id"`
	BatchSize int      `yaml:"batch_size" json:"batch_size"`
	BatchMaxTokens int `yaml:"batch_max_tokens" json:"batch_max_tokens"`
	Names     []string `yaml:"names" json:"names"` // which fields to embed: "text_unit.text", "entity.description", "community.full_content"
}

type LocalSearchConfig struct {
	ModelID          string  `yaml:"model_id" json:"model_id"`
	TextUnitPropK    int     `yaml:"text_unit_prop" json:"text_unit_prop"`
	CommunityPropK   int     `yaml:"community_prop" json:"community_prop"`
	TopKEntities     int     `yaml:"top_k_entities" json:"top_k_entities"`
	TopKRelationships int    `yaml:"top_k_relationships" json:"top_k_relationships"`
	MaxContextTokens int     `yaml:"max_context_tokens" json:"max_context_tokens"`
}

type GlobalSearchConfig struct {
	ModelID          string `yaml:"model_id" json:"model_id"`
	MaxContextTokens int    `yaml:"max_context_tokens" json:"max_context_tokens"`
	DataMaxTokens    int    `yaml:"data_max_tokens" json:"data_max_tokens"`
	MapMaxLength     int    `yaml:"map_max_length" json:"map_max_length"`
	ReduceMaxLength  int    `yaml:"reduce_max_length" json:"reduce_max_length"`
	MinCommunityRank float64 `yaml:"min_community_rank" json:"min_community_rank"`
	DynamicSelection bool    `yaml:"dynamic_community_selection" json:"dynamic_community_selection"`
	DynamicSelectionConfig DynamicSelectionConfig `yaml:"dynamic_community_selection_config" json:"dynamic_community_selection_config"`
}

// DynamicSelectionConfig tunes the dynamic community selector (spec §4.13).
type DynamicSelectionConfig struct {
	RateThreshold float64 `yaml:"rate_threshold" json:"rate_threshold"`
	NumRepeats    int     `yaml:"num_repeats" json:"num_repeats"`
	KeepParent    bool    `yaml:"keep_parent" json:"keep_parent"`
	MaxLevel      int     `yaml:"max_level" json:"max_level"`
	Concurrency   int     `yaml:"concurrency" json:"concurrency"`
	UseSummary    bool    `yaml:"use_summary" json:"use_summary"`
}

type DriftSearchConfig struct {
	ModelID         string `yaml:"model_id" json:"model_id"`
	NDepth          int    `yaml:"n_depth" json:"n_depth"`
	DriftKFollowUps int    `yaml:"drift_k_follow_ups" json:"drift_k_follow_ups"`
	PrimerFolds     int    `yaml:"primer_folds" json:"primer_folds"`
}

type BasicSearchConfig struct {
	ModelID      string `yaml:"model_id" json:"model_id"`
	TopK         int    `yaml:"top_k" json:"top_k"`
	MaxContextTokens int `yaml:"max_context_tokens" json:"max_context_tokens"`
}

// SnapshotsConfig holds the optional debug-artifact flags (SPEC_FULL.md
// C.2), off by default. No pipeline stage reads them, so setting them
// writes no extra artifacts.
type SnapshotsConfig struct {
	GraphML   bool `yaml:"graphml" json:"graphml"`
	Embeddings bool `yaml:"embeddings" json:"embeddings"`
	Transient bool `yaml:"transient" json:"transient"`
}

// Load reads the root config from disk, substitutes ${ENV_VAR} references,
// unmarshals into Config, and validates it.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.graphrag")
	viper.AddConfigPath("/etc/graphrag/")

	viper.SetEnvPrefix("GRAPHRAG")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigError, "reading config file", err)
	}

	raw, err := os.ReadFile(viper.ConfigFileUsed())
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigError, "reading config file content", err)
	}

	envRef := regexp.MustCompile(`\$\{([^}]+)\}`)
	expanded := envRef.ReplaceAllStringFunc(string(raw), func(match string) string {
		name := match[2 : len(match)-1]
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})

	if err := viper.ReadConfig(strings.NewReader(expanded)); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigError, "re-reading expanded config", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigError, "decoding config into struct", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the cross-field invariants SPEC_FULL.md A.1 lists:
// a default chat and embedding model must exist, the output directory must
// be set, and chunk overlap must be smaller than chunk size.
func (c *Config) Validate() error {
	if c.DefaultChatModel == "" {
		return pipelineerr.New(pipelineerr.ConfigError, "default_chat_model is required", nil)
	}
	if c.DefaultEmbedModel == "" {
		return pipelineerr.New(pipelineerr.ConfigError, "default_embed_model is required", nil)
	}
	if !c.modelExists(c.DefaultChatModel) {
		return pipelineerr.New(pipelineerr.ConfigError, "default_chat_model does not name a configured model", map[string]any{"name": c.DefaultChatModel})
	}
	if !c.modelExists(c.DefaultEmbedModel) {
		return pipelineerr.New(pipelineerr.ConfigError, "default_embed_model does not name a configured model", map[string]any{"name": c.DefaultEmbedModel})
	}
	if c.Output.BaseDir == "" {
		return pipelineerr.New(pipelineerr.ConfigError, "output.base_dir is required", nil)
	}
	if c.Chunks.Overlap >= c.Chunks.Size {
		return pipelineerr.New(pipelineerr.ConfigError, "chunks.overlap must be smaller than chunks.size", map[string]any{
			"size": c.Chunks.Size, "overlap": c.Chunks.Overlap,
		})
	}
	return nil
}

func (c *Config) modelExists(name string) bool {
	for _, m := range c.Models {
		if m.Name == name {
			return true
		}
	}
	return false
}

// ModelByName resolves a named model configuration, returning an
// pipelineerr.ConfigError if absent.
func (c *Config) ModelByName(name string) (types.ModelConfig, error) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, nil
		}
	}
	return types.ModelConfig{}, pipelineerr.New(pipelineerr.ConfigError, "model not found", map[string]any{"name": name})
}
