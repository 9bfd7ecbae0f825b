package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rinarakaki/graphrag/internal/cache"
	"github.com/rinarakaki/graphrag/internal/chunking"
	"github.com/rinarakaki/graphrag/internal/cluster"
	"github.com/rinarakaki/graphrag/internal/concurrency"
	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/embed"
	"github.com/rinarakaki/graphrag/internal/extract"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/report"
	"github.com/rinarakaki/graphrag/internal/store"
	"github.com/rinarakaki/graphrag/internal/summarize"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

type stagesTokenizer struct{}

func (stagesTokenizer) Encode(text string) []int { return make([]int, len(text)) }
func (stagesTokenizer) Decode(tokens []int) string {
	out := make([]byte, len(tokens))
	return string(out)
}

type scriptedChat struct {
	extractionReply string
	reportReply     string
}

func (c *scriptedChat) Chat(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (types.ChatResponse, error) {
	if opts.MaxTokens > 0 {
		return types.ChatResponse{Content: c.reportReply}, nil
	}
	return types.ChatResponse{Content: c.extractionReply}, nil
}

func (c *scriptedChat) ChatStream(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (<-chan types.StreamDelta, <-chan error) {
	panic("not used")
}

type fakeEmbeddingModel struct{}

func (fakeEmbeddingModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}
func (fakeEmbeddingModel) Dimensions() int { return 2 }

type recordingVectorStore struct {
	upserted map[string]int
}

func (v *recordingVectorStore) LoadDocuments(ctx context.Context, indexName string, docs []interfaces.VectorDocument) error {
	if v.upserted == nil {
		v.upserted = map[string]int{}
	}
	v.upserted[indexName] += len(docs)
	return nil
}
func (v *recordingVectorStore) SimilaritySearchByVector(ctx context.Context, indexName string, vector []float32, k int) ([]interfaces.VectorSearchResult, error) {
	return nil, nil
}
func (v *recordingVectorStore) SimilaritySearchByText(ctx context.Context, indexName string, embed func(context.Context, string) ([]float32, error), text string, k int) ([]interfaces.VectorSearchResult, error) {
	return nil, nil
}
func (v *recordingVectorStore) FilterByID(ctx context.Context, indexName string, ids []string) error {
	return nil
}
func (v *recordingVectorStore) ClearIndex(ctx context.Context, indexName string) error { return nil }

func TestIndexPipelineEndToEnd(t *testing.T) {
	cfg := &config.Config{
		Chunks:     config.ChunksConfig{Size: 200, Strategy: "sentences"},
		Extraction: config.ExtractionConfig{EntityTypes: []string{"PERSON"}, MaxGleanings: 0},
		CommunityReports: config.CommunityReportsConfig{MaxReportLength: 500},
		ClusterGraph:     config.ClusterGraphConfig{MaxClusterSize: 10, UseLCC: true},
		Embeddings:       config.EmbeddingsConfig{Names: []string{"text_unit.text", "entity.description", "community.full_content"}},
	}

	chat := &scriptedChat{
		extractionReply: "```json\n[{\"entity\":\"ALICE\",\"type\":\"PERSON\",\"description\":\"a person\"},{\"entity\":\"BOB\",\"type\":\"PERSON\",\"description\":\"a person\"},{\"source\":\"ALICE\",\"target\":\"BOB\",\"description\":\"knows\",\"weight\":1}]\n```",
		reportReply:     "```json\n{\"title\":\"Alice and Bob\",\"summary\":\"They know each other\",\"findings\":[{\"summary\":\"f\",\"explanation\":\"e\"}],\"rating\":5,\"rating_explanation\":\"ok\"}\n```",
	}

	tok := stagesTokenizer{}
	pool, err := concurrency.NewPool(4)
	require.NoError(t, err)

	vs := &recordingVectorStore{}
	deps := IndexDeps{
		Documents:  []types.Document{{ID: "doc-1", Title: "doc", Type: "text", Text: "Alice knows Bob. They work together."}},
		Extractor:  extract.NewExtractor(chat, cfg.Extraction),
		Summarizer: summarize.NewSummarizer(chat, cache.NewMemoryCache(), config.SummarizationConfig{}),
		Clusterer:  cluster.New(cfg.ClusterGraph),
		Reporter:   report.New(chat, tok, cfg.CommunityReports),
		Embedder:   embed.New(fakeEmbeddingModel{}, vs, tok, cfg.Embeddings, pool),
		Tokenizer:  tok,
		Pool:       pool,
	}

	r := New(store.NewParquetTables(store.NewMemoryStorage()), nil, &recordingCallbacks{})
	results, err := r.Run(context.Background(), cfg, BuildIndexWorkflows(deps))
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, res := range results {
		assert.Empty(t, res.Errors, res.WorkflowName)
	}
	assert.Greater(t, vs.upserted["entity.description"], 0)
	assert.Greater(t, vs.upserted["text_unit.text"], 0)
}

// unparseableThenGoodChat replies with unparseable junk for the first N
// extraction calls, then a well-formed record list for the rest, so
// extractStage's per-chunk recovery can be exercised without losing the
// whole corpus.
type unparseableThenGoodChat struct {
	badCalls    int
	reportReply string
	calls       int
}

func (c *unparseableThenGoodChat) Chat(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (types.ChatResponse, error) {
	if opts.MaxTokens > 0 {
		return types.ChatResponse{Content: c.reportReply}, nil
	}
	c.calls++
	if c.calls <= c.badCalls {
		return types.ChatResponse{Content: "not json at all"}, nil
	}
	return types.ChatResponse{Content: "```json\n[{\"entity\":\"ALICE\",\"type\":\"PERSON\",\"description\":\"a person\"}]\n```"}, nil
}

func (c *unparseableThenGoodChat) ChatStream(ctx context.Context, history []types.ChatMessage, prompt string, opts types.ChatOptions) (<-chan types.StreamDelta, <-chan error) {
	panic("not used")
}

func TestExtractStageSkipsUnparseableChunks(t *testing.T) {
	cfg := &config.Config{
		Extraction: config.ExtractionConfig{EntityTypes: []string{"PERSON"}, MaxGleanings: 0},
	}
	chat := &unparseableThenGoodChat{badCalls: 1}
	tok := stagesTokenizer{}
	pool, err := concurrency.NewPool(1)
	require.NoError(t, err)

	deps := IndexDeps{
		Extractor:  extract.NewExtractor(chat, cfg.Extraction),
		Summarizer: summarize.NewSummarizer(chat, cache.NewMemoryCache(), config.SummarizationConfig{}),
		Tokenizer:  tok,
		Pool:       pool,
	}

	units := []types.TextUnit{
		{ID: "tu-1", Text: "first chunk, will fail to parse"},
		{ID: "tu-2", Text: "second chunk, parses fine"},
	}
	rc := &PipelineRunContext{
		Storage: store.NewParquetTables(store.NewMemoryStorage()),
		State:   map[string]any{"text_units": units},
	}

	output, err := deps.extractStage(context.Background(), cfg, rc)
	require.NoError(t, err)
	entities, _ := output["entities"].([]types.Entity)
	require.Len(t, entities, 1)
	assert.Equal(t, "ALICE", entities[0].Title)
}

func TestExtractStageFailsWhenEveryChunkIsEmpty(t *testing.T) {
	cfg := &config.Config{
		Extraction: config.ExtractionConfig{EntityTypes: []string{"PERSON"}, MaxGleanings: 0},
	}
	chat := &scriptedChat{extractionReply: "```json\n[]\n```"}
	tok := stagesTokenizer{}
	pool, err := concurrency.NewPool(1)
	require.NoError(t, err)

	deps := IndexDeps{
		Extractor:  extract.NewExtractor(chat, cfg.Extraction),
		Summarizer: summarize.NewSummarizer(chat, cache.NewMemoryCache(), config.SummarizationConfig{}),
		Tokenizer:  tok,
		Pool:       pool,
	}

	units := []types.TextUnit{{ID: "tu-1", Text: "nothing interesting here"}}
	rc := &PipelineRunContext{
		Storage: store.NewParquetTables(store.NewMemoryStorage()),
		State:   map[string]any{"text_units": units},
	}

	_, err = deps.extractStage(context.Background(), cfg, rc)
	require.Error(t, err)
	var pe *pipelineerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, pipelineerr.ExtractionFailed, pe.Kind)
}
