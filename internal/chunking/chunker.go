package chunking

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
)

const (
	StrategyTokens    = "tokens"
	StrategySentences = "sentences"
)

// Chunk splits docs into TextUnit rows per cfg (spec §4.6). Documents are
// first grouped by cfg.GroupByColumns (defaulting to "id", i.e. one group
// per document); each group's text is concatenated, optionally prefixed
// with a metadata header, and then split by the configured strategy.
func Chunk(cfg config.ChunksConfig, tokenizer Tokenizer, docs []types.Document) ([]types.TextUnit, error) {
	groups := groupDocuments(cfg.GroupByColumns, docs)

	var units []types.TextUnit
	for _, g := range groups {
		header := ""
		if cfg.PrependMetadata {
			header = metadataHeader(g.docs)
		}

		budget := cfg.Size
		metadataTokens := 0
		if header != "" {
			metadataTokens = len(tokenizer.Encode(header))
			if cfg.ChunkSizeIncludesMetadata {
				budget -= metadataTokens
				if budget <= 0 {
					return nil, pipelineerr.New(pipelineerr.ConfigError,
						"chunk metadata exceeds configured chunk size", map[string]any{"metadata_tokens": metadataTokens, "size": cfg.Size})
				}
			}
		}

		text := strings.Join(g.texts, "\n\n")

		var chunks []chunkResult
		var err error
		switch cfg.Strategy {
		case StrategySentences:
			chunks = splitSentenceStrategy(tokenizer, text)
		case StrategyTokens, "":
			chunks, err = splitTokenStrategy(tokenizer, text, budget, cfg.Overlap)
		default:
			return nil, pipelineerr.New(pipelineerr.ConfigError, "unknown chunk strategy", map[string]any{"strategy": cfg.Strategy})
		}
		if err != nil {
			return nil, err
		}

		for _, c := range chunks {
			chunkText := c.text
			nTokens := c.nTokens
			if header != "" {
				chunkText = header + "\n\n" + chunkText
				if cfg.ChunkSizeIncludesMetadata {
					nTokens += metadataTokens
				}
			}
			units = append(units, types.TextUnit{
				ID:          textUnitID(chunkText),
				Text:        chunkText,
				NTokens:     nTokens,
				DocumentIDs: g.ids,
			})
		}
	}
	return units, nil
}

type chunkResult struct {
	text    string
	nTokens int
}

// splitTokenStrategy implements the tokens strategy: encode once, then
// slide a [size, size-overlap] window over the token ids and decode each
// window back to text.
func splitTokenStrategy(tokenizer Tokenizer, text string, size int, overlap int) ([]chunkResult, error) {
	if size <= 0 {
		return nil, pipelineerr.New(pipelineerr.ConfigError, "chunk size must be positive", map[string]any{"size": size})
	}
	if overlap >= size {
		return nil, pipelineerr.New(pipelineerr.ConfigError, "chunk overlap must be smaller than size", map[string]any{"size": size, "overlap": overlap})
	}
	tokens := tokenizer.Encode(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := size - overlap
	var chunks []chunkResult
	for start := 0; start < len(tokens); start += step {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		chunks = append(chunks, chunkResult{
			text:    tokenizer.Decode(window),
			nTokens: len(window),
		})
		if end >= len(tokens) {
			break
		}
	}
	return chunks, nil
}

// splitSentenceStrategy implements the sentences strategy: every sentence
// becomes its own chunk with no merging across sentences.
func splitSentenceStrategy(tokenizer Tokenizer, text string) []chunkResult {
	sentences := splitSentences(text)
	chunks := make([]chunkResult, 0, len(sentences))
	for _, s := range sentences {
		chunks = append(chunks, chunkResult{text: s, nTokens: len(tokenizer.Encode(s))})
	}
	return chunks
}

// splitSentences is a simple boundary tokenizer: split after '.', '?', or
// '!' when followed by whitespace or end of string.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				if s := strings.TrimSpace(cur.String()); s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

type documentGroup struct {
	key   string
	ids   []string
	texts []string
	docs  []types.Document
}

// groupDocuments groups docs by the values of the named metadata columns
// (or by id when columns is empty), preserving input order of first
// appearance of each group key.
func groupDocuments(columns []string, docs []types.Document) []documentGroup {
	if len(columns) == 0 {
		columns = []string{"id"}
	}
	index := map[string]int{}
	var groups []documentGroup
	for _, d := range docs {
		key := groupKey(columns, d)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, documentGroup{key: key})
		}
		g := &groups[i]
		g.ids = append(g.ids, d.ID)
		g.texts = append(g.texts, d.Text)
		g.docs = append(g.docs, d)
	}
	return groups
}

func groupKey(columns []string, d types.Document) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		if col == "id" {
			parts[i] = d.ID
			continue
		}
		parts[i] = d.Metadata[col]
	}
	return strings.Join(parts, "\x1f")
}

// metadataHeader renders a deterministic header from the union of the
// group's document metadata, one "key: value" line per key.
func metadataHeader(docs []types.Document) string {
	merged := map[string]string{}
	for _, d := range docs {
		for k, v := range d.Metadata {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return ""
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, merged[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func textUnitID(text string) string {
	h := sha512.Sum512([]byte(text))
	return hex.EncodeToString(h[:])
}
