// Package summarize reduces a merged entity/relationship's accumulated
// description list to one string (spec §4.8), grounded on the teacher's
// cache-then-call pattern used throughout internal/models.
package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

const promptTemplate = `Summarize the following descriptions of the same entity into one
concise description of at most %d tokens. Write only the summary.

%s`

// Summarizer collapses a description list into a single string, bounded
// by cfg.MaxLength, and caches results so re-running with an unchanged
// description list is a no-op LLM call (spec §4.8's idempotence clause).
type Summarizer struct {
	chat  interfaces.ChatModel
	cache interfaces.Cache
	cfg   config.SummarizationConfig
}

func NewSummarizer(chat interfaces.ChatModel, cache interfaces.Cache, cfg config.SummarizationConfig) *Summarizer {
	return &Summarizer{chat: chat, cache: cache, cfg: cfg}
}

// Summarize returns descriptions[0] unchanged when there is at most one
// entry (spec §4.8: summarization only triggers at ≥2 entries).
func (s *Summarizer) Summarize(ctx context.Context, descriptions []string) (string, error) {
	if len(descriptions) == 0 {
		return "", nil
	}
	if len(descriptions) == 1 {
		return descriptions[0], nil
	}

	key := cacheKey(descriptions)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return string(cached), nil
	}

	prompt := fmt.Sprintf(promptTemplate, s.cfg.MaxLength, strings.Join(descriptions, "\n"))
	resp, err := s.chat.Chat(ctx, nil, prompt, types.ChatOptions{Temperature: 0, MaxTokens: s.cfg.MaxLength})
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(resp.Content)

	_ = s.cache.Set(ctx, key, []byte(summary))
	return summary, nil
}

func cacheKey(descriptions []string) string {
	h := sha256.New()
	for _, d := range descriptions {
		h.Write([]byte(d))
		h.Write([]byte{0})
	}
	return "summarize:" + hex.EncodeToString(h.Sum(nil))
}
