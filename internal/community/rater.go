package community

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

const ratePromptTemplate = `On a scale of 0 to 10, how relevant is the following community
to the question below? Respond with only the integer.

Question: %s

Community report:
%s`

// ChatRater builds a Rater backed by a chat model, grounded on the same
// prompt-then-parse shape as internal/summarize's single-call pattern.
// UseSummary trims the prompt to the report's summary instead of its
// full rendered content (spec §4.13's use_summary tuning knob).
func ChatRater(chat interfaces.ChatModel, useSummary bool) Rater {
	return func(ctx context.Context, query string, report types.CommunityReport) (int, int, int, error) {
		body := report.FullContent
		if useSummary {
			body = report.Summary
		}
		prompt := fmt.Sprintf(ratePromptTemplate, query, body)

		resp, err := chat.Chat(ctx, nil, prompt, types.ChatOptions{Temperature: 0})
		if err != nil {
			return 0, 0, 0, err
		}

		rating := parseRating(resp.Content)
		return rating, resp.Metrics.PromptTokens, resp.Metrics.OutputTokens, nil
	}
}

// parseRating extracts the first integer in text, defaulting to 0 on a
// malformed response (an unparseable rating simply fails this
// community's relevance check rather than aborting selection).
func parseRating(text string) int {
	text = strings.TrimSpace(text)
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
