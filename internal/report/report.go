// Package report implements the community reporter (spec §4.10):
// summarize one community's local detail into a rated, structured report
// via the chat model, grounded on the teacher's fenced-JSON chat protocol
// (same family as internal/extract's formatter).
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rinarakaki/graphrag/internal/chunking"
	"github.com/rinarakaki/graphrag/internal/config"
	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

const promptTemplate = `You are summarizing one community of an entity-relationship graph.
Write a JSON object with keys title, summary, findings (a list of
{summary, explanation}), rating (0-10), and rating_explanation. Respond
with only the JSON object, fenced in a single ` + "```json" + ` block.

%s`

// Reporter implements interfaces.CommunityReporter.
type Reporter struct {
	chat      interfaces.ChatModel
	tokenizer chunking.Tokenizer
	cfg       config.CommunityReportsConfig
}

func New(chat interfaces.ChatModel, tokenizer chunking.Tokenizer, cfg config.CommunityReportsConfig) *Reporter {
	return &Reporter{chat: chat, tokenizer: tokenizer, cfg: cfg}
}

var _ interfaces.CommunityReporter = (*Reporter)(nil)

func (r *Reporter) Report(ctx context.Context, community types.Community, entities []types.Entity, relationships []types.Relationship, findingsTextUnits []types.TextUnit) (types.CommunityReport, error) {
	contextText := r.buildContext(entities, relationships, findingsTextUnits)
	prompt := fmt.Sprintf(promptTemplate, contextText)

	resp, err := r.chat.Chat(ctx, nil, prompt, types.ChatOptions{Temperature: 0, MaxTokens: r.cfg.MaxReportLength})
	if err != nil {
		return types.CommunityReport{}, pipelineerr.Wrap(pipelineerr.LLMTransient, "generating community report", err)
	}

	out := types.CommunityReport{
		ID:              uuid.New().String(),
		HumanReadableID: community.HumanReadableID,
		Community:       community.Community,
		Level:           community.Level,
		Parent:          community.Parent,
		Children:        community.Children,
		Period:          community.Period,
		Size:            community.Size,
	}

	parsed, rawJSON, parseErr := parseReport(resp.Content)
	if parseErr != nil {
		// Rank defaults to 1.0 on parse failure; the report itself still
		// gets produced so the community isn't silently dropped (spec
		// §4.10: "rank defaults to 1.0 if parse fails").
		out.Rank = 1.0
		out.Title = fmt.Sprintf("Community %d", community.Community)
		out.Summary = strings.TrimSpace(resp.Content)
		out.FullContent = out.Summary
		out.FullContentJSON = "{}"
		return out, nil
	}

	out.Title = parsed.Title
	out.Summary = parsed.Summary
	out.Findings = parsed.Findings
	out.Rank = parsed.Rating
	out.RatingExplanation = parsed.RatingExplanation
	out.FullContent = renderFullContent(parsed)
	out.FullContentJSON = rawJSON
	return out, nil
}

func renderFullContent(r rawReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", r.Title, r.Summary)
	for _, f := range r.Findings {
		fmt.Fprintf(&b, "\n## %s\n%s\n", f.Summary, f.Explanation)
	}
	return b.String()
}

// buildContext greedily packs entity, relationship, and text-unit detail
// into the LLM prompt until max_input_length tokens would be exceeded
// (spec §4.10). Once fixed, a shorter context simply yields a shorter
// report rather than failing the community.
func (r *Reporter) buildContext(entities []types.Entity, relationships []types.Relationship, textUnits []types.TextUnit) string {
	budget := r.cfg.MaxInputLength
	var lines []string

	lines = append(lines, "Entities:")
	for _, e := range entities {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", e.Title, e.Type, e.Description))
	}
	lines = append(lines, "Relationships:")
	for _, rel := range relationships {
		lines = append(lines, fmt.Sprintf("- %s -> %s: %s", rel.Source, rel.Target, rel.Description))
	}
	if len(textUnits) > 0 {
		lines = append(lines, "Source excerpts:")
		for _, tu := range textUnits {
			lines = append(lines, "- "+tu.Text)
		}
	}

	if budget <= 0 {
		return strings.Join(lines, "\n")
	}

	var kept []string
	used := 0
	for _, line := range lines {
		n := len(r.tokenizer.Encode(line))
		if used+n > budget && len(kept) > 0 {
			break
		}
		kept = append(kept, line)
		used += n
	}
	return strings.Join(kept, "\n")
}
