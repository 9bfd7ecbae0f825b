package report

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rinarakaki/graphrag/internal/types"
)

// fenceRE extracts a fenced JSON object from a chat response, the same
// protocol internal/extract's formatter uses for fenced JSON arrays.
var fenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type rawReport struct {
	Title             string          `json:"title"`
	Summary           string          `json:"summary"`
	Findings          []types.Finding `json:"findings"`
	Rating            float64         `json:"rating"`
	RatingExplanation string          `json:"rating_explanation"`
}

// parseReport extracts and decodes the community report JSON object from
// a chat response (spec §4.10: "parse JSON into
// {title, summary, findings[], rating, rating_explanation}"). Returns the
// parsed record plus the raw JSON substring (stored verbatim as
// full_content_json).
func parseReport(text string) (rawReport, string, error) {
	body := text
	if m := fenceRE.FindStringSubmatch(text); m != nil {
		body = m[1]
	}
	body = strings.TrimSpace(body)

	var r rawReport
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return rawReport{}, "", err
	}
	return r, body, nil
}
