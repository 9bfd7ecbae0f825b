// Package chunking splits Document text into TextUnit rows using either a
// token-window or sentence strategy (spec §4.6), grounded on the token
// counting approach from the example pack's tiktoken wrapper.
package chunking

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
)

// Tokenizer encodes and decodes text against a fixed vocabulary so chunk
// boundaries can be expressed as token ranges rather than byte offsets.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenizer loads the named tiktoken encoding ("cl100k_base" by
// default). Config.Chunks.Encoding selects it (spec §4.6).
func NewTokenizer(encodingName string) (Tokenizer, error) {
	if encodingName == "" {
		encodingName = tiktoken.MODEL_CL100K_BASE
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigError, "loading tokenizer encoding", err)
	}
	return &tiktokenTokenizer{encoding: encoding}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}
