package lamini

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenOptimizer estimates prompt lengths so the inference queue can size
// max_new_tokens against the model's total token budget. It is a client
// length helper only: when no encoding is known for the model it falls back
// to a rough bytes-per-token heuristic rather than model-specific
// accounting.
type TokenOptimizer struct {
	modelName string

	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewTokenOptimizer creates an optimizer for the given model. The encoding
// is resolved lazily on first use; lookup failure is not an error, the
// optimizer degrades to the heuristic.
func NewTokenOptimizer(modelName string) *TokenOptimizer {
	return &TokenOptimizer{modelName: modelName}
}

func (t *TokenOptimizer) resolve() {
	t.once.Do(func() {
		if t.modelName == "" {
			return
		}
		enc, err := tiktoken.EncodingForModel(t.modelName)
		if err != nil {
			enc, _ = tiktoken.GetEncoding("cl100k_base")
		}
		t.encoding = enc
	})
}

// EstimateTokens returns the token count of the prompt.
func (t *TokenOptimizer) EstimateTokens(prompt string) int {
	t.resolve()
	if t.encoding == nil {
		// ~4 bytes per token
		return (len(prompt) + 3) / 4
	}
	return len(t.encoding.Encode(prompt, nil, nil))
}

// MaxNewTokens returns the generation budget left after the prompt, given
// the request's total max_tokens. Never negative.
func (t *TokenOptimizer) MaxNewTokens(prompt string, maxTokens int) int {
	remaining := maxTokens - t.EstimateTokens(prompt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MaxNewTokensForBatch sizes the generation budget for a batch: the longest
// prompt in the batch bounds what every item can generate.
func (t *TokenOptimizer) MaxNewTokensForBatch(prompts []string, maxTokens int) int {
	budget := maxTokens
	for _, p := range prompts {
		if b := t.MaxNewTokens(p, maxTokens); b < budget {
			budget = b
		}
	}
	return budget
}
