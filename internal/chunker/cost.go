package chunker

import "github.com/oracleconsulting/lightpoint-ingest/internal/domain"

// charsPerToken is the approximate average characters per token for GPT
// tokenizers.
const charsPerToken = 4

// costPerMillionTokens is the ada-002 embedding unit price in USD.
const costPerMillionTokens = 0.10

// CostEstimate projects embedding spend for a chunk batch before
// committing to a full run.
type CostEstimate struct {
	Chunks          int
	EstimatedTokens int
	EstimatedUSD    float64
}

// EstimateEmbeddingCost estimates token count and spend over the
// embedding text of every chunk.
func EstimateEmbeddingCost(chunks []domain.ManualChunk) CostEstimate {
	var chars int
	for _, c := range chunks {
		chars += len(c.EmbeddingText)
	}

	tokens := chars / charsPerToken
	return CostEstimate{
		Chunks:          len(chunks),
		EstimatedTokens: tokens,
		EstimatedUSD:    float64(tokens) / 1_000_000 * costPerMillionTokens,
	}
}
