//go:build integration

package openai

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_GenerateEmbeddings_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClient(apiKey)
	ctx := context.Background()
	texts := []string{
		"Compliance Handbook | Section CH14100: Penalties for inaccuracies.",
		"Enquiry Manual | Section EM1000: Opening an enquiry.",
	}

	embeddings, err := client.GenerateEmbeddings(ctx, texts)

	require.NoError(t, err)
	require.Len(t, embeddings, len(texts))
	for _, e := range embeddings {
		assert.Len(t, e, DefaultEmbeddingDimensions)
	}
}
