package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faq-assistant/internal/models"
)

func testCorpus() []models.FAQ {
	return []models.FAQ{
		{ID: 1, Question: "How do I apply for vacation leave?", Answer: "Use the HR portal under Leave Management."},
		{ID: 2, Question: "How to reset my password?", Answer: "Use the IT self-service portal."},
		{ID: 3, Question: "Where can I find my payroll information?", Answer: "Employee Self-Service portal."},
		{ID: 4, Question: "How do I access the company VPN?", Answer: "Download the VPN client from the IT portal."},
	}
}

func TestBestMatch_ExactLexicalMatch(t *testing.T) {
	ix := New(0.7)
	ix.Rebuild(testCorpus())

	match, ok := ix.BestMatch("How do I apply for vacation leave?", 0.3)

	require.True(t, ok)
	assert.Equal(t, 0, match.Index)
	assert.Equal(t, "Use the HR portal under Leave Management.", match.Answer)
	assert.InDelta(t, 1.0, match.Similarity, 1e-9)
	assert.Equal(t, ConfidenceHigh, match.Confidence)
}

func TestBestMatch_UnrelatedQuestion(t *testing.T) {
	ix := New(0.7)
	ix.Rebuild(testCorpus())

	_, ok := ix.BestMatch("How do I cook pasta?", 0.3)

	assert.False(t, ok)
}

func TestBestMatch_ThresholdIsInclusive(t *testing.T) {
	ix := New(0.7)
	ix.Rebuild(testCorpus())

	// A partial overlap gives a similarity strictly between 0 and 1.
	hits := ix.Query("vacation policy details", 1)
	require.NotEmpty(t, hits)
	sim := hits[0].Similarity
	require.Greater(t, sim, 0.0)
	require.Less(t, sim, 1.0)

	_, ok := ix.BestMatch("vacation policy details", sim)
	assert.True(t, ok, "similarity exactly at the threshold is a match")

	_, ok = ix.BestMatch("vacation policy details", sim+1e-9)
	assert.False(t, ok, "similarity below the threshold is no match")
}

func TestClassify_HighConfidenceIsStrict(t *testing.T) {
	ix := New(0.7)

	assert.Equal(t, ConfidenceMedium, ix.classify(0.7))
	assert.Equal(t, ConfidenceHigh, ix.classify(0.70001))
}

func TestQuery_Deterministic(t *testing.T) {
	corpus := testCorpus()

	ix := New(0.7)
	ix.Rebuild(corpus)
	first := ix.Query("how do I reset my password quickly", 4)

	ix.Rebuild(corpus)
	second := ix.Query("how do I reset my password quickly", 4)

	assert.Equal(t, first, second)
}

func TestQuery_OrderingAndTopK(t *testing.T) {
	ix := New(0.7)
	ix.Rebuild(testCorpus())

	hits := ix.Query("reset password", 2)

	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Index, "password entry should rank first")
	assert.GreaterOrEqual(t, hits[0].Similarity, hits[1].Similarity)
}

func TestRebuild_EmptyCorpus(t *testing.T) {
	ix := New(0.7)
	ix.Rebuild(nil)

	assert.Equal(t, 0, ix.Size())
	assert.Nil(t, ix.Query("anything", 3))

	_, ok := ix.BestMatch("anything", 0.3)
	assert.False(t, ok)
}

func TestRebuild_ReplacesPreviousCorpus(t *testing.T) {
	ix := New(0.7)
	ix.Rebuild(testCorpus())
	require.Equal(t, 4, ix.Size())

	ix.Rebuild([]models.FAQ{
		{ID: 9, Question: "What is the dress code policy?", Answer: "Business casual."},
	})

	assert.Equal(t, 1, ix.Size())

	_, ok := ix.BestMatch("How do I apply for vacation leave?", 0.3)
	assert.False(t, ok, "old corpus must not leak into the rebuilt index")
}

func TestTokenize_StopWordsAndShortTokens(t *testing.T) {
	tokens := tokenize("How do I apply for the vacation leave?")

	assert.Equal(t, []string{"apply", "vacation", "leave"}, tokens)
}

func TestTerms_IncludesBigrams(t *testing.T) {
	got := terms("apply vacation leave")

	assert.Equal(t, []string{"apply", "vacation", "leave", "apply vacation", "vacation leave"}, got)
}
