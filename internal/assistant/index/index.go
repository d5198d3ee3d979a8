// Package index maintains a TF-IDF vector representation of the FAQ corpus
// and answers similarity queries against it. The scheme is lexical on
// purpose: deterministic, explainable, no network or training step, suited
// to corpora of tens to low thousands of entries.
package index

import (
	"sort"
	"sync"

	"faq-assistant/internal/models"
)

// maxFeatures caps the fitted vocabulary at the most informative terms.
const maxFeatures = 1000

// Confidence grades how trustworthy a match or answer is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Hit is one corpus entry scored against a query.
type Hit struct {
	Index      int
	Similarity float64
}

// Match is the best-scoring FAQ entry for a query.
type Match struct {
	Index      int
	Question   string
	Answer     string
	Similarity float64
	Confidence Confidence
}

// Index is the similarity index over the current FAQ corpus. It is valid
// only for the exact corpus it was built from; the caller rebuilds it when
// the corpus changes. Rebuild and query are internally locked so concurrent
// Route calls never observe a half-written index.
type Index struct {
	mu             sync.RWMutex
	vec            *vectorizer
	vectors        []sparseVector
	entries        []models.FAQ
	highConfidence float64
}

// New creates an empty index. A match with similarity strictly above
// highConfidence is graded high, otherwise medium.
func New(highConfidence float64) *Index {
	if highConfidence <= 0 {
		highConfidence = 0.7
	}
	return &Index{highConfidence: highConfidence}
}

// Rebuild fits the index to the given corpus. An empty corpus leaves the
// index empty and is not an error.
func (ix *Index) Rebuild(corpus []models.FAQ) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(corpus) == 0 {
		ix.vec = nil
		ix.vectors = nil
		ix.entries = nil
		return
	}

	questions := make([]string, len(corpus))
	entries := make([]models.FAQ, len(corpus))
	for i, faq := range corpus {
		questions[i] = faq.Question
		entries[i] = faq
	}

	vec := newVectorizer(maxFeatures)
	ix.vectors = vec.fit(questions)
	ix.vec = vec
	ix.entries = entries
}

// Size returns the number of entries the index was last built from.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Query scores every corpus entry against the question and returns the topK
// hits sorted by descending similarity (ties by ascending corpus index).
func (ix *Index) Query(question string, topK int) []Hit {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.queryLocked(question, topK)
}

func (ix *Index) queryLocked(question string, topK int) []Hit {
	if ix.vec == nil || len(ix.entries) == 0 {
		return nil
	}

	query := ix.vec.transform(question)
	hits := make([]Hit, len(ix.vectors))
	for i, vec := range ix.vectors {
		hits[i] = Hit{Index: i, Similarity: cosine(query, vec)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// BestMatch returns the highest-similarity entry, or false when the best
// similarity falls below the threshold (inclusive lower bound).
func (ix *Index) BestMatch(question string, threshold float64) (Match, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := ix.queryLocked(question, 1)
	if len(hits) == 0 || hits[0].Similarity < threshold {
		return Match{}, false
	}

	best := hits[0]
	entry := ix.entries[best.Index]
	return Match{
		Index:      best.Index,
		Question:   entry.Question,
		Answer:     entry.Answer,
		Similarity: best.Similarity,
		Confidence: ix.classify(best.Similarity),
	}, true
}

// classify grades a similarity: strictly above the high bound is high,
// anything else that survived the match threshold is medium.
func (ix *Index) classify(similarity float64) Confidence {
	if similarity > ix.highConfidence {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}
