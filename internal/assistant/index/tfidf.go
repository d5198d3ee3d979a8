package index

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// sparseVector is a term-index to weight map, L2-normalized after fitting.
type sparseVector map[int]float64

// vectorizer fits a TF-IDF weighting over unigrams and bigrams with the
// vocabulary capped at the maxFeatures most frequent terms.
type vectorizer struct {
	maxFeatures int
	vocab       map[string]int
	idf         []float64
}

func newVectorizer(maxFeatures int) *vectorizer {
	return &vectorizer{maxFeatures: maxFeatures}
}

// tokenize lower-cases the text, splits it into alphanumeric runs of at
// least two characters and drops English stop-words.
func tokenize(text string) []string {
	lower := strings.ToLower(text)
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() >= 2 {
			word := b.String()
			if _, stop := englishStopWords[word]; !stop {
				tokens = append(tokens, word)
			}
		}
		b.Reset()
	}

	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// terms produces the unigram and bigram terms of a document.
func terms(text string) []string {
	tokens := tokenize(text)
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// fit learns the vocabulary and IDF weights from the corpus and returns the
// normalized document vectors.
func (v *vectorizer) fit(docs []string) []sparseVector {
	counts := make([]map[string]int, len(docs))
	totals := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		c := make(map[string]int)
		for _, term := range terms(doc) {
			c[term]++
		}
		counts[i] = c
		for term, n := range c {
			totals[term] += n
			docFreq[term]++
		}
	}

	// Vocabulary: the most frequent terms overall, ties broken
	// alphabetically so the fit is deterministic.
	vocabTerms := make([]string, 0, len(totals))
	for term := range totals {
		vocabTerms = append(vocabTerms, term)
	}
	sort.Slice(vocabTerms, func(i, j int) bool {
		if totals[vocabTerms[i]] != totals[vocabTerms[j]] {
			return totals[vocabTerms[i]] > totals[vocabTerms[j]]
		}
		return vocabTerms[i] < vocabTerms[j]
	})
	if v.maxFeatures > 0 && len(vocabTerms) > v.maxFeatures {
		vocabTerms = vocabTerms[:v.maxFeatures]
	}

	v.vocab = make(map[string]int, len(vocabTerms))
	for i, term := range vocabTerms {
		v.vocab[term] = i
	}

	// Smoothed IDF: ln((1+n)/(1+df)) + 1.
	n := float64(len(docs))
	v.idf = make([]float64, len(vocabTerms))
	for term, i := range v.vocab {
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([]sparseVector, len(docs))
	for i, c := range counts {
		vec := make(sparseVector)
		for term, count := range c {
			if j, ok := v.vocab[term]; ok {
				vec[j] = float64(count) * v.idf[j]
			}
		}
		normalize(vec)
		vectors[i] = vec
	}
	return vectors
}

// transform projects a query into the fitted vocabulary. Terms outside the
// vocabulary are ignored.
func (v *vectorizer) transform(doc string) sparseVector {
	vec := make(sparseVector)
	for _, term := range terms(doc) {
		if j, ok := v.vocab[term]; ok {
			vec[j] += v.idf[j]
		}
	}
	normalize(vec)
	return vec
}

func normalize(vec sparseVector) {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i, w := range vec {
		vec[i] = w / norm
	}
}

// cosine is the cosine similarity of two normalized sparse vectors.
func cosine(a, b sparseVector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for i, w := range a {
		dot += w * b[i]
	}
	return dot
}
