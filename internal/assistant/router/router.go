// Package router orchestrates emotion analysis, FAQ retrieval and
// generative synthesis into a single answer-routing decision.
package router

import (
	"context"
	"errors"
	"sync"
	"time"

	"faq-assistant/internal/assistant/emotion"
	"faq-assistant/internal/assistant/index"
	"faq-assistant/internal/assistant/provider"
	"faq-assistant/internal/common/logger"
	"faq-assistant/internal/common/metrics"
	"faq-assistant/internal/models"
)

// Source identifies where a routed answer came from.
type Source string

const (
	SourceHumanTransfer Source = "human_transfer"
	SourceFAQMatch      Source = "faq_match"
	SourceAIGenerated   Source = "ai_generated"
)

// Response is the router's sole output contract to callers.
type Response struct {
	Answer        string           `json:"answer"`
	Source        Source           `json:"source"`
	Confidence    index.Confidence `json:"confidence"`
	Similarity    float64          `json:"similarity"`
	Emotion       emotion.Verdict  `json:"emotion_analysis"`
	RequiresHuman bool             `json:"requires_human"`
}

// Generator is the external generative-answer provider.
type Generator interface {
	Generate(ctx context.Context, question string, entries []provider.ContextEntry) (string, error)
}

// Config holds the routing thresholds.
type Config struct {
	MatchThreshold  float64 // minimum similarity for a FAQ match
	EscalationScore int     // emotion score at which a human takes over
	ContextFloor    float64 // minimum similarity for context entries
	ContextLimit    int     // maximum context entries per generative call
	TopK            int     // candidates pulled when building context
}

// Router applies the answer-routing policy. It exclusively owns the
// similarity index; rebuild-then-query runs under one mutual-exclusion
// scope so concurrent Route calls never observe a half-written index.
type Router struct {
	config    *Config
	analyzer  *emotion.Analyzer
	index     *index.Index
	generator Generator
	logger    logger.Logger

	mu         sync.Mutex
	indexed    bool
	corpusSize int
}

// New builds a Router with injected collaborators.
func New(config *Config, analyzer *emotion.Analyzer, idx *index.Index, generator Generator, log logger.Logger) *Router {
	if config.MatchThreshold == 0 {
		config.MatchThreshold = 0.3
	}
	if config.EscalationScore == 0 {
		config.EscalationScore = 3
	}
	if config.ContextFloor == 0 {
		config.ContextFloor = 0.1
	}
	if config.ContextLimit == 0 {
		config.ContextLimit = 3
	}
	if config.TopK == 0 {
		config.TopK = 3
	}
	return &Router{
		config:    config,
		analyzer:  analyzer,
		index:     idx,
		generator: generator,
		logger: log.With(map[string]interface{}{
			"component": "router",
		}),
	}
}

const (
	transferBase = "I understand your concern and I want to make sure you get the best possible help. "

	transferDirect = transferBase + "Let me connect you with one of our human customer service representatives who can assist you further. Please hold on while I transfer your request."

	transferImportant = transferBase + "I can see this is important to you. I'm connecting you with a human agent who can provide more personalized assistance. Thank you for your patience."

	transferGeneric = transferBase + "I'm arranging for a human representative to assist you. They will be with you shortly."

	fallbackAnswer = "Sorry, AI service is temporarily unavailable. Please try again later or contact technical support."

	empathyFAQPrefix = "I understand this might be frustrating. "
	empathyFAQSuffix = "\n\nIf you need further assistance, please let me know and I can connect you with a human representative."

	empathyAIPrefix = "I understand your concern. "
	empathyAISuffix = "\n\nIf this doesn't fully address your issue, I can connect you with a human representative for more personalized assistance."
)

// Route answers one question against the given corpus. It always produces a
// terminal response for well-formed input: provider failures degrade to a
// fallback answer and never propagate.
func (r *Router) Route(ctx context.Context, question string, corpus []models.FAQ) Response {
	start := time.Now()

	verdict := r.analyze(question)

	// Escalation wins over any FAQ match.
	if verdict.NeedsHuman {
		resp := Response{
			Answer:        r.transferAnswer(verdict),
			Source:        SourceHumanTransfer,
			Confidence:    index.ConfidenceHigh,
			Similarity:    0,
			Emotion:       verdict,
			RequiresHuman: true,
		}
		r.observe(resp, start)
		return resp
	}

	match, matched, hits := r.retrieve(question, corpus)

	if matched && match.Confidence == index.ConfidenceHigh {
		answer := match.Answer
		if verdict.Sentiment == emotion.SentimentNegative {
			answer = empathyFAQPrefix + answer + empathyFAQSuffix
		}
		resp := Response{
			Answer:        answer,
			Source:        SourceFAQMatch,
			Confidence:    match.Confidence,
			Similarity:    match.Similarity,
			Emotion:       verdict,
			RequiresHuman: false,
		}
		r.observe(resp, start)
		return resp
	}

	// Medium confidence or no match: synthesize grounded in the closest
	// entries.
	entries := r.buildContext(match, matched, hits, corpus)

	answer, err := r.generator.Generate(ctx, question, entries)
	if err != nil {
		r.logger.Warn("provider call failed, using fallback answer", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.ProviderFailures.WithLabelValues(failureCode(err)).Inc()
		answer = fallbackAnswer
	}

	if verdict.Sentiment == emotion.SentimentNegative {
		answer = empathyAIPrefix + answer + empathyAISuffix
	}

	confidence := index.ConfidenceLow
	similarity := 0.0
	if matched {
		confidence = index.ConfidenceMedium
		similarity = match.Similarity
	}

	resp := Response{
		Answer:        answer,
		Source:        SourceAIGenerated,
		Confidence:    confidence,
		Similarity:    similarity,
		Emotion:       verdict,
		RequiresHuman: false,
	}
	r.observe(resp, start)
	return resp
}

// transferAnswer picks the most specific transfer phrasing.
func (r *Router) transferAnswer(verdict emotion.Verdict) string {
	if verdict.HasTag(emotion.TagComplaint) || verdict.HasTag(emotion.TagTransfer) {
		return transferDirect
	}
	if verdict.Score >= r.config.EscalationScore {
		return transferImportant
	}
	return transferGeneric
}

// analyze runs the emotion analyzer; an unexpected failure on ill-formed
// input is treated as no signal rather than propagated.
func (r *Router) analyze(question string) (verdict emotion.Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("emotion analysis panicked, treating as neutral", map[string]interface{}{
				"panic": rec,
			})
			verdict = emotion.Verdict{Sentiment: emotion.SentimentNeutral}
		}
	}()
	return r.analyzer.Analyze(question)
}

// retrieve rebuilds the index when stale and performs the primary retrieval
// plus the context query under one lock. Staleness is detected by corpus
// size only; content changes between equal-sized corpora require an
// explicit rebuild by the host.
func (r *Router) retrieve(question string, corpus []models.FAQ) (match index.Match, matched bool, hits []index.Hit) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("retrieval panicked, treating as no match", map[string]interface{}{
				"panic": rec,
			})
			match, matched, hits = index.Match{}, false, nil
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.indexed || r.corpusSize != len(corpus) {
		r.index.Rebuild(corpus)
		r.indexed = true
		r.corpusSize = len(corpus)
		metrics.IndexRebuilds.Inc()
		r.logger.Info("similarity index rebuilt", map[string]interface{}{
			"corpusSize": len(corpus),
		})
	}

	match, matched = r.index.BestMatch(question, r.config.MatchThreshold)
	if !matched || match.Confidence != index.ConfidenceHigh {
		hits = r.index.Query(question, r.config.TopK)
	}
	return match, matched, hits
}

// buildContext assembles the FAQ context for the generative call: the
// medium-confidence match first (if any), then the globally most similar
// entries above the floor, de-duplicated and capped.
func (r *Router) buildContext(match index.Match, matched bool, hits []index.Hit, corpus []models.FAQ) []provider.ContextEntry {
	entries := make([]provider.ContextEntry, 0, r.config.ContextLimit)
	matchIdx := -1
	if matched {
		entries = append(entries, provider.ContextEntry{
			Question: match.Question,
			Answer:   match.Answer,
		})
		matchIdx = match.Index
	}

	for _, hit := range hits {
		if len(entries) >= r.config.ContextLimit {
			break
		}
		if hit.Index == matchIdx || hit.Similarity <= r.config.ContextFloor {
			continue
		}
		if hit.Index < 0 || hit.Index >= len(corpus) {
			continue
		}
		entries = append(entries, provider.ContextEntry{
			Question: corpus[hit.Index].Question,
			Answer:   corpus[hit.Index].Answer,
		})
	}
	return entries
}

func (r *Router) observe(resp Response, start time.Time) {
	metrics.QuestionsRouted.WithLabelValues(string(resp.Source)).Inc()
	metrics.RoutingDuration.WithLabelValues(string(resp.Source)).Observe(time.Since(start).Seconds())
	r.logger.Info("question routed", map[string]interface{}{
		"source":        string(resp.Source),
		"confidence":    string(resp.Confidence),
		"similarity":    resp.Similarity,
		"requiresHuman": resp.RequiresHuman,
		"emotionScore":  resp.Emotion.Score,
	})
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, provider.ErrTimeout):
		return "PROVIDER_TIMEOUT"
	case errors.Is(err, provider.ErrNotConfigured):
		return "PROVIDER_NOT_CONFIGURED"
	default:
		return "PROVIDER_CALL_FAILED"
	}
}
