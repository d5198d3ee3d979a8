// Package emotion scores a question for negative sentiment and
// human-escalation need from lexical and typographic signals.
package emotion

import (
	"sort"
	"strings"
	"unicode"
)

// Sentiment is the overall polarity of a question.
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Verdict is the result of analyzing one question. It is created fresh per
// question and never persisted by this package.
type Verdict struct {
	Tags       []Tag     `json:"emotions"`
	Score      int       `json:"emotion_score"`
	NeedsHuman bool      `json:"needs_human"`
	Sentiment  Sentiment `json:"sentiment"`
}

// HasTag reports whether the verdict contains the given tag.
func (v Verdict) HasTag(tag Tag) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Analyzer detects emotion signals against a fixed lexicon. A score/threshold
// model lets intensity accumulate across independent negative signals before
// forcing escalation, while explicit complaint/transfer phrases escalate
// immediately.
type Analyzer struct {
	lexicon         Lexicon
	escalationScore int
}

// NewAnalyzer builds an Analyzer. A nil lexicon falls back to the default
// tables; a non-positive escalation score falls back to 3.
func NewAnalyzer(lexicon Lexicon, escalationScore int) *Analyzer {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	if escalationScore <= 0 {
		escalationScore = 3
	}
	return &Analyzer{lexicon: lexicon, escalationScore: escalationScore}
}

// Analyze scores a question. Pure function of the input, no side effects.
func (a *Analyzer) Analyze(question string) Verdict {
	lower := strings.ToLower(question)

	score := 0
	seen := make(map[Tag]bool)

	for tag, keywords := range a.lexicon {
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				seen[tag] = true
				score++
			}
		}
	}

	// Excessive punctuation or shouting reads as frustration.
	exclamations := strings.Count(question, "!")
	if exclamations > 2 || upperRatio(question) > 0.5 {
		seen[TagFrustrated] = true
		score++
	}

	tags := make([]Tag, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	needsHuman := seen[TagComplaint] || seen[TagTransfer] || score >= a.escalationScore

	sentiment := SentimentNeutral
	if score > 0 {
		sentiment = SentimentNegative
	}

	return Verdict{
		Tags:       tags,
		Score:      score,
		NeedsHuman: needsHuman,
		Sentiment:  sentiment,
	}
}

// upperRatio is the fraction of upper-case letters among all characters,
// 0 for the empty string.
func upperRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	upper := 0
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper) / float64(len(runes))
}
