// Package keyword extracts keywords from user questions and classifies them
// into FAQ topics for question logging and analytics.
package keyword

import (
	"regexp"
	"strings"
	"unicode"
)

// Category is one FAQ topic with the keywords and patterns that identify it.
// Pattern hits weigh more than plain keyword hits.
type Category struct {
	Name     string
	Keywords []string
	Patterns []*regexp.Regexp
}

// DefaultCategories returns the built-in topic tables, in match-priority
// order.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:     "vacation leave",
			Keywords: []string{"vacation", "leave", "time off", "holiday", "pto", "paid time off", "annual leave"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(vacation|leave|time\s+off|holiday|pto)\b`)},
		},
		{
			Name:     "password reset",
			Keywords: []string{"password", "reset", "login", "forgot", "change password", "unlock"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(password|reset|login|forgot)\b`)},
		},
		{
			Name:     "payroll",
			Keywords: []string{"payroll", "salary", "pay", "paycheck", "payday", "wages"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(payroll|salary|pay|paycheck|payday|wages)\b`)},
		},
		{
			Name:     "working hours",
			Keywords: []string{"working hours", "work time", "schedule", "hours", "office hours"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(working\s+hours|work\s+time|schedule|hours)\b`)},
		},
		{
			Name:     "vpn access",
			Keywords: []string{"vpn", "remote access", "connection", "network"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(vpn|remote\s+access|connection|network)\b`)},
		},
		{
			Name:     "meeting room",
			Keywords: []string{"meeting room", "book room", "reserve room", "conference room"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(meeting\s+room|book\s+room|reserve\s+room|conference\s+room)\b`)},
		},
		{
			Name:     "expense reimbursement",
			Keywords: []string{"expense", "reimbursement", "reimburse", "receipt"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(expense|reimbursement|reimburse|receipt)\b`)},
		},
		{
			Name:     "training",
			Keywords: []string{"training", "course", "learning", "education"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(training|course|learning|education)\b`)},
		},
		{
			Name:     "it support",
			Keywords: []string{"it support", "technical", "software", "computer", "system"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(it\s+support|technical|software|computer|system)\b`)},
		},
		{
			Name:     "hr general",
			Keywords: []string{"hr", "human resources", "employee", "handbook", "policy"},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`\b(hr|human\s+resources|employee|handbook|policy)\b`)},
		},
	}
}

// stopWords removed from extracted keywords.
var stopWords = func() map[string]struct{} {
	words := strings.Fields(`
i me my myself we our ours ourselves you your yours yourself yourselves he
him his himself she her hers herself it its itself they them their theirs
themselves what which who whom this that these those am is are was were be
been being have has had having do does did doing a an the and but if or
because as until while of at by for with through during before after above
below up down in out on off over under again further then once can could
should would will shall`)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()

// Result bundles the extracted keywords and classification of one question.
type Result struct {
	Keywords    []string `json:"keywords"`
	KeywordsCSV string   `json:"keywords_str"`
	Category    string   `json:"category"`
	Confidence  float64  `json:"confidence"`
}

// Service classifies questions against a fixed topic lexicon.
type Service struct {
	categories []Category
}

// NewService builds a Service; nil categories fall back to the defaults.
func NewService(categories []Category) *Service {
	if categories == nil {
		categories = DefaultCategories()
	}
	return &Service{categories: categories}
}

// ExtractKeywords returns the question's keywords: lower-cased tokens with
// punctuation stripped, stop-words and tokens of at most two characters
// removed, de-duplicated in order of first appearance.
func (s *Service) ExtractKeywords(question string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(question) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, word := range strings.Fields(b.String()) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}
	return keywords
}

// Categorize returns the best-matching topic and its relative confidence,
// or "general" when nothing matches. Keyword hits score 1.0 and pattern
// hits 1.5; the score is normalized by the category's maximum possible.
func (s *Service) Categorize(question string) (string, float64) {
	lower := strings.ToLower(question)
	bestCategory := "general"
	bestScore := 0.0

	for _, category := range s.categories {
		score := 0.0
		for _, kw := range category.Keywords {
			if strings.Contains(lower, kw) {
				score += 1.0
			}
		}
		for _, pattern := range category.Patterns {
			if pattern.MatchString(lower) {
				score += 1.5
			}
		}

		maxPossible := float64(len(category.Keywords)) + 1.5*float64(len(category.Patterns))
		if maxPossible == 0 {
			continue
		}
		relative := score / maxPossible
		if relative > bestScore {
			bestScore = relative
			bestCategory = category.Name
		}
	}

	return bestCategory, bestScore
}

// Process extracts keywords and classifies the question in one pass.
func (s *Service) Process(question string) Result {
	keywords := s.ExtractKeywords(question)
	category, confidence := s.Categorize(question)
	return Result{
		Keywords:    keywords,
		KeywordsCSV: strings.Join(keywords, ", "),
		Category:    category,
		Confidence:  confidence,
	}
}
