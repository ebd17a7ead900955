// Package routing implements the model selection engine: intent
// classification, complexity analysis, candidate filtering, multi-criteria
// ranking and the final explained selection.
//
// Everything in this package is pure and deterministic given a registry
// snapshot: no hidden state, no randomness, no provider calls.
package routing

import (
	"regexp"
	"sort"
	"strings"
)

// IntentCategory is one of the fixed, closed set of task categories.
type IntentCategory string

const (
	IntentCodeGeneration    IntentCategory = "code_generation"
	IntentCodeReview        IntentCategory = "code_review"
	IntentDebugging         IntentCategory = "debugging"
	IntentReasoning         IntentCategory = "reasoning"
	IntentMath              IntentCategory = "math"
	IntentCreativeWriting   IntentCategory = "creative_writing"
	IntentResearch          IntentCategory = "research"
	IntentAnalysis          IntentCategory = "analysis"
	IntentConversation      IntentCategory = "conversation"
	IntentTranslation       IntentCategory = "translation"
	IntentSummarization     IntentCategory = "summarization"
	IntentQuestionAnswering IntentCategory = "question_answering"
)

// intentOrder fixes the iteration order over categories. Ties classify
// deterministically as the first category in this order.
var intentOrder = []IntentCategory{
	IntentCodeGeneration,
	IntentCodeReview,
	IntentDebugging,
	IntentReasoning,
	IntentMath,
	IntentCreativeWriting,
	IntentResearch,
	IntentAnalysis,
	IntentConversation,
	IntentTranslation,
	IntentSummarization,
	IntentQuestionAnswering,
}

// Intent is the classified task category of a request. Ephemeral, computed
// per request and never persisted.
type Intent struct {
	Primary    IntentCategory `json:"primary"`
	Secondary  IntentCategory `json:"secondary"`
	Confidence float64        `json:"confidence"` // (0,1], 0.5 on a tie
	Keywords   []string       `json:"keywords"`   // evidence, diagnostics only
}

const (
	// patternIncrement is added per matched pattern, capped at 1.0 per category.
	patternIncrement = 0.25
	// keywordIncrement is added per matched keyword, on top of pattern scores.
	// Patterns and keywords intentionally reinforce the same signals.
	keywordIncrement = 0.1
	// conversationBaseline guarantees a default category even when nothing fires.
	conversationBaseline = 0.3

	maxKeywords      = 20
	minKeywordLength = 4
)

var intentPatterns = map[IntentCategory][]*regexp.Regexp{
	IntentCodeGeneration: {
		regexp.MustCompile(`\b(write|create|implement|build|generate)\b.*\b(function|class|method|script|program|code|api)\b`),
		regexp.MustCompile(`\b(sort|parse|reverse|merge)\b.*\b(array|list|string|file|json|tree)\b`),
		regexp.MustCompile("```"),
	},
	IntentReasoning: {
		regexp.MustCompile(`\b(explain|why|reason|think through|walk me through|step by step)\b`),
		regexp.MustCompile(`\b(compare|pros and cons|trade-?offs?)\b`),
	},
	IntentMath: {
		regexp.MustCompile(`\b(calculate|compute|solve|equation|integral|derivative|probability|theorem)\b`),
		regexp.MustCompile(`\d+\s*[-+*/^=]\s*\d+`),
	},
	IntentCreativeWriting: {
		regexp.MustCompile(`\b(story|poem|novel|essay|lyrics|fiction|screenplay)\b`),
		regexp.MustCompile(`\bwrite\b.*\b(story|poem|song|haiku|chapter)\b`),
	},
	IntentResearch: {
		regexp.MustCompile(`\b(research|look up|find out|latest|current|recent news|search the web)\b`),
		regexp.MustCompile(`\b(sources?|citations?|references)\b`),
	},
}

var intentKeywords = map[IntentCategory][]string{
	IntentCodeGeneration:    {"function", "code", "algorithm", "implement", "script"},
	IntentCodeReview:        {"review", "feedback", "readability", "best practices"},
	IntentDebugging:         {"debug", "error", "crash", "stack trace", "broken", "not working"},
	IntentReasoning:         {"explain", "reasoning", "logic", "because", "understand"},
	IntentMath:              {"math", "calculate", "equation", "solve", "proof"},
	IntentCreativeWriting:   {"story", "creative", "poem", "character", "plot"},
	IntentResearch:          {"research", "sources", "latest", "investigate"},
	IntentAnalysis:          {"analyze", "analysis", "evaluate", "assess", "insights"},
	IntentConversation:      {"hello", "thanks", "chat", "opinion"},
	IntentTranslation:       {"translate", "translation", "language"},
	IntentSummarization:     {"summarize", "summary", "tldr", "condense", "shorten"},
	IntentQuestionAnswering: {"what is", "who is", "when did", "where is", "how many"},
}

// stopWords are filtered from the extracted keyword evidence. Only words
// longer than three characters can appear as keywords, so shorter stop words
// are omitted.
var stopWords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "with": {}, "from": {}, "have": {},
	"what": {}, "your": {}, "about": {}, "would": {}, "could": {}, "should": {},
	"there": {}, "their": {}, "which": {}, "them": {}, "then": {}, "than": {},
	"when": {}, "where": {}, "will": {}, "please": {}, "into": {}, "some": {},
	"make": {}, "want": {}, "need": {}, "like": {},
}

var wordSplitter = regexp.MustCompile(`[^a-z0-9]+`)

// Classifier maps request text to a ranked pair of task categories.
type Classifier struct{}

// NewClassifier creates an intent classifier with the fixed pattern bank.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify determines the intent of a request. It never fails: fully
// ambiguous input classifies as conversation with 0.5 confidence.
// historyLength is accepted for interface parity with the complexity
// analyzer; the rule bank does not consume it.
func (c *Classifier) Classify(text string, historyLength int) Intent {
	lower := strings.ToLower(text)

	scores := make(map[IntentCategory]float64, len(intentOrder))
	signalFired := false

	for _, category := range intentOrder {
		var score float64
		for _, pattern := range intentPatterns[category] {
			if pattern.MatchString(lower) {
				score += patternIncrement
			}
		}
		if score > 1.0 {
			score = 1.0
		}
		for _, keyword := range intentKeywords[category] {
			if strings.Contains(lower, keyword) {
				score += keywordIncrement
			}
		}
		if score > 0 {
			signalFired = true
		}
		scores[category] = score
	}
	scores[IntentConversation] += conversationBaseline

	// Stable sort over the fixed order: equal scores keep category order.
	ranked := make([]IntentCategory, len(intentOrder))
	copy(ranked, intentOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	top, second := scores[ranked[0]], scores[ranked[1]]

	confidence := 0.5
	if signalFired && top+second > 0 {
		confidence = top / (top + second)
	}

	return Intent{
		Primary:    ranked[0],
		Secondary:  ranked[1],
		Confidence: confidence,
		Keywords:   extractKeywords(lower),
	}
}

// extractKeywords returns up to maxKeywords stop-word-filtered tokens longer
// than three characters, in order of first appearance.
func extractKeywords(lower string) []string {
	tokens := wordSplitter.Split(lower, -1)
	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, maxKeywords)

	for _, token := range tokens {
		if len(token) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}
