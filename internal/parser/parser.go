// Package parser extracts structured signals from free-form agent
// output: a confidence score, a sentiment label, and reasoning and
// evidence fragments.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

const (
	// DefaultConfidence is used when no confidence token is found.
	DefaultConfidence = 75

	maxFragments   = 5
	minFragmentLen = 10
)

// Parsed holds the signals extracted from one agent response.
type Parsed struct {
	Confidence int
	Sentiment  domain.Sentiment
	Reasoning  []string
	Evidence   []string
}

// ResponseParser turns raw agent text into Parsed signals. Parsing
// never fails; the worst case is empty fragment lists and the default
// confidence.
type ResponseParser interface {
	Parse(text string) Parsed
}

// HeuristicParser implements ResponseParser with keyword and pattern
// heuristics over the raw text.
type HeuristicParser struct{}

var _ ResponseParser = (*HeuristicParser)(nil)

// NewHeuristicParser creates the default heuristic parser.
func NewHeuristicParser() *HeuristicParser {
	return &HeuristicParser{}
}

var (
	confidencePattern       = regexp.MustCompile(`(?i)\bconfidence(?:\s+(?:level|score))?\s*(?:of|is|at)?\s*[:=]?\s*(\d{1,3})`)
	percentConfidentPattern = regexp.MustCompile(`(?i)(\d{1,3})(?:\.\d+)?\s*%\s*confident`)

	reasoningPattern = regexp.MustCompile(`(?i)\b(?:because|therefore|thus|hence|since|consequently|as a result|this means|it follows that|first|second|third|finally)\b[,:]?\s*(?:that\s+)?([^.!?\n]+)`)
	evidencePattern  = regexp.MustCompile(`(?i)\b(?:studies show|research shows|research indicates|according to|for example|for instance|data suggests|evidence suggests|statistics show|as shown by)\b[,:]?\s*(?:that\s+)?([^.!?\n]+)`)
)

// Keyword sets are matched as case-insensitive substrings, so neither
// set may contain a substring of the other set's entries.
var (
	positiveKeywords = []string{
		"agree", "support", "strong", "compelling", "sound",
		"effective", "promising", "robust", "accurate", "persuasive",
	}
	negativeKeywords = []string{
		"oppose", "reject", "weak", "flawed", "wrong",
		"concern", "risk", "doubt", "misleading", "unreliable",
	}
)

// Parse extracts confidence, sentiment, reasoning and evidence from text.
func (p *HeuristicParser) Parse(text string) Parsed {
	return Parsed{
		Confidence: parseConfidence(text),
		Sentiment:  parseSentiment(text),
		Reasoning:  extractFragments(reasoningPattern, text),
		Evidence:   extractFragments(evidencePattern, text),
	}
}

// ClampConfidence bounds a confidence score to [0,100].
func ClampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func parseConfidence(text string) int {
	if m := confidencePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return ClampConfidence(v)
		}
	}
	if m := percentConfidentPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return ClampConfidence(v)
		}
	}
	return DefaultConfidence
}

func parseSentiment(text string) domain.Sentiment {
	lower := strings.ToLower(text)
	positive := 0
	for _, kw := range positiveKeywords {
		positive += strings.Count(lower, kw)
	}
	negative := 0
	for _, kw := range negativeKeywords {
		negative += strings.Count(lower, kw)
	}
	switch {
	case positive > negative:
		return domain.SentimentPositive
	case negative > positive:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// extractFragments collects clause captures in text order, dropping
// short fragments and capping the list.
func extractFragments(pattern *regexp.Regexp, text string) []string {
	var fragments []string
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		fragment := strings.TrimSpace(m[1])
		fragment = strings.Trim(fragment, `,;:"'`)
		if len(fragment) <= minFragmentLen {
			continue
		}
		fragments = append(fragments, fragment)
		if len(fragments) == maxFragments {
			break
		}
	}
	return fragments
}
