package parser

import (
	"strings"
	"testing"

	"github.com/KraftonexStudios/hackwave-sub001/internal/domain"
)

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"labelled value", "My confidence: 85", 85},
		{"confidence level", "Confidence level is 62 overall.", 62},
		{"confidence of", "with a confidence of 90 in this view", 90},
		{"percent confident", "I am 72% confident in this.", 72},
		{"percent confident with decimals", "roughly 88.5% confident", 88},
		{"over range clamped", "confidence: 250", 100},
		{"no signal defaults", "I think this is reasonable.", DefaultConfidence},
		{"empty input defaults", "", DefaultConfidence},
		{"first match wins", "confidence: 40. Later I felt 90% confident.", 40},
	}

	p := NewHeuristicParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			if got.Confidence != tt.want {
				t.Errorf("confidence = %d, want %d", got.Confidence, tt.want)
			}
		})
	}
}

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Sentiment
	}{
		{"positive majority", "I agree, the plan is strong and the evidence compelling.", domain.SentimentPositive},
		{"negative majority", "The argument is weak and flawed, and I doubt the data.", domain.SentimentNegative},
		{"tie is neutral", "A strong start but a flawed finish.", domain.SentimentNeutral},
		{"no keywords is neutral", "The committee met on Tuesday.", domain.SentimentNeutral},
		{"repeated keyword counts", "Weak data, weak methods, but a strong narrative.", domain.SentimentNegative},
	}

	p := NewHeuristicParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			if got.Sentiment != tt.want {
				t.Errorf("sentiment = %s, want %s", got.Sentiment, tt.want)
			}
		})
	}
}

func TestParseReasoningFragments(t *testing.T) {
	p := NewHeuristicParser()

	text := "I support this because commute times drop substantially. " +
		"Therefore the productivity gains should follow within a quarter. " +
		"Because yes. " +
		"Since the pilot program showed similar results, scaling is low risk."
	got := p.Parse(text)

	if len(got.Reasoning) != 3 {
		t.Fatalf("expected 3 fragments, got %v", got.Reasoning)
	}
	if !strings.HasPrefix(got.Reasoning[0], "commute times drop") {
		t.Errorf("expected text order, got %v", got.Reasoning)
	}
	for _, fragment := range got.Reasoning {
		if len(fragment) <= 10 {
			t.Errorf("short fragment kept: %q", fragment)
		}
	}
}

func TestParseEvidenceFragments(t *testing.T) {
	p := NewHeuristicParser()

	text := "Studies show that walkable districts raise retail revenue. " +
		"According to the 2023 mobility survey, car trips fell by a third. " +
		"For example, Oslo removed most downtown parking."
	got := p.Parse(text)

	if len(got.Evidence) != 3 {
		t.Fatalf("expected 3 fragments, got %v", got.Evidence)
	}
	if !strings.HasPrefix(got.Evidence[0], "walkable districts") {
		t.Errorf("expected the connective trimmed, got %q", got.Evidence[0])
	}
}

func TestParseFragmentCap(t *testing.T) {
	p := NewHeuristicParser()

	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString("This holds because the underlying mechanism is well understood here. ")
	}
	got := p.Parse(b.String())

	if len(got.Reasoning) != 5 {
		t.Errorf("expected the fragment cap of 5, got %d", len(got.Reasoning))
	}
}

func TestParseNeverFails(t *testing.T) {
	p := NewHeuristicParser()

	for _, text := range []string{"", "   ", "because", "%%% confident", strings.Repeat("x", 10000)} {
		got := p.Parse(text)
		if got.Confidence < 0 || got.Confidence > 100 {
			t.Errorf("confidence out of range for %q: %d", text, got.Confidence)
		}
		if got.Sentiment == "" {
			t.Errorf("missing sentiment for %q", text)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0}, {0, 0}, {50, 50}, {100, 100}, {150, 100},
	}
	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
