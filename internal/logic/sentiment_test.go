package logic

import "testing"

func TestClassifySentiment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Sentiment
	}{
		{"excited keyword", "I'm so excited for the box!", SentimentExcited},
		{"amazing is excited", "That sounds AMAZING", SentimentExcited},
		{"analyze", "Can you analyze my margins?", SentimentAnalytical},
		{"calculate", "calculate cost per cookie", SentimentAnalytical},
		{"create", "Help me create a seasonal menu", SentimentCreative},
		{"design", "design a label", SentimentCreative},
		{"first rule wins", "amazing, now analyze it", SentimentExcited},
		{"no keyword", "A dozen chocolate chip please", SentimentFocused},
		{"empty", "", SentimentFocused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySentiment(tt.content); got != tt.want {
				t.Errorf("ClassifySentiment(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestParseSentiment(t *testing.T) {
	if got := ParseSentiment("creative"); got != SentimentCreative {
		t.Errorf("ParseSentiment(creative) = %q", got)
	}
	if got := ParseSentiment("furious"); got != SentimentNeutral {
		t.Errorf("unknown tag should fall back to neutral, got %q", got)
	}
}
