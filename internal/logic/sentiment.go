package logic

import "strings"

// Sentiment is the coarse mood tag derived from the latest user message
type Sentiment string

const (
	SentimentNeutral    Sentiment = "neutral"
	SentimentExcited    Sentiment = "excited"
	SentimentAnalytical Sentiment = "analytical"
	SentimentCreative   Sentiment = "creative"
	SentimentFocused    Sentiment = "focused"
)

// sentimentRules are checked in order; the first rule with a matching keyword wins
var sentimentRules = []struct {
	sentiment Sentiment
	keywords  []string
}{
	{SentimentExcited, []string{"excited", "amazing"}},
	{SentimentAnalytical, []string{"analyze", "calculate"}},
	{SentimentCreative, []string{"create", "design"}},
}

// ClassifySentiment tags a user message by case-insensitive keyword match.
// Messages without a keyword are focused.
func ClassifySentiment(content string) Sentiment {
	lc := strings.ToLower(content)
	for _, rule := range sentimentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lc, kw) {
				return rule.sentiment
			}
		}
	}
	return SentimentFocused
}

// ParseSentiment maps a stored tag back to a Sentiment, falling back to neutral
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentExcited, SentimentAnalytical, SentimentCreative, SentimentFocused:
		return Sentiment(s)
	default:
		return SentimentNeutral
	}
}
