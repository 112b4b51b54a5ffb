package logic

import (
	"time"

	"fairytale-chat/internal/models"
)

const (
	// TimelineLimit is the number of entries a timeline keeps
	TimelineLimit = 20

	previewLength = 50
)

// Timeline entry types
const (
	EntryUser   = "user"
	EntryAI     = "ai"
	EntrySystem = "system"
)

// Preview shortens content to its first 50 runes, marking the cut with "..."
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

// NewTimelineEntry builds an entry for message, stamping it with now
func NewTimelineEntry(message, entryType, persona string, sentiment Sentiment, now time.Time) models.TimelineEntry {
	return models.TimelineEntry{
		ID:        now.UnixMilli(),
		Message:   Preview(message),
		Type:      entryType,
		Timestamp: now,
		Persona:   persona,
		Sentiment: string(sentiment),
	}
}

// AppendTimeline appends entry and drops the oldest entries beyond TimelineLimit.
// The input slice is not modified.
func AppendTimeline(timeline []models.TimelineEntry, entry models.TimelineEntry) []models.TimelineEntry {
	start := 0
	if len(timeline) >= TimelineLimit {
		start = len(timeline) - TimelineLimit + 1
	}
	out := make([]models.TimelineEntry, 0, len(timeline)-start+1)
	out = append(out, timeline[start:]...)
	return append(out, entry)
}
