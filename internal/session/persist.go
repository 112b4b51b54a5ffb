package session

import (
	"fairytale-chat/internal/logic"
	"fairytale-chat/internal/models"
	"fairytale-chat/internal/order"
	"fairytale-chat/internal/store"
)

// persistLocked saves the named keys. Failures are logged; the in-memory
// session stays authoritative. Deleted sessions are not written back.
func (s *Session) persistLocked(keys ...string) {
	if s.deleted {
		return
	}
	for _, key := range keys {
		var value any
		switch key {
		case store.KeyPersona:
			value = s.persona.ID
		case store.KeyCustomPrompt:
			value = s.customPrompt
		case store.KeyFlavors:
			value = s.builder.Flavors
		case store.KeyQty:
			value = s.builder.Qty
		case store.KeyMilk:
			value = s.builder.IncludeMilk
		case store.KeyTimeline:
			value = s.timeline
		case store.KeySentiment:
			value = s.sentiment
		case store.KeyMessages:
			value = s.messages
		default:
			continue
		}
		if err := s.store.Save(key, value); err != nil {
			s.log.Warn("Persist failed", "session_id", s.id, "key", key, "err", err)
		}
	}
}

// restoreLocked loads persisted state, falling back to defaults for anything
// missing, corrupt or no longer valid
func (s *Session) restoreLocked() {
	p, err := s.registry.Get(store.Get(s.store, store.KeyPersona, s.registry.DefaultID()))
	if err != nil {
		p, _ = s.registry.Get(s.registry.DefaultID())
	}
	s.persona = p
	s.customPrompt = store.Get(s.store, store.KeyCustomPrompt, "")
	s.sentiment = logic.ParseSentiment(store.Get(s.store, store.KeySentiment, string(logic.SentimentNeutral)))

	builder := order.BuilderState{
		Flavors:     store.Get(s.store, store.KeyFlavors, []string{}),
		Qty:         store.Get(s.store, store.KeyQty, order.DefaultQty),
		IncludeMilk: store.Get(s.store, store.KeyMilk, false),
	}
	if builder.Flavors == nil {
		builder.Flavors = []string{}
	}
	if err := builder.Validate(s.injector.KnowledgeBase()); err != nil {
		builder = order.DefaultBuilder()
	}
	s.builder = builder

	s.timeline = nil
	for _, entry := range store.Get(s.store, store.KeyTimeline, []models.TimelineEntry{}) {
		s.timeline = logic.AppendTimeline(s.timeline, entry)
	}

	s.state = StateIdle
	s.suggestions = cloneStrings(s.persona.Suggestions)
	s.messages = store.Get(s.store, store.KeyMessages, []models.Message{})
	if len(s.messages) == 0 {
		s.resetLocked()
	}
}
