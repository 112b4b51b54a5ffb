// Package session hosts the conversation state machine: one chat with one
// persona, its derived signals, the cookie box builder and order compiling.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/knowledge"
	"fairytale-chat/internal/logic"
	"fairytale-chat/internal/models"
	"fairytale-chat/internal/order"
	"fairytale-chat/internal/persona"
	"fairytale-chat/internal/store"
)

// State is the session's position in the chat cycle
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingReply State = "awaiting-reply"
	StateError         State = "error"
)

// ApologyMessage replaces the assistant reply when no vendor answered
const ApologyMessage = "I'm having trouble responding right now. Please try again in a moment."

var (
	// ErrEmptyMessage is returned for blank user input
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned when a reply is already being awaited
	ErrBusy = errors.New("a reply is already in progress")

	// ErrConversationReset is returned when the conversation was reset while a reply was in flight
	ErrConversationReset = errors.New("conversation was reset before the reply arrived")

	// ErrInvalidSuggestion is returned for an out-of-range suggestion index
	ErrInvalidSuggestion = errors.New("no such suggestion")
)

// Completer sends a conversation with a system prompt and returns the reply text
type Completer interface {
	Complete(ctx context.Context, messages []models.Message, systemPrompt string) (string, error)
}

// Publisher fans session events out to subscribers
type Publisher interface {
	Publish(sessionID, eventType string, data any)
}

// Event types
const (
	EventMessage = "message"
	EventState   = "state"
	EventReset   = "reset"
	EventBuilder = "builder"
	EventOrder   = "order"
	EventDeleted = "deleted"
)

// Snapshot is a point-in-time copy of a session
type Snapshot struct {
	ID           string                 `json:"id"`
	Persona      models.Persona         `json:"persona"`
	State        State                  `json:"state"`
	Messages     []models.Message       `json:"messages"`
	Suggestions  []string               `json:"suggestions"`
	Sentiment    logic.Sentiment        `json:"sentiment"`
	Timeline     []models.TimelineEntry `json:"timeline"`
	Builder      order.BuilderState     `json:"builder"`
	CustomPrompt string                 `json:"custom_prompt"`
	OrderDraft   *models.OrderDraft     `json:"order_draft,omitempty"`
	LastError    string                 `json:"last_error,omitempty"`
}

// Session is one conversation. All methods are safe for concurrent use.
type Session struct {
	id          string
	registry    *persona.Registry
	injector    *knowledge.Injector
	relay       Completer
	compiler    *order.Compiler
	store       store.Store
	publisher   Publisher
	switchDelay time.Duration
	now         func() time.Time
	log         *log.Logger

	mu           sync.Mutex
	state        State
	persona      models.Persona
	customPrompt string
	messages     []models.Message
	suggestions  []string
	sentiment    logic.Sentiment
	timeline     []models.TimelineEntry
	builder      order.BuilderState
	draft        *models.OrderDraft
	lastError    string
	generation   uint64
	switchSeq    uint64
	switchTo     string
	deleted      bool
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Submit sends a user message and waits for the reply. A failed vendor call
// is not an error: the reply is the apology message and the session returns
// to idle.
func (s *Session) Submit(ctx context.Context, text string) (models.Message, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return models.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == StateAwaitingReply {
		s.mu.Unlock()
		s.log.Warn("Submit rejected: reply in progress", "session_id", s.id)
		return models.Message{}, ErrBusy
	}

	userMsg := models.NewMessage(models.RoleUser, content)
	s.messages = append(s.messages, userMsg)
	s.sentiment = logic.ClassifySentiment(content)
	s.addTimelineLocked(content, logic.EntryUser)
	s.state = StateAwaitingReply
	s.lastError = ""
	gen := s.generation
	history := cloneMessages(s.messages)
	prompt := s.injector.BuildEffectivePrompt(s.persona, s.customPrompt)
	personaID := s.persona.ID
	s.persistLocked(store.KeyMessages, store.KeySentiment, store.KeyTimeline)
	s.mu.Unlock()

	s.publish(EventMessage, userMsg)
	s.publish(EventState, map[string]any{"state": StateAwaitingReply})

	start := time.Now()
	s.log.Info("Submit started", "session_id", s.id, "persona", personaID, "message_count", len(history))
	reply, err := s.relay.Complete(ctx, history, prompt)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Info("Submit discarded: conversation reset", "session_id", s.id)
		return models.Message{}, ErrConversationReset
	}

	var replyMsg models.Message
	var events []pendingEvent
	if err != nil {
		s.log.Error("Submit failed", "session_id", s.id, "err", err, "duration", time.Since(start))
		s.state = StateError
		s.lastError = err.Error()
		events = append(events, pendingEvent{EventState, map[string]any{"state": StateError, "error": err.Error()}})
		replyMsg = models.NewMessage(models.RoleAssistant, ApologyMessage)
		s.messages = append(s.messages, replyMsg)
	} else {
		replyMsg = models.NewMessage(models.RoleAssistant, reply)
		s.messages = append(s.messages, replyMsg)
		s.addTimelineLocked(reply, logic.EntryAI)
		s.suggestions = cloneStrings(s.persona.Suggestions)
		s.log.Info("Submit completed", "session_id", s.id, "reply_length", len(reply), "duration", time.Since(start))
	}
	s.state = StateIdle
	s.persistLocked(store.KeyMessages, store.KeyTimeline)
	s.mu.Unlock()

	events = append(events,
		pendingEvent{EventMessage, replyMsg},
		pendingEvent{EventState, map[string]any{"state": StateIdle}},
	)
	for _, e := range events {
		s.publish(e.eventType, e.data)
	}
	return replyMsg, nil
}

// SelectSuggestion submits the suggested question at index
func (s *Session) SelectSuggestion(ctx context.Context, index int) (models.Message, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.suggestions) {
		s.mu.Unlock()
		return models.Message{}, fmt.Errorf("%w: %d", ErrInvalidSuggestion, index)
	}
	text := s.suggestions[index]
	s.mu.Unlock()

	return s.Submit(ctx, text)
}

// SwitchPersona announces the switch, waits the transition delay, then
// restarts the conversation with the new persona's welcome. When switches
// overlap the latest one wins: asking for the current persona while another
// switch is pending cancels it, and asking for the pending target again does nothing.
func (s *Session) SwitchPersona(ctx context.Context, personaID string) error {
	target, err := s.registry.Get(personaID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if target.ID == s.switchTo {
		s.mu.Unlock()
		return nil
	}
	if target.ID == s.persona.ID {
		if s.switchTo != "" {
			// Switching back cancels the pending switch
			s.log.Info("SwitchPersona cancelled", "session_id", s.id, "to", s.switchTo)
			s.switchSeq++
			s.switchTo = ""
		}
		s.mu.Unlock()
		return nil
	}
	s.switchSeq++
	seq := s.switchSeq
	s.switchTo = target.ID
	transition := models.NewMessage(models.RoleAssistant, fmt.Sprintf("✨ Switching to %s...", target.Name))
	s.messages = append(s.messages, transition)
	s.addTimelineLocked("Switched to "+target.Name, logic.EntrySystem)
	s.persistLocked(store.KeyMessages, store.KeyTimeline)
	s.mu.Unlock()

	s.log.Info("SwitchPersona started", "session_id", s.id, "to", target.ID)
	s.publish(EventMessage, transition)

	// The switch is committed once announced; ctx only cuts the wait short
	if s.switchDelay > 0 {
		timer := time.NewTimer(s.switchDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	s.mu.Lock()
	if seq != s.switchSeq {
		s.mu.Unlock()
		s.log.Info("SwitchPersona superseded", "session_id", s.id, "to", target.ID)
		return nil
	}
	s.switchTo = ""
	s.persona = target
	s.resetLocked()
	s.persistLocked(store.KeyPersona, store.KeyMessages, store.KeyTimeline)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("SwitchPersona completed", "session_id", s.id, "persona", target.ID)
	s.publish(EventReset, snap)
	return nil
}

// ApplyCustomPrompt replaces the persona's prompt and restarts the conversation.
// A blank prompt restores the persona's own.
func (s *Session) ApplyCustomPrompt(prompt string) {
	s.mu.Lock()
	s.customPrompt = prompt
	s.resetLocked()
	s.persistLocked(store.KeyCustomPrompt, store.KeyMessages, store.KeyTimeline)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("Custom prompt applied", "session_id", s.id, "prompt_length", len(prompt))
	s.publish(EventReset, snap)
}

// UpdateBuilder replaces the cookie box selections
func (s *Session) UpdateBuilder(b order.BuilderState) error {
	if b.Flavors == nil {
		b.Flavors = []string{}
	}
	if err := b.Validate(s.injector.KnowledgeBase()); err != nil {
		return err
	}

	s.mu.Lock()
	s.builder = cloneBuilder(b)
	s.persistLocked(store.KeyFlavors, store.KeyQty, store.KeyMilk)
	s.mu.Unlock()

	s.publish(EventBuilder, b)
	return nil
}

// AppendPackaging posts the cookie box card for the current builder into the chat
func (s *Session) AppendPackaging() models.Message {
	s.mu.Lock()
	details := order.PackagingDetails(s.builder, s.injector.KnowledgeBase())
	msg := models.NewMessage(models.RoleAssistant, details)
	s.messages = append(s.messages, msg)
	s.addTimelineLocked("Cookie box details generated", logic.EntrySystem)
	s.persistLocked(store.KeyMessages, store.KeyTimeline)
	s.mu.Unlock()

	s.publish(EventMessage, msg)
	return msg
}

// CompileOrder extracts an order from the conversation, the builder and form.
// Nothing is sent when the form is incomplete.
func (s *Session) CompileOrder(ctx context.Context, form order.Form) (*models.OrderDraft, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	history := cloneMessages(s.messages)
	builder := cloneBuilder(s.builder)
	s.mu.Unlock()

	draft, err := s.compiler.Compile(ctx, history, builder, form)

	s.mu.Lock()
	s.draft = draft
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	s.publish(EventOrder, draft)
	return draft, nil
}

// OrderDraft returns the last successfully compiled order, if any
func (s *Session) OrderDraft() (models.OrderDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return models.OrderDraft{}, false
	}
	return *s.draft, true
}

// busy reports whether a reply or a persona switch is still pending
func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busyLocked()
}

func (s *Session) busyLocked() bool {
	return s.state == StateAwaitingReply || s.switchTo != ""
}

// resetLocked reseeds the conversation with the persona's welcome
func (s *Session) resetLocked() {
	s.generation++
	s.state = StateIdle
	s.lastError = ""
	s.messages = []models.Message{models.NewMessage(models.RoleAssistant, s.persona.Welcome)}
	s.suggestions = cloneStrings(s.persona.Suggestions)
	s.addTimelineLocked(s.persona.Welcome, logic.EntryAI)
}

func (s *Session) addTimelineLocked(message, entryType string) {
	entry := logic.NewTimelineEntry(message, entryType, s.persona.ID, s.sentiment, s.now())
	s.timeline = logic.AppendTimeline(s.timeline, entry)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:           s.id,
		Persona:      s.persona,
		State:        s.state,
		Messages:     cloneMessages(s.messages),
		Suggestions:  cloneStrings(s.suggestions),
		Sentiment:    s.sentiment,
		Timeline:     append([]models.TimelineEntry{}, s.timeline...),
		Builder:      cloneBuilder(s.builder),
		CustomPrompt: s.customPrompt,
		LastError:    s.lastError,
	}
	if s.draft != nil {
		draft := *s.draft
		snap.OrderDraft = &draft
	}
	return snap
}

type pendingEvent struct {
	eventType string
	data      any
}

func (s *Session) publish(eventType string, data any) {
	if s.publisher != nil {
		s.publisher.Publish(s.id, eventType, data)
	}
}

func cloneMessages(in []models.Message) []models.Message {
	return append([]models.Message{}, in...)
}

func cloneStrings(in []string) []string {
	return append([]string{}, in...)
}

func cloneBuilder(b order.BuilderState) order.BuilderState {
	b.Flavors = cloneStrings(b.Flavors)
	return b
}
