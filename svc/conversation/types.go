package conversation

import (
	"slices"
	"time"
)

// maxTranscriptTurns bounds the in-session transcript ring. Older turns fall
// off; full history for analytics lives in the audit trail, not the session.
const maxTranscriptTurns = 50

// Channel is the inbound medium of a session.
type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelChat  Channel = "chat"
)

// Valid reports whether the channel is one of the supported media.
func (c Channel) Valid() bool {
	return c == ChannelVoice || c == ChannelChat
}

// SessionStatus is the lifecycle state of a conversation session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// Turn is one transcript entry, either side of the conversation.
type Turn struct {
	Role       string     `json:"role"` // "user" or "assistant"
	Content    string     `json:"content"`
	Specialist Specialist `json:"specialist,omitempty"`
	Intent     Intent     `json:"intent,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Session is the live conversation record. Keyed by ID in the session store;
// the caller id is stored hashed so transcripts never carry a raw phone
// number or chat handle.
type Session struct {
	ID               string        `json:"session_id"`
	TenantID         string        `json:"tenant_id"`
	Channel          Channel       `json:"channel"`
	CallerID         string        `json:"caller_id,omitempty"`
	Language         string        `json:"language,omitempty"`
	ActiveSpecialist Specialist    `json:"active_specialist"`
	Turns            []Turn        `json:"turns"`
	Disclosed        []string      `json:"disclosed,omitempty"`
	Status           SessionStatus `json:"status"`
	EndReason        string        `json:"end_reason,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	LastActivityAt   time.Time     `json:"last_activity_at"`
	EndedAt          time.Time     `json:"ended_at,omitzero"`
}

// Append adds turns to the transcript, trimming to the ring bound.
func (s *Session) Append(turns ...Turn) {
	s.Turns = append(s.Turns, turns...)
	if len(s.Turns) > maxTranscriptTurns {
		s.Turns = slices.Clone(s.Turns[len(s.Turns)-maxTranscriptTurns:])
	}
}

// UserTurns counts the customer's utterances in the transcript.
func (s *Session) UserTurns() int {
	n := 0
	for _, t := range s.Turns {
		if t.Role == "user" {
			n++
		}
	}
	return n
}

// HasDisclosed reports whether the named disclosure was already delivered
// in this session.
func (s *Session) HasDisclosed(kind string) bool {
	return slices.Contains(s.Disclosed, kind)
}

// MarkDisclosed records a delivered disclosure. Idempotent.
func (s *Session) MarkDisclosed(kind string) {
	if !s.HasDisclosed(kind) {
		s.Disclosed = append(s.Disclosed, kind)
	}
}

// Clone returns a deep copy so stores can hand out records without sharing
// mutable slices.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Turns = slices.Clone(s.Turns)
	clone.Disclosed = slices.Clone(s.Disclosed)
	return &clone
}

// Reply is the outcome of one conversational turn, the full contract with
// the voice and chat adapters: say the text, optionally hand off to a human,
// optionally hang up.
type Reply struct {
	SessionID  string     `json:"session_id"`
	Text       string     `json:"response_text"`
	Specialist Specialist `json:"specialist"`
	Intent     Intent     `json:"intent,omitempty"`
	Escalate   bool       `json:"escalate"`
	EndSession bool       `json:"end_session"`
	Action     string     `json:"action,omitempty"`
}
