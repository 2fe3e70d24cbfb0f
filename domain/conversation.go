package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntryKind string

const (
	EntryMessage       EntryKind = "message"
	EntryTranscription EntryKind = "transcription"
)

// Entry is one recorded line of a room's conversation. Entries hold the
// sender's untranslated text; translation happens downstream and never
// touches the log.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Kind      EntryKind `json:"kind"`
}

// Conversation is the append-only record of a room, decoupled from the
// room's own lifecycle so minutes stay retrievable after everyone left.
type Conversation struct {
	Entries      []Entry
	Participants []string
	StartTime    time.Time
}
