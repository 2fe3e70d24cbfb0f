// Package event defines the outbound payloads the relay delivers to
// participant sinks. The wire encoding lives in the transport layer.
package event

import "babelroom/domain"

type Outbound interface {
	EventName() string
}

// RoomJoined is the reply to the joining connection. Users holds the room's
// membership as it was immediately before this join.
type RoomJoined struct {
	RoomID domain.RoomID
	Users  []domain.Member
}

func (RoomJoined) EventName() string { return "room_joined" }

// UserJoined is broadcast to every member already in the room.
type UserJoined struct {
	User domain.Member
}

func (UserJoined) EventName() string { return "user_joined" }

type UserLeft struct {
	UserID string
}

func (UserLeft) EventName() string { return "user_left" }

// Relayed is one recipient's copy of a message or transcription.
// OriginalText always carries the sender's words; TranslatedText equals
// OriginalText whenever Translated is false, whether because both sides
// share a language code or because the translation backend failed.
type Relayed struct {
	Kind           domain.EntryKind
	Username       string
	OriginalText   string
	TranslatedText string
	SourceTag      string
	TargetTag      string
	Translated     bool
}

func (r Relayed) EventName() string {
	if r.Kind == domain.EntryTranscription {
		return "transcription_received"
	}
	return "message_received"
}
