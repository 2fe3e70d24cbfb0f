package ws

import (
	"encoding/json"
	"fmt"

	"babelroom/domain"
	"babelroom/domain/event"
)

type roomJoinedWire struct {
	RoomID string          `json:"room_id"`
	Users  []domain.Member `json:"users"`
}

type userJoinedWire struct {
	User domain.Member `json:"user"`
}

type userLeftWire struct {
	UserID string `json:"user_id"`
}

// messageWire is the per-recipient message payload. Message duplicates
// TranslatedMessage for clients that predate the translation fields.
type messageWire struct {
	Username          string `json:"username"`
	Message           string `json:"message"`
	OriginalMessage   string `json:"original_message"`
	TranslatedMessage string `json:"translated_message"`
	OriginalLanguage  string `json:"original_language"`
	TargetLanguage    string `json:"target_language"`
	Translated        bool   `json:"translated"`
}

// transcriptionWire mirrors messageWire under the transcription field names.
type transcriptionWire struct {
	Username                string `json:"username"`
	Transcription           string `json:"transcription"`
	OriginalTranscription   string `json:"original_transcription"`
	TranslatedTranscription string `json:"translated_transcription"`
	OriginalLanguage        string `json:"original_language"`
	TargetLanguage          string `json:"target_language"`
	Translated              bool   `json:"translated"`
}

// encodeEvent maps a relay event to its wire payload.
func encodeEvent(e event.Outbound) (json.RawMessage, error) {
	var payload any
	switch ev := e.(type) {
	case event.RoomJoined:
		users := ev.Users
		if users == nil {
			users = []domain.Member{}
		}
		payload = roomJoinedWire{RoomID: string(ev.RoomID), Users: users}
	case event.UserJoined:
		payload = userJoinedWire{User: ev.User}
	case event.UserLeft:
		payload = userLeftWire{UserID: ev.UserID}
	case event.Relayed:
		if ev.Kind == domain.EntryTranscription {
			payload = transcriptionWire{
				Username:                ev.Username,
				Transcription:           ev.TranslatedText,
				OriginalTranscription:   ev.OriginalText,
				TranslatedTranscription: ev.TranslatedText,
				OriginalLanguage:        ev.SourceTag,
				TargetLanguage:          ev.TargetTag,
				Translated:              ev.Translated,
			}
		} else {
			payload = messageWire{
				Username:          ev.Username,
				Message:           ev.TranslatedText,
				OriginalMessage:   ev.OriginalText,
				TranslatedMessage: ev.TranslatedText,
				OriginalLanguage:  ev.SourceTag,
				TargetLanguage:    ev.TargetTag,
				Translated:        ev.Translated,
			}
		}
	default:
		return nil, fmt.Errorf("no wire payload for event %q", e.EventName())
	}
	return json.Marshal(payload)
}
