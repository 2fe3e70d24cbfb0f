package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"babelroom/domain"
	"babelroom/domain/event"
)

func TestEncodeEvent_TranscriptionFieldNames(t *testing.T) {
	assert := require.New(t)

	data, err := encodeEvent(event.Relayed{
		Kind:           domain.EntryTranscription,
		Username:       "alice",
		OriginalText:   "hello",
		TranslatedText: "hola",
		SourceTag:      "english-us",
		TargetTag:      "spanish",
		Translated:     true,
	})
	assert.NoError(err)

	var payload map[string]any
	assert.NoError(json.Unmarshal(data, &payload))
	assert.Equal("hola", payload["transcription"])
	assert.Equal("hello", payload["original_transcription"])
	assert.Equal("hola", payload["translated_transcription"])
	assert.NotContains(payload, "message")
}

func TestEncodeEvent_RoomJoined_EmptyMembershipIsAList(t *testing.T) {
	assert := require.New(t)

	data, err := encodeEvent(event.RoomJoined{RoomID: "room-1"})
	assert.NoError(err)

	var payload struct {
		RoomID string           `json:"room_id"`
		Users  []map[string]any `json:"users"`
	}
	assert.NoError(json.Unmarshal(data, &payload))
	assert.Equal("room-1", payload.RoomID)
	assert.NotNil(payload.Users)
	assert.Empty(payload.Users)
}
