package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"babelroom/domain"
	"babelroom/domain/event"

	"github.com/mama165/sdk-go/logs"
)

func TestConsume_FramesEventsForTheWire(t *testing.T) {
	assert := require.New(t)
	client := newClient(logs.GetLoggerFromLevel(slog.LevelDebug), nil, 4)

	// Given a translated message event
	e := event.Relayed{
		Kind:           domain.EntryMessage,
		Username:       "alice",
		OriginalText:   "hello",
		TranslatedText: "bonjour",
		SourceTag:      "english-us",
		TargetTag:      "french-fr",
		Translated:     true,
	}

	// When it is consumed
	assert.NoError(client.Consume(context.Background(), e))

	// Then the queued frame is an envelope carrying the event name and payload
	frame := <-client.send
	var env envelope
	assert.NoError(json.Unmarshal(frame, &env))
	assert.Equal("message_received", env.Event)

	var payload map[string]any
	assert.NoError(json.Unmarshal(env.Data, &payload))
	assert.Equal("alice", payload["username"])
	assert.Equal("hello", payload["original_message"])
	assert.Equal("bonjour", payload["translated_message"])
	// The legacy field carries the text the recipient should display
	assert.Equal("bonjour", payload["message"])
	assert.Equal("english-us", payload["original_language"])
	assert.Equal(true, payload["translated"])
}

func TestConsume_FullQueue_DropsInsteadOfBlocking(t *testing.T) {
	assert := require.New(t)
	client := newClient(logs.GetLoggerFromLevel(slog.LevelDebug), nil, 1)

	first := event.UserLeft{UserID: "conn-1"}
	second := event.UserLeft{UserID: "conn-2"}

	assert.NoError(client.Consume(context.Background(), first))
	assert.NoError(client.Consume(context.Background(), second))

	// Only the first event fits; the second was dropped silently
	assert.Len(client.send, 1)
}

func TestConsume_AfterShutdown_IsANoOp(t *testing.T) {
	assert := require.New(t)
	client := newClient(logs.GetLoggerFromLevel(slog.LevelDebug), nil, 0)
	client.shutdown()
	client.shutdown() // idempotent

	assert.NoError(client.Consume(context.Background(), event.UserLeft{UserID: "conn-1"}))
	assert.Len(client.send, 0)
}
