package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"babelroom/domain"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) *ConversationRepository {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	return NewConversationRepository(db, writer, slog.Default())
}

func TestConversationRepository_AppendOnly_Order(t *testing.T) {
	req := require.New(t)
	repo := setupRepository(t)
	roomID := domain.RoomID("room-1")

	// Given N recorded events interleaved across two senders
	for i := 0; i < 5; i++ {
		req.NoError(repo.Record(roomID, "alice", fmt.Sprintf("alice-%d", i), domain.EntryMessage))
		req.NoError(repo.Record(roomID, "bob", fmt.Sprintf("bob-%d", i), domain.EntryTranscription))
	}

	// When reading the minutes input
	conv, ok := repo.MinutesInput(roomID)

	// Then all entries come back in recorded order
	req.True(ok)
	req.Len(conv.Entries, 10)
	for i := 0; i < 5; i++ {
		req.Equal(fmt.Sprintf("alice-%d", i), conv.Entries[2*i].Text)
		req.Equal(domain.EntryMessage, conv.Entries[2*i].Kind)
		req.Equal(fmt.Sprintf("bob-%d", i), conv.Entries[2*i+1].Text)
		req.Equal(domain.EntryTranscription, conv.Entries[2*i+1].Kind)
	}

	// And the participant set is deduplicated, in first-seen order
	req.Equal([]string{"alice", "bob"}, conv.Participants)
	req.False(conv.StartTime.IsZero())
	req.WithinDuration(time.Now().UTC(), conv.StartTime, 5*time.Second)
}

func TestConversationRepository_MinutesInput_NotFound(t *testing.T) {
	req := require.New(t)
	repo := setupRepository(t)

	_, ok := repo.MinutesInput("never-used")
	req.False(ok)
}

func TestConversationRepository_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repo := setupRepository(t)

	req.NoError(repo.Record("r1", "alice", "hello", domain.EntryMessage))
	req.NoError(repo.Record("r2", "bob", "bonjour", domain.EntryMessage))

	conv, ok := repo.MinutesInput("r1")
	req.True(ok)
	req.Len(conv.Entries, 1)
	req.Equal("hello", conv.Entries[0].Text)
	req.Equal([]string{"alice"}, conv.Participants)
}

func TestConversationRepository_RoomIDs_SharingAPrefix_Stay_Isolated(t *testing.T) {
	req := require.New(t)
	repo := setupRepository(t)

	// Room ids are caller-supplied strings and may contain the key
	// separator; "team" must never see entries recorded in "team:secret"
	req.NoError(repo.Record("team", "alice", "weekly sync notes", domain.EntryMessage))
	req.NoError(repo.Record("team:secret", "bob", "confidential plan", domain.EntryMessage))

	conv, ok := repo.MinutesInput("team")
	req.True(ok)
	req.Len(conv.Entries, 1)
	req.Equal("weekly sync notes", conv.Entries[0].Text)
	req.Equal([]string{"alice"}, conv.Participants)

	secret, ok := repo.MinutesInput("team:secret")
	req.True(ok)
	req.Len(secret.Entries, 1)
	req.Equal("confidential plan", secret.Entries[0].Text)
}

func TestConversationRepository_Search_ScopedToRoom(t *testing.T) {
	req := require.New(t)
	repo := setupRepository(t)
	ctx := context.Background()

	req.NoError(repo.Record("r1", "alice", "we should migrate to PostgreSQL", domain.EntryMessage))
	req.NoError(repo.Record("r1", "bob", "lunch plans anyone", domain.EntryMessage))
	req.NoError(repo.Record("r2", "carol", "PostgreSQL again in another room", domain.EntryMessage))

	results, err := repo.Search(ctx, "r1", "postgresql", 10)
	req.NoError(err)
	req.Len(results, 1)
	req.Equal("alice", results[0].Username)
	req.Contains(results[0].Text, "PostgreSQL")

	none, err := repo.Search(ctx, "r1", "kubernetes", 10)
	req.NoError(err)
	req.Empty(none)
}
