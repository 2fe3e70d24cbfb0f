package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"babelroom/domain"
	"babelroom/domain/event"
	"babelroom/internal/metrics"
	"babelroom/mocks"
	"babelroom/moderation"
	"babelroom/repositories"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"log/slog"
)

// collectorSink records everything delivered to one participant. Fan-out
// delivers from several goroutines, so it locks.
type collectorSink struct {
	mu     sync.Mutex
	events []event.Outbound
}

func (c *collectorSink) Consume(_ context.Context, e event.Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectorSink) all() []event.Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Outbound(nil), c.events...)
}

func (c *collectorSink) relayed() []event.Relayed {
	var out []event.Relayed
	for _, e := range c.all() {
		if r, ok := e.(event.Relayed); ok {
			out = append(out, r)
		}
	}
	return out
}

type relayFixture struct {
	relay      *Relay
	registry   *Registry
	store      *repositories.ConversationRepository
	translator *mocks.MockTranslator
}

func setupRelay(t *testing.T, mod *moderation.Moderator) relayFixture {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	ctrl := gomock.NewController(t)
	translator := mocks.NewMockTranslator(ctrl)

	registry := NewRegistry()
	store := repositories.NewConversationRepository(db, writer, log)
	m := metrics.NewMetricsOn(prometheus.NewRegistry())
	relay := NewRelay(log, registry, store, translator, mod, m, time.Second)

	return relayFixture{relay: relay, registry: registry, store: store, translator: translator}
}

func TestRelay_Join_Reply_Then_Notice(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	alice := &collectorSink{}
	bob := &collectorSink{}

	// When alice joins an empty room
	f.relay.Join(ctx, "conn-a", "r1", "alice", "english-us", alice)

	// Then her reply carries the membership prior to her join: nobody
	aliceEvents := alice.all()
	req.Len(aliceEvents, 1)
	joined, ok := aliceEvents[0].(event.RoomJoined)
	req.True(ok)
	req.Equal(domain.RoomID("r1"), joined.RoomID)
	req.Empty(joined.Users)

	// When bob joins the same room
	f.relay.Join(ctx, "conn-b", "r1", "bob", "spanish", bob)

	// Then bob is told about alice only
	bobEvents := bob.all()
	req.Len(bobEvents, 1)
	joined, ok = bobEvents[0].(event.RoomJoined)
	req.True(ok)
	req.Equal([]domain.Member{{ID: "conn-a", Username: "alice", Language: "english-us"}}, joined.Users)

	// And alice got the user_joined notice, after her own reply
	aliceEvents = alice.all()
	req.Len(aliceEvents, 2)
	notice, ok := aliceEvents[1].(event.UserJoined)
	req.True(ok)
	req.Equal("conn-b", notice.User.ID)
	req.Equal("bob", notice.User.Username)
}

func TestRelay_Leave_Notifies_Survivors(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	alice := &collectorSink{}
	bob := &collectorSink{}
	f.relay.Join(ctx, "conn-a", "r1", "alice", "english-us", alice)
	f.relay.Join(ctx, "conn-b", "r1", "bob", "spanish", bob)

	// When bob leaves
	f.relay.Leave(ctx, "conn-b")

	// Then alice hears about it
	events := alice.all()
	left, ok := events[len(events)-1].(event.UserLeft)
	req.True(ok)
	req.Equal("conn-b", left.UserID)

	// And bob gets nothing further
	req.Len(bob.all(), 1)
}

func TestRelay_Disconnect_Last_Member_Removes_Room(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	sink := &collectorSink{}
	f.relay.Join(ctx, "conn-a", "r1", "alice", "english-us", sink)

	// When the connection drops without an explicit leave
	f.relay.Disconnect(ctx, "conn-a")

	// Then the room and session are both gone
	req.Empty(f.registry.MembersOf("r1"))
	_, ok := f.registry.Session("conn-a")
	req.False(ok)

	// And a second disconnect is a no-op
	f.relay.Disconnect(ctx, "conn-a")
}

func TestRelay_Message_EndToEnd_Translation(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	alice := &collectorSink{}
	bob := &collectorSink{}
	f.relay.Join(ctx, "conn-a", "r1", "A", "english-us", alice)
	f.relay.Join(ctx, "conn-b", "r1", "B", "spanish", bob)

	// Given the backend translates en -> es exactly once
	f.translator.EXPECT().
		Translate(gomock.Any(), "hello", "en", "es").
		Return("hola", nil).
		Times(1)

	// When A sends a message
	f.relay.Message(ctx, "conn-a", "hello")

	// Then A gets the untranslated echo
	echo := alice.relayed()
	req.Len(echo, 1)
	req.Equal("A", echo[0].Username)
	req.Equal("hello", echo[0].OriginalText)
	req.Equal("hello", echo[0].TranslatedText)
	req.False(echo[0].Translated)
	req.Equal("english-us", echo[0].SourceTag)
	req.Equal("english-us", echo[0].TargetTag)

	// And B gets the translated copy
	got := bob.relayed()
	req.Len(got, 1)
	req.Equal("A", got[0].Username)
	req.Equal("hello", got[0].OriginalText)
	req.Equal("hola", got[0].TranslatedText)
	req.True(got[0].Translated)
	req.Equal("english-us", got[0].SourceTag)
	req.Equal("spanish", got[0].TargetTag)

	// And the conversation holds exactly one untranslated entry
	conv, ok := f.store.MinutesInput("r1")
	req.True(ok)
	req.Len(conv.Entries, 1)
	req.Equal("A", conv.Entries[0].Username)
	req.Equal("hello", conv.Entries[0].Text)
	req.Equal(domain.EntryMessage, conv.Entries[0].Kind)
}

func TestRelay_SameLanguageCode_Skips_Backend(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	alice := &collectorSink{}
	bob := &collectorSink{}
	// english-us and english-gb are distinct tags but the same code
	f.relay.Join(ctx, "conn-a", "r1", "A", "english-us", alice)
	f.relay.Join(ctx, "conn-b", "r1", "B", "english-gb", bob)

	// Then the backend is never invoked
	f.translator.EXPECT().
		Translate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Times(0)

	// When A sends a message
	f.relay.Message(ctx, "conn-a", "good morning")

	got := bob.relayed()
	req.Len(got, 1)
	req.Equal("good morning", got[0].TranslatedText)
	req.False(got[0].Translated)
}

func TestRelay_TranslationFailure_Degrades_For_That_Recipient_Only(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	alice := &collectorSink{}
	bob := &collectorSink{}
	carol := &collectorSink{}
	f.relay.Join(ctx, "conn-a", "r1", "A", "english-us", alice)
	f.relay.Join(ctx, "conn-b", "r1", "B", "spanish", bob)
	f.relay.Join(ctx, "conn-c", "r1", "C", "french-fr", carol)

	// Given the spanish translation fails and the french one succeeds
	f.translator.EXPECT().
		Translate(gomock.Any(), "hello", "en", "es").
		Return("", fmt.Errorf("backend down")).
		Times(1)
	f.translator.EXPECT().
		Translate(gomock.Any(), "hello", "en", "fr").
		Return("bonjour", nil).
		Times(1)

	// When A sends a message
	f.relay.Message(ctx, "conn-a", "hello")

	// Then B still receives a payload, degraded to the original
	got := bob.relayed()
	req.Len(got, 1)
	req.Equal("hello", got[0].TranslatedText)
	req.False(got[0].Translated)

	// And C is unaffected
	got = carol.relayed()
	req.Len(got, 1)
	req.Equal("bonjour", got[0].TranslatedText)
	req.True(got[0].Translated)
}

func TestRelay_Message_Without_Session_Is_Dropped(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	f.translator.EXPECT().
		Translate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Times(0)

	// When a never-joined connection sends events
	f.relay.Message(ctx, "ghost", "boo")
	f.relay.Transcription(ctx, "ghost", "boo again")

	// Then nothing is recorded anywhere
	_, ok := f.store.MinutesInput("r1")
	req.False(ok)
}

func TestRelay_Transcription_Kind_Is_Preserved(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	alice := &collectorSink{}
	f.relay.Join(ctx, "conn-a", "r1", "A", "english-us", alice)

	// When A sends a transcription into an otherwise empty room
	f.relay.Transcription(ctx, "conn-a", "dictated words")

	// Then the echo and the log both carry the transcription kind
	got := alice.relayed()
	req.Len(got, 1)
	req.Equal(domain.EntryTranscription, got[0].Kind)
	req.Equal("transcription_received", got[0].EventName())

	conv, ok := f.store.MinutesInput("r1")
	req.True(ok)
	req.Equal(domain.EntryTranscription, conv.Entries[0].Kind)
}

func TestRelay_Moderation_Censors_Before_Log_And_Fanout(t *testing.T) {
	req := require.New(t)
	mod, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)
	f := setupRelay(t, &mod)
	ctx := context.Background()

	alice := &collectorSink{}
	bob := &collectorSink{}
	f.relay.Join(ctx, "conn-a", "r1", "A", "english-us", alice)
	f.relay.Join(ctx, "conn-b", "r1", "B", "english-gb", bob)

	// When A sends a message containing a censored word
	f.relay.Message(ctx, "conn-a", "the badger strikes")

	// Then sender, recipient and log all see the masked text
	req.Equal("the ****** strikes", alice.relayed()[0].TranslatedText)
	req.Equal("the ****** strikes", bob.relayed()[0].OriginalText)

	conv, ok := f.store.MinutesInput("r1")
	req.True(ok)
	req.Equal("the ****** strikes", conv.Entries[0].Text)
}

func TestRelay_Log_Survives_Room_Deletion(t *testing.T) {
	req := require.New(t)
	f := setupRelay(t, nil)
	ctx := context.Background()

	alice := &collectorSink{}
	f.relay.Join(ctx, "conn-a", "r1", "A", "english-us", alice)
	f.relay.Message(ctx, "conn-a", "for the record")

	// When the last member leaves and the room is deleted
	f.relay.Leave(ctx, "conn-a")
	req.Empty(f.registry.MembersOf("r1"))

	// Then the conversation record is still there for minutes generation
	conv, ok := f.store.MinutesInput("r1")
	req.True(ok)
	req.Len(conv.Entries, 1)
	req.Equal("for the record", conv.Entries[0].Text)
}
