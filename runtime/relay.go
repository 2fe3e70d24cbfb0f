package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"babelroom/contract"
	"babelroom/domain"
	"babelroom/domain/event"
	"babelroom/domain/language"
	"babelroom/errors"
	"babelroom/internal/metrics"
	"babelroom/moderation"

	"github.com/samber/lo"
)

// Relay reacts to connection lifecycle and message events. It holds no
// state of its own between events; everything lives in the Registry and the
// ConversationStore. Translation calls are the only blocking work and run
// one goroutine per recipient, outside any lock, so one slow or failing
// backend call never stalls the rest of a fan-out or another room.
type Relay struct {
	log              *slog.Logger
	registry         contract.IRegistry
	conversations    contract.ConversationStore
	translator       contract.Translator
	moderator        *moderation.Moderator
	metrics          *metrics.Metrics
	translateTimeout time.Duration
}

func NewRelay(
	log *slog.Logger,
	registry contract.IRegistry,
	conversations contract.ConversationStore,
	translator contract.Translator,
	moderator *moderation.Moderator,
	m *metrics.Metrics,
	translateTimeout time.Duration,
) *Relay {
	return &Relay{
		log:              log.With("component", "relay"),
		registry:         registry,
		conversations:    conversations,
		translator:       translator,
		moderator:        moderator,
		metrics:          m,
		translateTimeout: translateTimeout,
	}
}

// Connect has no state to mutate; the session only exists after a join.
func (r *Relay) Connect(connID string) {
	r.log.Debug("Connection opened", "conn", connID)
}

// Disconnect is an implicit leave for whatever session the connection had.
func (r *Relay) Disconnect(ctx context.Context, connID string) {
	r.log.Debug("Connection closed", "conn", connID)
	r.leave(ctx, connID)
}

// Join registers the session and announces it. The joiner gets the member
// list as it was before their own join, then the survivors get the notice;
// this ordering keeps the joiner's view of the room from ever being stale
// relative to a notice about itself.
func (r *Relay) Join(ctx context.Context, connID string, roomID domain.RoomID, username, languageTag string, sink contract.EventSink) {
	session := domain.Session{
		ConnID:   connID,
		Room:     roomID,
		Username: username,
		Language: languageTag,
	}
	prior := r.registry.Join(session, sink)

	r.log.Info("Participant joined",
		"conn", connID, "room", roomID, "username", username,
		"language", languageTag, "code", language.Resolve(languageTag))

	r.consume(ctx, sink, event.RoomJoined{RoomID: roomID, Users: prior})

	notice := event.UserJoined{User: session.Member()}
	for _, member := range prior {
		if peer, ok := r.registry.Sink(member.ID); ok {
			r.consume(ctx, peer, notice)
		}
	}

	r.metrics.JoinsTotal.Inc()
	r.updateGauges()
}

// Leave handles an explicit leave_room. The room id on the wire is
// advisory; the session record is the authority on where the connection is.
func (r *Relay) Leave(ctx context.Context, connID string) {
	r.leave(ctx, connID)
}

func (r *Relay) leave(ctx context.Context, connID string) {
	session, remaining, roomAlive := r.registry.Leave(connID)
	if session.ConnID == "" {
		return
	}

	r.log.Info("Participant left", "conn", connID, "room", session.Room, "username", session.Username)

	if roomAlive {
		notice := event.UserLeft{UserID: connID}
		for _, member := range remaining {
			if peer, ok := r.registry.Sink(member.ID); ok {
				r.consume(ctx, peer, notice)
			}
		}
	}

	r.metrics.LeavesTotal.Inc()
	r.updateGauges()
}

// Message relays a typed chat message to the sender's room.
func (r *Relay) Message(ctx context.Context, connID, text string) {
	r.relay(ctx, connID, text, domain.EntryMessage)
}

// Transcription relays a speech transcription; same pipeline as Message,
// only the event kind differs.
func (r *Relay) Transcription(ctx context.Context, connID, text string) {
	r.relay(ctx, connID, text, domain.EntryTranscription)
}

func (r *Relay) relay(ctx context.Context, connID, text string, kind domain.EntryKind) {
	sender, ok := r.registry.Session(connID)
	if !ok {
		// Events from unregistered connections are ignored, not errored
		r.log.Debug("Dropping event", "conn", connID, "kind", kind,
			"reason", errors.ErrUnknownSession)
		r.metrics.DroppedEvents.Inc()
		return
	}

	if r.moderator != nil {
		text = r.moderator.Censor(text)
	}

	if err := r.conversations.Record(sender.Room, sender.Username, text, kind); err != nil {
		r.log.Error("Conversation append failed", "room", sender.Room, "error", err)
	}

	// Echo to the sender first: same payload shape as recipients get,
	// original == translated, no translation flag.
	if own, ok := r.registry.Sink(connID); ok {
		r.consume(ctx, own, event.Relayed{
			Kind:           kind,
			Username:       sender.Username,
			OriginalText:   text,
			TranslatedText: text,
			SourceTag:      sender.Language,
			TargetTag:      sender.Language,
			Translated:     false,
		})
	}

	// Snapshot the membership once; a join or leave racing this fan-out
	// must not change the in-flight delivery list.
	recipients := lo.Reject(r.registry.MembersOf(sender.Room), func(m domain.Member, _ int) bool {
		return m.ID == connID
	})

	start := time.Now()
	var wg sync.WaitGroup
	for _, member := range recipients {
		wg.Add(1)
		go func(member domain.Member) {
			defer wg.Done()
			r.deliver(ctx, sender, member, text, kind)
		}(member)
	}
	wg.Wait()

	r.metrics.FanoutDuration.Observe(time.Since(start).Seconds())
	r.metrics.EventsRelayed.WithLabelValues(string(kind)).Inc()
}

// deliver translates for one recipient and hands the payload to its sink.
// Any translation failure degrades to the original text; it never blocks
// the delivery and never touches other recipients.
func (r *Relay) deliver(ctx context.Context, sender domain.Session, recipient domain.Member, text string, kind domain.EntryKind) {
	sourceCode := language.Resolve(sender.Language)
	targetCode := language.Resolve(recipient.Language)

	translated := text
	flag := false
	if sourceCode != targetCode {
		translated, flag = r.translate(ctx, text, sourceCode, targetCode)
	}

	sink, ok := r.registry.Sink(recipient.ID)
	if !ok {
		// Recipient left between snapshot and delivery
		return
	}
	r.consume(ctx, sink, event.Relayed{
		Kind:           kind,
		Username:       sender.Username,
		OriginalText:   text,
		TranslatedText: translated,
		SourceTag:      sender.Language,
		TargetTag:      recipient.Language,
		Translated:     flag,
	})
}

func (r *Relay) translate(ctx context.Context, text, sourceCode, targetCode string) (string, bool) {
	if r.translator == nil {
		return text, false
	}

	r.metrics.TranslationRequests.Inc()
	callCtx, cancel := context.WithTimeout(ctx, r.translateTimeout)
	defer cancel()

	start := time.Now()
	out, err := r.translator.Translate(callCtx, text, sourceCode, targetCode)
	r.metrics.TranslationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.log.Warn("Translation degraded to original text",
			"source", sourceCode, "target", targetCode, "error", err)
		r.metrics.TranslationFailures.Inc()
		return text, false
	}
	return out, true
}

func (r *Relay) consume(ctx context.Context, sink contract.EventSink, e event.Outbound) {
	if err := sink.Consume(ctx, e); err != nil {
		r.log.Debug("Sink rejected event", "event", e.EventName(), "error", err)
	}
}

func (r *Relay) updateGauges() {
	rooms, sessions := r.registry.Counts()
	r.metrics.ActiveRooms.Set(float64(rooms))
	r.metrics.ActiveSessions.Set(float64(sessions))
}
