package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"babelroom/domain"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ConversationRepository is the append-only conversation log. Entries live
// in Badger under zero-padded timestamp keys so a prefix scan returns them
// in recorded order; a Bluge index over the same entries serves full-text
// search. Start time and the participant set are derived state kept beside
// the log.
//
// The Badger instance is expected to run in-memory: conversations are
// process-ephemeral and must not survive a restart.
type ConversationRepository struct {
	mu    sync.Mutex
	seq   uint64
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
	meta  map[domain.RoomID]*conversationMeta
}

type conversationMeta struct {
	startTime    time.Time
	participants []string
	seen         map[string]struct{}
}

func NewConversationRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{
		db:    db,
		index: index,
		log:   log,
		meta:  make(map[domain.RoomID]*conversationMeta),
	}
}

// Record appends one entry. The conversation record is created lazily on
// the first call for a room, capturing the current time as its start.
// Adding the same display name twice is a no-op on the participant set.
func (r *ConversationRepository) Record(roomID domain.RoomID, username, text string, kind domain.EntryKind) error {
	entry := domain.Entry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Username:  username,
		Text:      text,
		Kind:      kind,
	}

	// The key is "conv:{room}:{timestamp_padded}:{seq}":
	//  1. The room id is caller-supplied and may itself contain the ":"
	//     separator, so it is escaped to keep room prefixes unambiguous.
	//  2. 19-digit zero padding keeps lexicographic order chronological.
	//  3. The sequence number disambiguates two entries landing on the
	//     same nanosecond without breaking recorded order.
	key := fmt.Sprintf("conv:%s:%019d:%012d", url.QueryEscape(string(roomID)), entry.Timestamp.UnixNano(), atomic.AddUint64(&r.seq, 1))

	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	}); err != nil {
		return err
	}

	if err := r.indexEntry(roomID, entry); err != nil {
		// Search is a convenience on top of the log, not part of it
		r.log.Warn("Entry indexing failed", "room", roomID, "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.meta[roomID]
	if !ok {
		meta = &conversationMeta{
			startTime: entry.Timestamp,
			seen:      make(map[string]struct{}),
		}
		r.meta[roomID] = meta
	}
	if _, dup := meta.seen[username]; !dup {
		meta.seen[username] = struct{}{}
		meta.participants = append(meta.participants, username)
	}
	return nil
}

// MinutesInput returns the full conversation for a room in recorded order.
// The second return is false when no record exists yet.
func (r *ConversationRepository) MinutesInput(roomID domain.RoomID) (domain.Conversation, bool) {
	r.mu.Lock()
	meta, ok := r.meta[roomID]
	if !ok {
		r.mu.Unlock()
		return domain.Conversation{}, false
	}
	conv := domain.Conversation{
		StartTime:    meta.startTime,
		Participants: append([]string(nil), meta.participants...),
	}
	r.mu.Unlock()

	prefix := []byte(fmt.Sprintf("conv:%s:", url.QueryEscape(string(roomID))))
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var entry domain.Entry
				if err := json.Unmarshal(value, &entry); err != nil {
					return err
				}
				conv.Entries = append(conv.Entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("Conversation scan failed", "room", roomID, "error", err)
		return domain.Conversation{}, false
	}
	return conv, true
}

func (r *ConversationRepository) indexEntry(roomID domain.RoomID, entry domain.Entry) error {
	doc := bluge.NewDocument(entry.ID.String()).
		AddField(bluge.NewKeywordField("room", string(roomID))).
		AddField(bluge.NewTextField("text", entry.Text).StoreValue()).
		AddField(bluge.NewTextField("username", entry.Username).StoreValue()).
		AddField(bluge.NewKeywordField("kind", string(entry.Kind)).StoreValue()).
		AddField(bluge.NewDateTimeField("at", entry.Timestamp).StoreValue())
	return r.index.Update(doc.ID(), doc)
}

// Search runs a match query over entry text, scoped to one room.
func (r *ConversationRepository) Search(ctx context.Context, roomID domain.RoomID, terms string, limit int) ([]domain.Entry, error) {
	reader, err := r.index.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(roomID)).SetField("room")).
		AddMust(bluge.NewMatchQuery(terms).SetField("text"))

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var results []domain.Entry
	match, err := iter.Next()
	for err == nil && match != nil {
		var entry domain.Entry
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					entry.ID = id
				}
			case "text":
				entry.Text = string(value)
			case "username":
				entry.Username = string(value)
			case "kind":
				entry.Kind = domain.EntryKind(value)
			case "at":
				if at, timeErr := bluge.DecodeDateTime(value); timeErr == nil {
					entry.Timestamp = at
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		results = append(results, entry)
		match, err = iter.Next()
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}
