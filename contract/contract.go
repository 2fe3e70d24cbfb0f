//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"babelroom/domain"
	"babelroom/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one participant's delivery channel. A sink must never block
// the caller: implementations drop rather than stall the fan-out.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

type IRegistry interface {
	Join(session domain.Session, sink EventSink) []domain.Member
	Leave(connID string) (domain.Session, []domain.Member, bool)
	MembersOf(roomID domain.RoomID) []domain.Member
	Session(connID string) (domain.Session, bool)
	Sink(connID string) (EventSink, bool)
	Counts() (rooms, sessions int)
}

// Translator is the external translation backend. Failures degrade to the
// original text at the call site, never here.
type Translator interface {
	Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error)
}

// Summarizer is the external LLM backend turning a conversation prompt into
// a minutes document.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// SpeechSynthesizer renders text into audio bytes for a given language and
// voice id.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, languageCode, voiceID string) ([]byte, error)
}

type ConversationStore interface {
	Record(roomID domain.RoomID, username, text string, kind domain.EntryKind) error
	MinutesInput(roomID domain.RoomID) (domain.Conversation, bool)
	Search(ctx context.Context, roomID domain.RoomID, terms string, limit int) ([]domain.Entry, error)
}
