// Package minutes turns a room's conversation record into a meeting-minutes
// document through the external summarization backend.
package minutes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"babelroom/contract"
	"babelroom/domain"
	"babelroom/domain/language"
	"babelroom/errors"
	"babelroom/internal/metrics"
)

// Result carries the generated document plus the metadata callers expose
// alongside it.
type Result struct {
	Minutes           string    `json:"minutes"`
	Language          string    `json:"language"`
	ConversationCount int       `json:"conversation_count"`
	Participants      []string  `json:"participants"`
	StartTime         time.Time `json:"start_time"`
	GeneratedAt       time.Time `json:"generated_at"`
}

type Generator struct {
	log        *slog.Logger
	summarizer contract.Summarizer // nil when the backend is not configured
	store      contract.ConversationStore
	metrics    *metrics.Metrics
	timeout    time.Duration
}

func NewGenerator(log *slog.Logger, summarizer contract.Summarizer, store contract.ConversationStore, m *metrics.Metrics, timeout time.Duration) *Generator {
	return &Generator{
		log:        log.With("component", "minutes"),
		summarizer: summarizer,
		store:      store,
		metrics:    m,
		timeout:    timeout,
	}
}

// Available reports whether a summarization backend was configured.
func (g *Generator) Available() bool {
	return g.summarizer != nil
}

// Generate produces minutes for a room in the target language code.
// Every failure resolves to one of the sentinel errors; the request always
// terminates with either a document or a typed error.
func (g *Generator) Generate(ctx context.Context, roomID domain.RoomID, targetCode string) (Result, error) {
	g.metrics.MinutesRequests.Inc()

	if g.summarizer == nil {
		g.metrics.MinutesFailures.Inc()
		return Result{}, errors.ErrSummarizerUnavailable
	}

	conv, ok := g.store.MinutesInput(roomID)
	if !ok {
		g.metrics.MinutesFailures.Inc()
		return Result{}, errors.ErrNoConversation
	}
	if len(conv.Entries) == 0 {
		g.metrics.MinutesFailures.Inc()
		return Result{}, errors.ErrEmptyConversation
	}

	prompt := buildPrompt(conv, language.DisplayName(targetCode))

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	document, err := g.summarizer.Summarize(callCtx, prompt)
	if err != nil {
		g.metrics.MinutesFailures.Inc()
		g.log.Warn("Summarization failed", "room", roomID, "error", err)
		return Result{}, fmt.Errorf("%w: %v", errors.ErrGenerationFailed, err)
	}

	g.log.Info("Minutes generated", "room", roomID,
		"language", targetCode, "entries", len(conv.Entries))

	return Result{
		Minutes:           document,
		Language:          targetCode,
		ConversationCount: len(conv.Entries),
		Participants:      conv.Participants,
		StartTime:         conv.StartTime,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// buildPrompt renders the deterministic transcript and the instruction
// block. The five section names and the whole-response language requirement
// are part of the product contract with downstream consumers.
func buildPrompt(conv domain.Conversation, languageName string) string {
	var transcript strings.Builder
	fmt.Fprintf(&transcript, "Meeting started at: %s\n", conv.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&transcript, "Participants: %s\n\n", strings.Join(conv.Participants, ", "))
	transcript.WriteString("Conversation:\n")
	for _, entry := range conv.Entries {
		fmt.Fprintf(&transcript, "[%s] %s: %s\n",
			entry.Timestamp.Format(time.RFC3339), entry.Username, entry.Text)
	}

	return fmt.Sprintf(`Please analyze the following meeting conversation and generate professional meeting minutes in %[1]s language using markdown format.

Include the following sections:
1. **Meeting Overview** (date, time, participants)
2. **Key Discussion Points** (main topics discussed)
3. **Decisions Made** (any conclusions or agreements)
4. **Action Items** (tasks or next steps, if any)
5. **Summary** (brief overall summary)

Important: Generate the entire response in %[1]s language, including section headers and all content.

Here's the conversation:

%s

Please format the response in clean markdown and be concise but comprehensive.
`, languageName, transcript.String())
}
