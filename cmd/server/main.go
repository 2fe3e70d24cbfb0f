package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"babelroom/contract"
	"babelroom/infrastructure/httpapi"
	"babelroom/infrastructure/ws"
	"babelroom/internal/metrics"
	"babelroom/minutes"
	"babelroom/moderation"
	"babelroom/repositories"
	"babelroom/runtime"
	"babelroom/runtime/workers"
	"babelroom/translate"
	"babelroom/tts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes every component and owns the server lifecycle, so all
// defers execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Conversation storage (in-memory: the record lives and dies with
	// the process)
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("conversation store opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing conversation store...")
		_ = db.Close()
	}()

	index, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() { _ = index.Close() }()

	m := metrics.NewMetrics()
	store := repositories.NewConversationRepository(db, index, log)

	// 3. Moderation
	censored, err := moderation.LoadWordlists()
	if err != nil {
		return fmt.Errorf("wordlists loading failed: %w", err)
	}
	replacement, err := moderation.CharacterRune(config.ModerationCharReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(censored.Words, replacement)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}
	log.Info("Moderation ready", "languages", censored.Languages, "words", len(censored.Words))

	// 4. External backends, each optional
	translator := translate.NewGoogleTranslator(config.TranslateTimeout)

	var sum contract.Summarizer
	if config.GeminiAPIKey != "" {
		sum = minutes.NewGeminiSummarizer(config.GeminiAPIKey, config.GeminiModel, config.BackendTimeout)
	} else {
		log.Warn("GEMINI_API_KEY not set, minutes generation disabled")
	}
	generator := minutes.NewGenerator(log, sum, store, m, config.BackendTimeout)

	var synth contract.SpeechSynthesizer
	if config.CartesiaAPIKey != "" {
		synth = tts.NewCartesiaSynthesizer(config.CartesiaAPIKey, config.BackendTimeout)
	} else {
		log.Warn("CARTESIA_API_KEY not set, speech synthesis disabled")
	}
	speech := tts.NewService(log, synth, m,
		voiceProfiles(config), config.ClipDir, config.BackendTimeout)

	// 5. Rooms & relay
	registry := runtime.NewRegistry()
	relay := runtime.NewRelay(log, registry, store, translator, &moderator, m, config.TranslateTimeout)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewTelemetryWorker(log, m, config.MetricInterval))
	go sup.Run(ctx)

	// 8. HTTP surface
	wsHandler := ws.NewHandler(log, relay, config.ConnectionBufferSize)
	api := httpapi.NewServer(log, wsHandler, registry, store, generator, speech,
		true, config.SearchLimit)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

func voiceProfiles(config Config) []tts.Voice {
	voices := []tts.Voice{{
		Key:         "default",
		ID:          config.DefaultVoiceID,
		Name:        "Default",
		Description: "General purpose voice",
	}}
	if config.CustomVoiceID != "" {
		voices = append(voices, tts.Voice{
			Key:         "custom",
			ID:          config.CustomVoiceID,
			Name:        "Custom",
			Description: "Cloned voice profile",
		})
	}
	return voices
}
