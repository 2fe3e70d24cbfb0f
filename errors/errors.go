package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// Relay / translation
	ErrUnknownSession = fmt.Errorf("no session registered for connection")
	ErrTranslate      = fmt.Errorf("translation error")

	// Minutes generation
	ErrSummarizerUnavailable = fmt.Errorf("summarizer backend not configured")
	ErrNoConversation        = fmt.Errorf("no conversation found for this room")
	ErrEmptyConversation     = fmt.Errorf("no messages in conversation")
	ErrGenerationFailed      = fmt.Errorf("failed to generate minutes")

	// Text to speech
	ErrTTSUnavailable = fmt.Errorf("tts backend not configured")
	ErrTTSFailed      = fmt.Errorf("tts generation failed")
	ErrEmptyText      = fmt.Errorf("no text provided")
)
