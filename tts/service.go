// Package tts synthesizes spoken audio for text through the external
// speech backend, gated on the backend's language coverage.
package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"babelroom/contract"
	"babelroom/domain/language"
	"babelroom/errors"
	"babelroom/internal/metrics"
)

// Voice describes one selectable speaker profile. The backend voice id is
// an implementation detail and never reaches the wire.
type Voice struct {
	Key         string `json:"key"`
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Clip is a synthesized audio file on disk, ready to be served once and
// removed by the caller.
type Clip struct {
	Path        string
	ContentType string
	Size        int64
}

type Service struct {
	log     *slog.Logger
	synth   contract.SpeechSynthesizer // nil when the backend is not configured
	metrics *metrics.Metrics
	voices  map[string]Voice
	dir     string
	timeout time.Duration
}

func NewService(log *slog.Logger, synth contract.SpeechSynthesizer, m *metrics.Metrics, voices []Voice, dir string, timeout time.Duration) *Service {
	byKey := make(map[string]Voice, len(voices))
	for _, v := range voices {
		byKey[v.Key] = v
	}
	return &Service{
		log:     log.With("component", "tts"),
		synth:   synth,
		metrics: m,
		voices:  byKey,
		dir:     dir,
		timeout: timeout,
	}
}

// Available reports whether a speech backend was configured.
func (s *Service) Available() bool {
	return s.synth != nil
}

// Voices lists the selectable profiles in a stable order.
func (s *Service) Voices() []Voice {
	out := make([]Voice, 0, len(s.voices))
	for _, v := range s.voices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Synthesize renders text with the voice named by voiceKey. The language tag
// is resolved to a backend code; tags outside the backend's coverage fall
// back to English rather than failing the request.
func (s *Service) Synthesize(ctx context.Context, text, languageTag, voiceKey string) (Clip, error) {
	s.metrics.TTSRequests.Inc()

	if s.synth == nil {
		s.metrics.TTSFailures.Inc()
		return Clip{}, errors.ErrTTSUnavailable
	}
	if strings.TrimSpace(text) == "" {
		s.metrics.TTSFailures.Inc()
		return Clip{}, errors.ErrEmptyText
	}

	code := language.Code(languageTag)
	if !language.TTSSupported(code) {
		s.log.Debug("Language not covered by speech backend, falling back",
			"requested", code)
		code = "en"
	}

	voice, ok := s.voices[voiceKey]
	if !ok {
		voice = s.voices["default"]
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	audio, err := s.synth.Synthesize(callCtx, text, code, voice.ID)
	if err != nil {
		s.metrics.TTSFailures.Inc()
		s.log.Warn("Speech synthesis failed", "language", code, "error", err)
		return Clip{}, fmt.Errorf("%w: %v", errors.ErrTTSFailed, err)
	}

	kind := mimetype.Detect(audio)

	file, err := os.CreateTemp(s.dir, "tts-*"+kind.Extension())
	if err != nil {
		s.metrics.TTSFailures.Inc()
		return Clip{}, fmt.Errorf("%w: create clip file: %v", errors.ErrTTSFailed, err)
	}
	if _, err := file.Write(audio); err != nil {
		file.Close()
		os.Remove(file.Name())
		s.metrics.TTSFailures.Inc()
		return Clip{}, fmt.Errorf("%w: write clip file: %v", errors.ErrTTSFailed, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		s.metrics.TTSFailures.Inc()
		return Clip{}, fmt.Errorf("%w: close clip file: %v", errors.ErrTTSFailed, err)
	}

	s.log.Info("Clip synthesized", "language", code,
		"voice", voice.Key, "bytes", len(audio), "type", kind.String())

	return Clip{
		Path:        file.Name(),
		ContentType: kind.String(),
		Size:        int64(len(audio)),
	}, nil
}
