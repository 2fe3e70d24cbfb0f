package tts

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"babelroom/errors"
	"babelroom/internal/metrics"
	"babelroom/mocks"

	"github.com/mama165/sdk-go/logs"
)

// Minimal RIFF header so the clip sniffs as audio/wav.
var wavBytes = append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 24)...)

func newService(t *testing.T, synth *mocks.MockSpeechSynthesizer) *Service {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	m := metrics.NewMetricsOn(prometheus.NewRegistry())
	voices := []Voice{
		{Key: "default", ID: "voice-default", Name: "Default"},
		{Key: "custom", ID: "voice-custom", Name: "Custom"},
	}
	if synth == nil {
		return NewService(log, nil, m, voices, t.TempDir(), time.Second)
	}
	return NewService(log, synth, m, voices, t.TempDir(), time.Second)
}

func TestSynthesize_WithoutBackend(t *testing.T) {
	assert := require.New(t)
	service := newService(t, nil)
	assert.False(service.Available())

	_, err := service.Synthesize(context.Background(), "hello", "english-us", "default")

	assert.ErrorIs(err, errors.ErrTTSUnavailable)
}

func TestSynthesize_EmptyText(t *testing.T) {
	assert := require.New(t)
	ctrl := gomock.NewController(t)
	synth := mocks.NewMockSpeechSynthesizer(ctrl)
	service := newService(t, synth)

	// The backend must never be reached for whitespace-only input
	_, err := service.Synthesize(context.Background(), "   ", "english-us", "default")

	assert.ErrorIs(err, errors.ErrEmptyText)
}

func TestSynthesize_UncoveredLanguage_FallsBackToEnglish(t *testing.T) {
	assert := require.New(t)
	ctrl := gomock.NewController(t)
	synth := mocks.NewMockSpeechSynthesizer(ctrl)

	// chinese-cn resolves to zh-CN, which the backend does not cover
	synth.EXPECT().
		Synthesize(gomock.Any(), "ni hao", "en", "voice-default").
		Return(wavBytes, nil)

	service := newService(t, synth)

	clip, err := service.Synthesize(context.Background(), "ni hao", "chinese-cn", "default")

	assert.NoError(err)
	assert.Equal("audio/wav", clip.ContentType)
	t.Cleanup(func() { os.Remove(clip.Path) })
}

func TestSynthesize_UnknownVoice_UsesDefaultProfile(t *testing.T) {
	assert := require.New(t)
	ctrl := gomock.NewController(t)
	synth := mocks.NewMockSpeechSynthesizer(ctrl)
	synth.EXPECT().
		Synthesize(gomock.Any(), "bonjour", "fr", "voice-default").
		Return(wavBytes, nil)

	service := newService(t, synth)

	clip, err := service.Synthesize(context.Background(), "bonjour", "french-fr", "no-such-voice")

	assert.NoError(err)
	assert.NotEmpty(clip.Path)
	t.Cleanup(func() { os.Remove(clip.Path) })
}

func TestSynthesize_WritesClipFile(t *testing.T) {
	assert := require.New(t)
	ctrl := gomock.NewController(t)
	synth := mocks.NewMockSpeechSynthesizer(ctrl)
	synth.EXPECT().
		Synthesize(gomock.Any(), "hello", "en", "voice-custom").
		Return(wavBytes, nil)

	service := newService(t, synth)

	clip, err := service.Synthesize(context.Background(), "hello", "english-us", "custom")

	assert.NoError(err)
	assert.Equal(int64(len(wavBytes)), clip.Size)
	written, readErr := os.ReadFile(clip.Path)
	assert.NoError(readErr)
	assert.Equal(wavBytes, written)
}

func TestSynthesize_BackendFailure_IsTyped(t *testing.T) {
	assert := require.New(t)
	ctrl := gomock.NewController(t)
	synth := mocks.NewMockSpeechSynthesizer(ctrl)
	synth.EXPECT().
		Synthesize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, context.DeadlineExceeded)

	service := newService(t, synth)

	_, err := service.Synthesize(context.Background(), "hello", "english-us", "default")

	assert.ErrorIs(err, errors.ErrTTSFailed)
}

func TestVoices_StableOrder(t *testing.T) {
	assert := require.New(t)
	service := newService(t, nil)

	voices := service.Voices()

	assert.Len(voices, 2)
	assert.Equal("custom", voices[0].Key)
	assert.Equal("default", voices[1].Key)

	// Serialized profiles never expose the backend voice ids
	data, err := json.Marshal(voices)
	assert.NoError(err)
	assert.NotContains(string(data), "voice-custom")
	assert.NotContains(string(data), "voice-default")
}
