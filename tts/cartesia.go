package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	cartesiaEndpoint = "https://api.cartesia.ai/tts/bytes"
	cartesiaVersion  = "2024-06-10"
	cartesiaModel    = "sonic-2"
)

// CartesiaSynthesizer calls the Cartesia bytes endpoint and returns raw WAV
// audio.
type CartesiaSynthesizer struct {
	apiKey string
	client *http.Client
}

func NewCartesiaSynthesizer(apiKey string, timeout time.Duration) *CartesiaSynthesizer {
	return &CartesiaSynthesizer{
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type cartesiaRequest struct {
	ModelID      string              `json:"model_id"`
	Transcript   string              `json:"transcript"`
	Voice        cartesiaVoice       `json:"voice"`
	OutputFormat cartesiaAudioFormat `json:"output_format"`
	Language     string              `json:"language"`
}

type cartesiaVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaAudioFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

func (c *CartesiaSynthesizer) Synthesize(ctx context.Context, text, languageCode, voiceID string) ([]byte, error) {
	payload, err := json.Marshal(cartesiaRequest{
		ModelID:    cartesiaModel,
		Transcript: text,
		Voice:      cartesiaVoice{Mode: "id", ID: voiceID},
		OutputFormat: cartesiaAudioFormat{
			Container:  "wav",
			Encoding:   "pcm_f32le",
			SampleRate: 44100,
		},
		Language: languageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cartesiaEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call cartesia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cartesia status %d: %s", resp.StatusCode, body)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio response")
	}
	return audio, nil
}
