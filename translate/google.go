// Package translate adapts the free Google translate endpoint to the
// Translator contract used by the relay fan-out.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"babelroom/errors"
)

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

type GoogleTranslator struct {
	client *http.Client
}

func NewGoogleTranslator(timeout time.Duration) *GoogleTranslator {
	return &GoogleTranslator{client: &http.Client{Timeout: timeout}}
}

// Translate converts text from sourceCode to targetCode. Any transport or
// decoding failure maps to ErrTranslate so callers can degrade uniformly.
func (t *GoogleTranslator) Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", sourceCode)
	query.Set("tl", targetCode)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		googleEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", errors.ErrTranslate, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTranslate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", errors.ErrTranslate, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", errors.ErrTranslate, err)
	}

	translated, err := decode(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTranslate, err)
	}
	return translated, nil
}

// decode unpacks the endpoint's nested-array response: the first element
// holds one [translatedSegment, originalSegment, ...] entry per sentence.
func decode(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %v", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %v", err)
	}

	var out strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(segment[0], &part); err != nil {
			continue
		}
		out.WriteString(part)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("no translated segments")
	}
	return out.String(), nil
}
