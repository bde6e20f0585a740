package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campusdesk/campusdesk/internal/pkg/errors"
)

const (
	defaultSpeechmaticsBaseURL = "https://asr.api.speechmatics.com/v2"
	defaultSTTTimeout          = 30 * time.Second
)

type SpeechmaticsConfig struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Language string `json:"language"`
}

// Speechmatics transcribes visitor audio through the batch ASR API.
type Speechmatics struct {
	apiKey   string
	baseURL  string
	language string
	client   *http.Client
}

func NewSpeechmatics(cfg SpeechmaticsConfig) *Speechmatics {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultSpeechmaticsBaseURL
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	return &Speechmatics{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		baseURL:  baseURL,
		language: language,
		client:   &http.Client{Timeout: defaultSTTTimeout},
	}
}

type transcriptionResponse struct {
	Transcription string `json:"transcription"`
}

func (s *Speechmatics) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: stt: api key not configured", errors.ErrProvider)
	}
	endpoint := fmt.Sprintf("%s/transcriptions?type=json&language=%s", s.baseURL, s.language)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "audio/wav")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: stt: %v", errors.ErrProvider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: stt: %s: %s", errors.ErrProvider, resp.Status, strings.TrimSpace(string(body)))
	}
	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: stt: decode: %v", errors.ErrProvider, err)
	}
	return strings.TrimSpace(out.Transcription), nil
}
