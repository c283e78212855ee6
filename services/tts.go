package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"bandhub/config"
)

const (
	dashscopeTtsUrl = "https://dashscope.aliyuncs.com/api/v1/services/aigc/multimodal-generation/generation"
	defaultTtsModel = "qwen-tts"
	defaultTtsVoice = "cherry"
)

// SpeechSynthesizer renders text to speech through DashScope in a single
// round trip.
type SpeechSynthesizer struct {
	ApiKey string
	Url    string
	Model  string
	Client *http.Client
}

var speechSynthesizer *SpeechSynthesizer

func InitSpeechService(cfg *config.Config) {
	speechSynthesizer = NewSpeechSynthesizer(cfg.Dashscope.ApiKey)
}

// SynthesizeSpeech is the package-level entry point used by the HTTP layer.
func SynthesizeSpeech(ctx context.Context, text, voice, format string) ([]byte, string, error) {
	if speechSynthesizer == nil {
		return nil, "", errors.New("speech service not initialized")
	}
	return speechSynthesizer.Synthesize(ctx, text, voice, format)
}

func NewSpeechSynthesizer(apiKey string) *SpeechSynthesizer {
	return &SpeechSynthesizer{
		ApiKey: apiKey,
		Url:    dashscopeTtsUrl,
		Model:  defaultTtsModel,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Synthesize returns the audio bytes and their content type. Supported
// formats are wav and mp3.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text, voice, format string) ([]byte, string, error) {
	if strings.TrimSpace(s.ApiKey) == "" {
		return nil, "", &ConfigError{Reason: "missing DASHSCOPE_API_KEY for speech synthesis"}
	}

	normalized := strings.ToLower(format)
	if normalized == "" {
		normalized = "wav"
	}
	if normalized != "wav" && normalized != "mp3" {
		return nil, "", errors.New("unsupported format: use 'wav' or 'mp3'")
	}
	if voice == "" {
		voice = defaultTtsVoice
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model": s.Model,
		"input": map[string]string{"text": text},
		"parameters": map[string]interface{}{
			"voice":  voice,
			"format": normalized,
		},
	})
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Url, bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.ApiKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	contentType := "audio/wav"
	if normalized == "mp3" {
		contentType = "audio/mpeg"
	}
	return body, contentType, nil
}
