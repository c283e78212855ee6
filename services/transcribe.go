package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"bandhub/config"
)

// Transcriber turns recorded audio into text. Implementations never return an
// error: every failure mode collapses into a parenthesized sentinel string so
// the evaluation pipeline stays linear. Use IsTranscriptionFailure to tell a
// sentinel from genuine content.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) string
}

const (
	dashscopeApiBaseUrl  = "https://dashscope.aliyuncs.com/api/v1"
	defaultAsrModel      = "sensevoice-v1"
	defaultWhisperModel  = "whisper-1"
	transcribePollEvery  = 2 * time.Second
	transcribeMaxPolls   = 30
	transcribeSentinel   = "(transcription"
	sentinelMessageLimit = 200
)

var transcriber Transcriber

// InitTranscriptionService selects the transcription backend: DashScope's
// async task API by default, its synchronous compatible-mode upload when
// configured, or an OpenAI-compatible Whisper endpoint as the last resort.
func InitTranscriptionService(cfg *config.Config) {
	transcriber = resolveTranscriber(cfg)
}

func resolveTranscriber(cfg *config.Config) Transcriber {
	if cfg.Dashscope.ApiKey != "" {
		if cfg.Transcription.Mode == "sync" {
			return NewSyncTranscriber(cfg.Dashscope.ApiKey, dashscopeBaseUrl, defaultAsrModel)
		}
		return NewAsyncTranscriber(cfg.Dashscope.ApiKey)
	}
	baseUrl := cfg.Openai.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultOpenaiBaseUrl
	}
	return NewSyncTranscriber(cfg.Openai.ApiKey, baseUrl, defaultWhisperModel)
}

// IsTranscriptionFailure reports whether text is a failure sentinel rather
// than genuine transcription content.
func IsTranscriptionFailure(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), transcribeSentinel)
}

// Inline markers like <|en|> or <|EMO_HAPPY|> that SenseVoice embeds in its
// result text.
var serviceTagPattern = regexp.MustCompile(`<\|[^|]*\|>`)

func stripServiceTags(text string) string {
	return strings.TrimSpace(serviceTagPattern.ReplaceAllString(text, " "))
}

// AsyncTranscriber submits audio as an asynchronous task and polls the task
// endpoint until it reaches a terminal state. Transient poll errors are
// retried until the attempt budget runs out; a caller-cancelled context ends
// the wait early with a timeout sentinel.
type AsyncTranscriber struct {
	ApiKey       string
	Model        string
	BaseUrl      string
	Client       *http.Client
	PollInterval time.Duration
	MaxPolls     int
}

func NewAsyncTranscriber(apiKey string) *AsyncTranscriber {
	return &AsyncTranscriber{
		ApiKey:       apiKey,
		Model:        defaultAsrModel,
		BaseUrl:      dashscopeApiBaseUrl,
		Client:       &http.Client{Timeout: 15 * time.Second},
		PollInterval: transcribePollEvery,
		MaxPolls:     transcribeMaxPolls,
	}
}

func (t *AsyncTranscriber) Transcribe(ctx context.Context, audio []byte) string {
	if strings.TrimSpace(t.ApiKey) == "" {
		return "(transcription unavailable: missing API key)"
	}

	taskId, err := t.submit(ctx, audio)
	if err != nil {
		return "(transcription failed: " + truncate(err.Error(), sentinelMessageLimit) + ")"
	}
	if taskId == "" {
		return "(transcription failed: service returned no task id)"
	}

	for attempt := 0; attempt < t.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "(transcription timed out: " + ctx.Err().Error() + ")"
		case <-time.After(t.PollInterval):
		}

		task, err := t.poll(ctx, taskId)
		if err != nil {
			// Transient poll failures are retried.
			continue
		}

		switch task.Status {
		case "SUCCEEDED":
			text := stripServiceTags(task.Text)
			if text == "" {
				return "(transcription empty)"
			}
			return text
		case "FAILED":
			return "(transcription failed: " + truncate(task.Message, sentinelMessageLimit) + ")"
		}
	}
	return "(transcription timed out waiting for the task to finish)"
}

func (t *AsyncTranscriber) submit(ctx context.Context, audio []byte) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"model": t.Model,
		"input": map[string]string{
			"audio":  base64.StdEncoding.EncodeToString(audio),
			"format": "wav",
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.BaseUrl+"/services/audio/asr/transcription", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.ApiKey)
	req.Header.Set("X-DashScope-Async", "enable")

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit returned HTTP %d: %s", resp.StatusCode, truncate(string(body), sentinelMessageLimit))
	}

	var submitResp struct {
		Output struct {
			TaskId string `json:"task_id"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &submitResp); err != nil {
		return "", err
	}
	return submitResp.Output.TaskId, nil
}

type transcriptionTask struct {
	Status  string
	Message string
	Text    string
}

func (t *AsyncTranscriber) poll(ctx context.Context, taskId string) (transcriptionTask, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BaseUrl+"/tasks/"+taskId, nil)
	if err != nil {
		return transcriptionTask{}, err
	}
	req.Header.Set("Authorization", "Bearer "+t.ApiKey)

	resp, err := t.Client.Do(req)
	if err != nil {
		return transcriptionTask{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transcriptionTask{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return transcriptionTask{}, fmt.Errorf("poll returned HTTP %d", resp.StatusCode)
	}

	var pollResp struct {
		Output struct {
			TaskStatus string `json:"task_status"`
			Message    string `json:"message"`
			Results    []struct {
				Text string `json:"text"`
			} `json:"results"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &pollResp); err != nil {
		return transcriptionTask{}, err
	}

	task := transcriptionTask{
		Status:  pollResp.Output.TaskStatus,
		Message: pollResp.Output.Message,
	}
	if len(pollResp.Output.Results) > 0 {
		task.Text = pollResp.Output.Results[0].Text
	}
	return task, nil
}

// SyncTranscriber uploads the audio in a single multipart round trip against
// an OpenAI-compatible /audio/transcriptions endpoint.
type SyncTranscriber struct {
	apiKey string
	client *openai.Client
	model  string
}

func NewSyncTranscriber(apiKey, baseUrl, model string) *SyncTranscriber {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseUrl
	return &SyncTranscriber{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (t *SyncTranscriber) Transcribe(ctx context.Context, audio []byte) string {
	if strings.TrimSpace(t.apiKey) == "" {
		return "(transcription unavailable: missing API key)"
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "answer.wav",
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "(transcription failed: " + truncate(err.Error(), sentinelMessageLimit) + ")"
	}

	text := stripServiceTags(resp.Text)
	if text == "" {
		return "(transcription empty)"
	}
	return text
}
