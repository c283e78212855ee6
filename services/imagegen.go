package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bandhub/config"
)

const defaultImageModel = "wanx2.1-t2i-turbo"

// ImageGenerator creates vocabulary illustration images through DashScope's
// asynchronous text-to-image task API. It shares the submit/poll protocol
// with AsyncTranscriber.
type ImageGenerator struct {
	ApiKey       string
	Model        string
	BaseUrl      string
	Client       *http.Client
	PollInterval time.Duration
	MaxPolls     int
}

var imageGenerator *ImageGenerator

func InitImageService(cfg *config.Config) {
	imageGenerator = NewImageGenerator(cfg.Dashscope.ApiKey)
}

// GenerateImage is the package-level entry point used by the HTTP layer.
func GenerateImage(ctx context.Context, prompt string) (string, error) {
	if imageGenerator == nil {
		return "", errors.New("image service not initialized")
	}
	return imageGenerator.Generate(ctx, prompt)
}

func NewImageGenerator(apiKey string) *ImageGenerator {
	return &ImageGenerator{
		ApiKey:       apiKey,
		Model:        defaultImageModel,
		BaseUrl:      dashscopeApiBaseUrl,
		Client:       &http.Client{Timeout: 15 * time.Second},
		PollInterval: 2 * time.Second,
		MaxPolls:     30,
	}
}

// Generate submits the prompt as an async task and polls it to completion,
// returning the generated image URL.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(g.ApiKey) == "" {
		return "", &ConfigError{Reason: "missing DASHSCOPE_API_KEY for image generation"}
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("empty image prompt")
	}

	taskId, err := g.submit(ctx, strings.TrimSpace(prompt))
	if err != nil {
		return "", err
	}
	if taskId == "" {
		return "", errors.New("image service returned no task id")
	}

	var lastPollErr error
	for attempt := 0; attempt < g.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.PollInterval):
		}

		status, message, url, err := g.poll(ctx, taskId)
		if err != nil {
			lastPollErr = err
			continue
		}

		switch status {
		case "SUCCEEDED":
			if url == "" {
				return "", errors.New("image task succeeded with no results")
			}
			return url, nil
		case "FAILED":
			return "", &UpstreamError{StatusCode: http.StatusBadGateway, Body: truncate(message, 200)}
		}
	}
	return "", fmt.Errorf("image task timed out; last poll error: %v", lastPollErr)
}

func (g *ImageGenerator) submit(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"model": g.Model,
		"input": map[string]string{"prompt": prompt},
		"parameters": map[string]interface{}{
			"n":    1,
			"size": "512*512",
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.BaseUrl+"/services/aigc/text2image/image-synthesis", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.ApiKey)
	req.Header.Set("X-DashScope-Async", "enable")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
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

func (g *ImageGenerator) poll(ctx context.Context, taskId string) (status, message, url string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseUrl+"/tasks/"+taskId, nil)
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.ApiKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", "", fmt.Errorf("poll returned HTTP %d", resp.StatusCode)
	}

	var pollResp struct {
		Output struct {
			TaskStatus string `json:"task_status"`
			Message    string `json:"message"`
			Results    []struct {
				Url string `json:"url"`
			} `json:"results"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &pollResp); err != nil {
		return "", "", "", err
	}

	if len(pollResp.Output.Results) > 0 {
		url = pollResp.Output.Results[0].Url
	}
	return pollResp.Output.TaskStatus, pollResp.Output.Message, url, nil
}
