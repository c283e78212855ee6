package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestAsyncTranscriber(serverUrl string) *AsyncTranscriber {
	return &AsyncTranscriber{
		ApiKey:       "test-key",
		Model:        "sensevoice-v1",
		BaseUrl:      serverUrl,
		Client:       &http.Client{Timeout: 2 * time.Second},
		PollInterval: time.Millisecond,
		MaxPolls:     5,
	}
}

func TestAsyncTranscribeSucceededStripsServiceTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			if r.Header.Get("X-DashScope-Async") != "enable" {
				t.Errorf("missing async header")
			}
			w.Write([]byte(`{"output": {"task_id": "task-123"}}`))
		case strings.HasSuffix(r.URL.Path, "/tasks/task-123"):
			w.Write([]byte(`{"output": {"task_status": "SUCCEEDED", "results": [{"text": "<|en|><|NEUTRAL|> I like my hometown. <|withitn|>"}]}}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	got := newTestAsyncTranscriber(server.URL).Transcribe(context.Background(), []byte("wav-bytes"))
	if got != "I like my hometown." {
		t.Errorf("got %q", got)
	}
	if IsTranscriptionFailure(got) {
		t.Error("genuine content flagged as failure")
	}
}

func TestAsyncTranscribeFailedTaskReturnsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"output": {"task_id": "task-9"}}`))
			return
		}
		w.Write([]byte(`{"output": {"task_status": "FAILED", "message": "audio too short"}}`))
	}))
	defer server.Close()

	got := newTestAsyncTranscriber(server.URL).Transcribe(context.Background(), []byte("x"))
	if !IsTranscriptionFailure(got) {
		t.Fatalf("expected a failure sentinel, got %q", got)
	}
	if !strings.Contains(got, "audio too short") {
		t.Errorf("sentinel should carry the service message, got %q", got)
	}
}

func TestAsyncTranscribeNeverFinishingTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"output": {"task_id": "task-slow"}}`))
			return
		}
		w.Write([]byte(`{"output": {"task_status": "RUNNING"}}`))
	}))
	defer server.Close()

	got := newTestAsyncTranscriber(server.URL).Transcribe(context.Background(), []byte("x"))
	if got != "(transcription timed out waiting for the task to finish)" {
		t.Errorf("got %q", got)
	}
}

func TestAsyncTranscribeRetriesTransientPollErrors(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"output": {"task_id": "task-flaky"}}`))
			return
		}
		polls++
		if polls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"output": {"task_status": "SUCCEEDED", "results": [{"text": "finally done"}]}}`))
	}))
	defer server.Close()

	got := newTestAsyncTranscriber(server.URL).Transcribe(context.Background(), []byte("x"))
	if got != "finally done" {
		t.Errorf("got %q", got)
	}
}

func TestAsyncTranscribeMissingKeyShortCircuits(t *testing.T) {
	tr := NewAsyncTranscriber("")
	got := tr.Transcribe(context.Background(), []byte("x"))
	if got != "(transcription unavailable: missing API key)" {
		t.Errorf("got %q", got)
	}
}

func TestAsyncTranscribeCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": {"task_id": "task-ctx"}}`))
	}))
	defer server.Close()

	tr := newTestAsyncTranscriber(server.URL)
	tr.PollInterval = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)
	got := tr.Transcribe(ctx, []byte("x"))
	if !strings.HasPrefix(got, "(transcription timed out:") {
		t.Errorf("got %q", got)
	}
}

func TestStripServiceTags(t *testing.T) {
	got := stripServiceTags("<|zh|><|EMO_HAPPY|>你好 hello<|itn|>")
	if got != "你好 hello" {
		t.Errorf("got %q", got)
	}
}

func TestIsTranscriptionFailure(t *testing.T) {
	if !IsTranscriptionFailure("  (transcription empty)") {
		t.Error("sentinel not detected")
	}
	if IsTranscriptionFailure("I said (transcription) out loud") {
		t.Error("false positive on content starting elsewhere")
	}
}
