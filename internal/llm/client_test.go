package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() ModelConfig {
	return ModelConfig{Model: "my-model", MaxTokens: 4000, Temperature: 0.5, TopP: 1}
}

func readAll(t *testing.T, s *Stream) string {
	t.Helper()
	r, err := s.Reader()
	require.NoError(t, err)
	var sb strings.Builder
	for {
		chunk, done, err := r.Read()
		require.NoError(t, err)
		sb.Write(chunk)
		if done {
			break
		}
	}
	r.ReleaseLock()
	return sb.String()
}

func TestComplete(t *testing.T) {
	expected := ChatCompletionResponse{
		ID:     "chatcmpl-1",
		Object: "chat.completion",
		Choices: []ChatCompletionChoice{
			{Index: 0, Message: ResponseMessage{Role: "assistant", Content: "Hello!"}, FinishReason: "stop"},
		},
		Usage: Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "my-model", body["model"])
		assert.Equal(t, false, body["stream"])
		assert.Equal(t, 0.5, body["temperature"])
		assert.NotContains(t, body, "max_tokens")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expected)
	}))
	defer srv.Close()

	client := NewClient()
	resp, err := client.Complete(context.Background(), Request{
		Endpoint: srv.URL + "/v1/chat/completions",
		Messages: []Message{NewTextMessage(RoleUser, "Hi")},
		Config:   testConfig(),
		APIKey:   "test-key",
		Headers:  map[string]string{"X-Extra": "yes"},
	})
	require.NoError(t, err)
	content, err := resp.Content()
	require.NoError(t, err)
	assert.Equal(t, "Hello!", content)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestCompleteWithoutKeyOmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	resp, err := NewClient().Complete(context.Background(), Request{Endpoint: srv.URL, Config: testConfig()})
	require.NoError(t, err)
	content, err := resp.Content()
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid key"}`)
	}))
	defer srv.Close()

	_, err := NewClient().Complete(context.Background(), Request{Endpoint: srv.URL, Config: testConfig(), APIKey: "bad-key"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Status)
	assert.Equal(t, `{"error":"invalid key"}`, apiErr.Body)
	assert.Equal(t, `API Error: 401 Unauthorized - {"error":"invalid key"}`, err.Error())
}

func TestCompleteStream(t *testing.T) {
	sseData := strings.Join([]string{
		`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"},"finish_reason":null}]}`,
		`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo!"},"finish_reason":null}]}`,
		`data: [DONE]`,
		"",
	}, "\n\n")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		assert.NotContains(t, body, "max_tokens")

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseData)
	}))
	defer srv.Close()

	stream, err := NewClient().CompleteStream(context.Background(), Request{
		Endpoint: "  " + srv.URL + "  ",
		Messages: []Message{NewTextMessage(RoleUser, "Hi")},
		Config:   testConfig(),
		APIKey:   "k",
	})
	require.NoError(t, err)
	assert.Equal(t, sseData, readAll(t, stream))
	require.NoError(t, stream.Cancel("done"))
}

func TestCompleteStreamAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient().CompleteStream(context.Background(), Request{Endpoint: srv.URL, Config: testConfig()})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "overloaded")
}

func TestBridgeModelWithoutBridge(t *testing.T) {
	cfg := testConfig()
	cfg.Model = "puter/gpt-4o"
	_, err := NewClient().CompleteStream(context.Background(), Request{Config: cfg})
	assert.ErrorIs(t, err, ErrNoBridge)
}

func TestIsBridgeModel(t *testing.T) {
	c := NewClient()
	assert.True(t, c.IsBridgeModel("puter/gpt-4o"))
	assert.False(t, c.IsBridgeModel("gpt-4o"))

	c = NewClient(WithBridgePrefix(""))
	assert.False(t, c.IsBridgeModel("puter/gpt-4o"))
}

func TestBackendSelection(t *testing.T) {
	c := NewClient(WithBridge(&fakeBridge{}))

	b, err := c.backendFor("gpt-4o")
	require.NoError(t, err)
	assert.IsType(t, directHTTP{}, b)

	b, err = c.backendFor("puter/gpt-4o")
	require.NoError(t, err)
	assert.IsType(t, hostBridge{}, b)
}

func TestMessageJSON(t *testing.T) {
	msg := Message{Role: RoleUser, Content: []ContentPart{TextPart(""), ImagePart("https://x/y.png", "auto")}}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":[{"type":"text","text":""},{"type":"image_url","image_url":{"url":"https://x/y.png","detail":"auto"}}]}`, string(data))

	var back Message
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, msg, back)
}

func TestMessageAppendTextAndClone(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: []ContentPart{ImagePart("u", "")}}
	msg.AppendText("a")
	msg.AppendText("b")
	assert.Equal(t, "ab", msg.Text())
	assert.Equal(t, 1, msg.Images())

	clone := msg.Clone()
	clone.AppendText("c")
	clone.Content[0].ImageURL.URL = "changed"
	assert.Equal(t, "ab", msg.Text())
	assert.Equal(t, "u", msg.Content[0].ImageURL.URL)
}

func TestResponseContentNoChoices(t *testing.T) {
	_, err := (&ChatCompletionResponse{}).Content()
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestStreamReaderLock(t *testing.T) {
	s := NewStream(io.NopCloser(strings.NewReader("x")))
	r, err := s.Reader()
	require.NoError(t, err)
	assert.True(t, s.Locked())

	_, err = s.Reader()
	assert.ErrorIs(t, err, ErrStreamLocked)

	r.ReleaseLock()
	assert.False(t, s.Locked())
	_, err = s.Reader()
	assert.NoError(t, err)
}

func TestStreamCancelKeepsFirstReason(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	s := NewStream(pr)
	r, err := s.Reader()
	require.NoError(t, err)

	require.NoError(t, r.Cancel("first"))
	require.NoError(t, s.Cancel("second"))
	assert.True(t, s.Cancelled())
	assert.Equal(t, "first", s.CancelReason())

	_, done, err := r.Read()
	assert.NoError(t, err)
	assert.True(t, done)
}
