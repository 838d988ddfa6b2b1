// Package share publishes a conversation to ShareGPT.
package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tnglemongrass/gochat/internal/llm"
)

const (
	DefaultEndpoint = "https://sharegpt.com/api/conversations"
	DefaultBaseURL  = "https://shareg.pt/"
)

// Item is one turn of a shared conversation.
type Item struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

// Conversation is the body posted to the share endpoint.
type Conversation struct {
	AvatarURL string `json:"avatarUrl"`
	Items     []Item `json:"items"`
}

// FromMessages converts chat messages; system messages are not shared.
func FromMessages(messages []llm.Message) Conversation {
	conv := Conversation{Items: []Item{}}
	for _, m := range messages {
		var from string
		switch m.Role {
		case llm.RoleUser:
			from = "human"
		case llm.RoleAssistant:
			from = "gpt"
		default:
			continue
		}
		conv.Items = append(conv.Items, Item{From: from, Value: m.Text()})
	}
	return conv
}

// Client submits conversations.
type Client struct {
	Endpoint   string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a Client for the public ShareGPT service.
func NewClient() *Client {
	return &Client{
		Endpoint:   DefaultEndpoint,
		BaseURL:    DefaultBaseURL,
		HTTPClient: http.DefaultClient,
	}
}

// Submit posts conv and returns the public URL of the shared conversation.
func (c *Client) Submit(ctx context.Context, conv Conversation) (string, error) {
	body, err := json.Marshal(conv)
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("share request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("share error %d: %s", resp.StatusCode, string(respBody))
	}

	id := gjson.GetBytes(respBody, "id").String()
	if id == "" {
		return "", fmt.Errorf("share response without id: %s", string(respBody))
	}
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + id, nil
}
