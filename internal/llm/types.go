// Package llm provides types for OpenAI-compatible chat completion APIs.
package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContentType discriminates message content parts.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImageURL ContentType = "image_url"
)

// ImageURL references an image attached to a message.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ContentPart is one piece of a message: text or an image.
type ContentPart struct {
	Type     ContentType
	Text     string
	ImageURL *ImageURL
}

type textPart struct {
	Type ContentType `json:"type"`
	Text string      `json:"text"`
}

type imagePart struct {
	Type     ContentType `json:"type"`
	ImageURL *ImageURL   `json:"image_url"`
}

// MarshalJSON writes the part in the shape of its type, so text parts always
// carry "text" (even when empty) and image parts never do.
func (p ContentPart) MarshalJSON() ([]byte, error) {
	if p.Type == ContentImageURL {
		return json.Marshal(imagePart{Type: p.Type, ImageURL: p.ImageURL})
	}
	return json.Marshal(textPart{Type: ContentText, Text: p.Text})
}

// UnmarshalJSON reads either part shape.
func (p *ContentPart) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     ContentType `json:"type"`
		Text     string      `json:"text"`
		ImageURL *ImageURL   `json:"image_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ContentText, "":
		*p = ContentPart{Type: ContentText, Text: raw.Text}
	case ContentImageURL:
		if raw.ImageURL == nil {
			return errors.New("image_url part without image_url")
		}
		*p = ContentPart{Type: ContentImageURL, ImageURL: raw.ImageURL}
	default:
		return errors.New("unknown content part type " + string(raw.Type))
	}
	return nil
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentText, Text: text}
}

// ImagePart returns an image content part.
func ImagePart(url, detail string) ContentPart {
	return ContentPart{Type: ContentImageURL, ImageURL: &ImageURL{URL: url, Detail: detail}}
}

// Message represents a single message in a conversation.
type Message struct {
	Role    Role          `json:"role"`
	Content []ContentPart `json:"content"`
}

// NewTextMessage returns a message with a single text part.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentPart{TextPart(text)}}
}

// Text concatenates the text parts of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Content {
		if p.Type == ContentText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Images counts the image parts of the message.
func (m Message) Images() int {
	n := 0
	for _, p := range m.Content {
		if p.Type == ContentImageURL {
			n++
		}
	}
	return n
}

// AppendText adds s to the first text part, creating one if needed.
func (m *Message) AppendText(s string) {
	for i := range m.Content {
		if m.Content[i].Type == ContentText {
			m.Content[i].Text += s
			return
		}
	}
	m.Content = append(m.Content, TextPart(s))
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := Message{Role: m.Role, Content: make([]ContentPart, len(m.Content))}
	for i, p := range m.Content {
		out.Content[i] = p
		if p.ImageURL != nil {
			img := *p.ImageURL
			out.Content[i].ImageURL = &img
		}
	}
	return out
}

// CloneMessages deep-copies a message slice.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// ModelConfig holds the per-chat sampling settings.
type ModelConfig struct {
	Model            string  `json:"model" yaml:"model"`
	MaxTokens        int     `json:"max_tokens" yaml:"max-tokens"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	PresencePenalty  float64 `json:"presence_penalty" yaml:"presence-penalty"`
	TopP             float64 `json:"top_p" yaml:"top-p"`
	FrequencyPenalty float64 `json:"frequency_penalty" yaml:"frequency-penalty"`
}

// ChatCompletionRequest is the request body for chat completions. MaxTokens
// is deliberately absent: the upstream picks its own limit.
type ChatCompletionRequest struct {
	Messages         []Message `json:"messages"`
	Model            string    `json:"model"`
	Temperature      float64   `json:"temperature"`
	PresencePenalty  float64   `json:"presence_penalty"`
	TopP             float64   `json:"top_p"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	Stream           bool      `json:"stream"`
}

func newChatCompletionRequest(messages []Message, cfg ModelConfig, stream bool) ChatCompletionRequest {
	return ChatCompletionRequest{
		Messages:         messages,
		Model:            cfg.Model,
		Temperature:      cfg.Temperature,
		PresencePenalty:  cfg.PresencePenalty,
		TopP:             cfg.TopP,
		FrequencyPenalty: cfg.FrequencyPenalty,
		Stream:           stream,
	}
}

// ResponseMessage is the assistant message of a non-streamed completion.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionChoice is a single completion choice.
type ChatCompletionChoice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// Usage tracks token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the response of a non-streamed completion.
type ChatCompletionResponse struct {
	ID      string                 `json:"id,omitempty"`
	Object  string                 `json:"object,omitempty"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   Usage                  `json:"usage"`
}

// ErrNoChoices is returned when a completion carries no choices.
var ErrNoChoices = errors.New("completion has no choices")

// Content returns the text of the first choice.
func (r *ChatCompletionResponse) Content() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", ErrNoChoices
	}
	return r.Choices[0].Message.Content, nil
}

// StreamDelta holds the incremental content in a streamed chunk.
type StreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChoice is a single choice within a streamed chunk.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason,omitempty"`
}

// StreamChunk is a single Server-Sent Events chunk during streaming.
type StreamChunk struct {
	ID      string         `json:"id,omitempty"`
	Object  string         `json:"object,omitempty"`
	Choices []StreamChoice `json:"choices"`
}

// DeltaChunk returns a chunk carrying one content delta.
func DeltaChunk(content string) StreamChunk {
	return StreamChunk{Choices: []StreamChoice{{Delta: StreamDelta{Content: content}}}}
}
