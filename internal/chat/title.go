package chat

import (
	"context"
	"strings"

	"github.com/tnglemongrass/gochat/internal/config"
	"github.com/tnglemongrass/gochat/internal/llm"
	"github.com/tnglemongrass/gochat/internal/prompts"
	"golang.org/x/text/unicode/norm"
)

// titleRequest builds the single user message asking for a title of the
// exchange between user and assistant.
func titleRequest(user, assistant llm.Message, language string) llm.Message {
	content := make([]llm.ContentPart, 0, len(user.Content)+len(assistant.Content)+1)
	content = append(content, user.Clone().Content...)
	content = append(content, assistant.Clone().Content...)
	content = append(content, llm.TextPart(prompts.TitlePrompt(language)))
	return llm.Message{Role: llm.RoleUser, Content: content}
}

// generateTitle asks for a title and returns it with the model that
// produced it.
func (s *Submitter) generateTitle(ctx context.Context, messages []llm.Message, chatConfig llm.ModelConfig) (string, string, error) {
	req := llm.Request{
		Endpoint: s.opts.Endpoint,
		Messages: messages,
		Headers:  s.opts.Headers,
	}
	switch {
	case !s.client.IsBridgeModel(chatConfig.Model) && s.opts.APIKey == "":
		if strings.TrimSpace(s.opts.Endpoint) == config.OfficialEndpoint {
			return "", "", &TitleError{Err: ErrNoAPIKey}
		}
		req.Config = s.opts.DefaultConfig
	case s.opts.APIKey != "":
		req.Config = chatConfig
		req.APIKey = s.opts.APIKey
	default:
		req.Config = chatConfig
	}
	if s.opts.TitleModel != "" {
		req.Config.Model = s.opts.TitleModel
	}

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return "", "", &TitleError{Err: err}
	}
	content, err := resp.Content()
	if err != nil {
		return "", "", &TitleError{Err: err}
	}
	return cleanTitle(content), req.Config.Model, nil
}

// cleanTitle trims the title and strips one pair of wrapping double quotes.
func cleanTitle(title string) string {
	title = strings.TrimSpace(norm.NFC.String(title))
	if len(title) >= 2 && strings.HasPrefix(title, `"`) && strings.HasSuffix(title, `"`) {
		title = title[1 : len(title)-1]
	}
	return title
}
