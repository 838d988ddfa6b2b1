// Package tokens estimates token counts and fits chat history into a budget.
package tokens

import "github.com/tnglemongrass/gochat/internal/llm"

const (
	// charsPerToken is the usual rule of thumb for English text.
	charsPerToken = 4
	// messageOverhead covers the role and framing tokens of one message.
	messageOverhead = 4
	// replyPriming is added once per request for the assistant reply header.
	replyPriming = 3
)

// Estimate returns a rough token count for text.
func Estimate(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// Count estimates the tokens a request made of messages consumes.
func Count(messages []llm.Message) int {
	if len(messages) == 0 {
		return 0
	}
	total := replyPriming
	for _, m := range messages {
		total += messageOverhead + Estimate(string(m.Role)) + Estimate(m.Text())
	}
	return total
}

// Limit selects the messages sent for a request so their count stays within
// limit. A leading system message is kept when it fits on its own. Then
// messages are taken newest first until the next one would overflow. The
// first message, when not a system message, is kept last if room remains,
// even when messages between it and the kept tail were dropped.
//
// The result may be empty when nothing fits.
func Limit(messages []llm.Message, limit int) []llm.Message {
	if len(messages) == 0 {
		return nil
	}

	used := 0
	systemFirst := messages[0].Role == llm.RoleSystem
	keepSystem := false
	if systemFirst {
		if n := Count(messages[:1]); n < limit {
			used += n
			keepSystem = true
		}
	}

	start := len(messages)
	for i := len(messages) - 1; i >= 1; i-- {
		n := Count(messages[i : i+1])
		if used+n > limit {
			break
		}
		used += n
		start = i
	}

	out := make([]llm.Message, 0, len(messages)-start+1)
	switch {
	case keepSystem:
		out = append(out, messages[0].Clone())
	case !systemFirst:
		if Count(messages[:1])+used < limit {
			out = append(out, messages[0].Clone())
		}
	}
	for _, m := range messages[start:] {
		out = append(out, m.Clone())
	}
	return out
}
