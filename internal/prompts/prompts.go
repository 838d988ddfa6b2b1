// Package prompts provides the fixed prompts gochat sends to models.
package prompts

import "fmt"

// DefaultSystemMessage is the system message of a new chat when no persona
// file overrides it.
const DefaultSystemMessage = `You are a helpful assistant. Answer as concisely as possible.
Use Markdown for code blocks, lists and tables.`

// TitlePrompt returns the instruction appended to the last exchange when
// asking a model for a chat title.
func TitlePrompt(language string) string {
	return fmt.Sprintf("Generate a title in less than 6 words for the conversation so far (language: %s)", language)
}
