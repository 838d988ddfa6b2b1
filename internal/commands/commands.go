// Package commands provides slash command handling for the chat session.
package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Handler is a function that handles a slash command.
// It receives the arguments after the command name and returns output text.
type Handler func(args string) string

// Registry holds all registered slash commands.
type Registry struct {
	commands map[string]entry
	writer   io.Writer
}

type entry struct {
	handler     Handler
	description string
}

// NewRegistry creates a Registry writing output to w. If w is nil, os.Stdout is used.
func NewRegistry(w io.Writer) *Registry {
	if w == nil {
		w = os.Stdout
	}
	return &Registry{
		commands: make(map[string]entry),
		writer:   w,
	}
}

// Register adds a command to the registry.
func (r *Registry) Register(name, description string, handler Handler) {
	r.commands[name] = entry{handler: handler, description: description}
}

// Execute runs a slash command. Returns the command output and whether it was found.
func (r *Registry) Execute(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.SplitN(input[1:], " ", 2)
	name := parts[0]
	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	e, ok := r.commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", name), true
	}

	return e.handler(args), true
}

// IsCommand reports whether the input starts with a slash command prefix.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Quit is returned by /quit and /exit to end the session.
const Quit = "__QUIT__"

// RegisterDefaults registers the standard set of slash commands.
func RegisterDefaults(r *Registry, callbacks Callbacks) {
	r.Register("help", "Show available commands", func(_ string) string {
		return r.helpText()
	})
	r.Register("quit", "Exit the application", func(_ string) string {
		return Quit
	})
	r.Register("exit", "Exit the application", func(_ string) string {
		return Quit
	})
	r.Register("new", "Start a new chat", func(_ string) string {
		if callbacks.OnNew != nil {
			return callbacks.OnNew()
		}
		return "Chats not configured."
	})
	r.Register("chats", "List chats or switch to chat N", func(args string) string {
		if callbacks.OnChats != nil {
			return callbacks.OnChats(args)
		}
		return "Chats not configured."
	})
	r.Register("clear", "Clear messages of the current chat", func(_ string) string {
		if callbacks.OnClear != nil {
			callbacks.OnClear()
		}
		return "Chat history cleared."
	})
	r.Register("model", "Show or switch the model of the current chat", func(args string) string {
		if callbacks.OnModel != nil {
			return callbacks.OnModel(args)
		}
		return "Model switching not configured."
	})
	r.Register("models", "List known models", func(_ string) string {
		if callbacks.OnModels != nil {
			return callbacks.OnModels()
		}
		return "Model catalog not configured."
	})
	r.Register("system", "Show or set the system message", func(args string) string {
		if callbacks.OnSystem != nil {
			return callbacks.OnSystem(args)
		}
		return "System message management not configured."
	})
	r.Register("title", "Show or set the chat title", func(args string) string {
		if callbacks.OnTitle != nil {
			return callbacks.OnTitle(args)
		}
		return "Titles not configured."
	})
	r.Register("config", "Show current configuration", func(_ string) string {
		if callbacks.OnConfig != nil {
			return callbacks.OnConfig()
		}
		return "Configuration display not configured."
	})
	r.Register("usage", "Show token usage and cost", func(_ string) string {
		if callbacks.OnUsage != nil {
			return callbacks.OnUsage()
		}
		return "Token counting not configured."
	})
	r.Register("share", "Share the current chat on ShareGPT", func(_ string) string {
		if callbacks.OnShare != nil {
			return callbacks.OnShare()
		}
		return "Sharing not configured."
	})
}

// Callbacks holds optional callbacks for default commands that need session state.
type Callbacks struct {
	OnNew    func() string
	OnChats  func(args string) string
	OnClear  func()
	OnModel  func(args string) string
	OnModels func() string
	OnSystem func(args string) string
	OnTitle  func(args string) string
	OnConfig func() string
	OnUsage  func() string
	OnShare  func() string
}

func (r *Registry) helpText() string {
	var names []string
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("  /%s - %s\n", name, r.commands[name].description))
	}
	return sb.String()
}
