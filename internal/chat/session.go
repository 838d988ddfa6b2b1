// Package chat holds the chat collection, drives submissions against the
// completion client and runs the interactive session.
package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tnglemongrass/gochat/internal/commands"
	"github.com/tnglemongrass/gochat/internal/config"
	"github.com/tnglemongrass/gochat/internal/llm"
	"github.com/tnglemongrass/gochat/internal/logger"
	"github.com/tnglemongrass/gochat/internal/models"
	"github.com/tnglemongrass/gochat/internal/persona"
	"github.com/tnglemongrass/gochat/internal/render"
	"github.com/tnglemongrass/gochat/internal/share"
)

// InputReader reads a line of user input. Returns the line and any error (io.EOF on end).
type InputReader func(prompt string) (string, error)

// Sharer publishes a conversation and returns its URL.
type Sharer interface {
	Submit(ctx context.Context, conv share.Conversation) (string, error)
}

// Session manages the interactive chat loop.
type Session struct {
	cfg       *config.Config
	store     *Store
	submitter *Submitter
	client    *llm.Client
	catalog   *models.Catalog
	persona   *persona.Persona
	sharer    Sharer
	copyText  func(string) error
	renderer  *render.Renderer
	cmdReg    *commands.Registry
	logger    *slog.Logger
	writer    io.Writer

	renderOpts []render.Option
	ctx        context.Context

	// stream rendering of the reply in progress
	rendered int
	pending  string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithCatalog sets the model catalog.
func WithCatalog(c *models.Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

// WithClient sets the completion client, for example one with a host bridge.
func WithClient(c *llm.Client) Option {
	return func(s *Session) { s.client = c }
}

// WithPersona sets the source of the system message of new chats.
func WithPersona(p *persona.Persona) Option {
	return func(s *Session) { s.persona = p }
}

// WithSharer sets the /share backend.
func WithSharer(sh Sharer) Option {
	return func(s *Session) { s.sharer = sh }
}

// WithClipboard sets the function /share uses to copy the URL.
func WithClipboard(fn func(string) error) Option {
	return func(s *Session) { s.copyText = fn }
}

// WithRenderOptions configures the markdown renderer.
func WithRenderOptions(opts ...render.Option) Option {
	return func(s *Session) { s.renderOpts = opts }
}

// NewSession creates a new chat session from the given configuration.
func NewSession(cfg *config.Config, w io.Writer, opts ...Option) (*Session, error) {
	if w == nil {
		w = os.Stdout
	}
	s := &Session{
		cfg:    cfg,
		writer: w,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	if s.catalog == nil {
		s.catalog = models.Default()
	}
	if s.client == nil {
		s.client = llm.NewClient(
			llm.WithBridgePrefix(cfg.BridgePrefix),
			llm.WithLogger(s.logger),
		)
	}
	if s.sharer == nil {
		s.sharer = share.NewClient()
	}

	r, err := render.NewRenderer(w, s.renderOpts...)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	s.renderer = r

	s.store = NewStore(s.newChat())
	s.submitter = NewSubmitter(s.store, s.client, Options{
		Endpoint:         cfg.Endpoint,
		APIKey:           cfg.APIKey,
		Headers:          cfg.Headers,
		DefaultConfig:    config.DefaultConfig().ModelConfig(),
		TitleModel:       cfg.TitleModel,
		AutoTitle:        cfg.AutoTitle,
		CountTotalTokens: cfg.CountTotalTokens,
		Language:         cfg.Language,
		Catalog:          s.catalog,
		Logger:           s.logger,
	})
	s.store.Subscribe(s.onSnapshot)

	reg := commands.NewRegistry(w)
	commands.RegisterDefaults(reg, commands.Callbacks{
		OnNew:    s.newChatCmd,
		OnChats:  s.chats,
		OnClear:  s.clearHistory,
		OnModel:  s.switchModel,
		OnModels: s.listModels,
		OnSystem: s.systemMessage,
		OnTitle:  s.title,
		OnConfig: s.showConfig,
		OnUsage:  s.usage,
		OnShare:  s.share,
	})
	s.cmdReg = reg

	return s, nil
}

// Store returns the chat store of the session.
func (s *Session) Store() *Store {
	return s.store
}

// Run starts the main chat loop using the provided input reader.
func (s *Session) Run(ctx context.Context, readInput InputReader) error {
	s.ctx = ctx
	for {
		input, err := readInput("gochat> ")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if output, isCmd := s.cmdReg.Execute(input); isCmd {
			if output == commands.Quit {
				return nil
			}
			fmt.Fprintln(s.writer, output)
			continue
		}

		if err := s.sendMessage(ctx, input); err != nil {
			fmt.Fprintf(s.writer, "Error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Interrupt stops a reply in progress. It reports whether one was running.
func (s *Session) Interrupt() bool {
	if !s.store.Generating() {
		return false
	}
	s.submitter.Stop()
	return true
}

// Messages returns the messages of the current chat.
func (s *Session) Messages() []llm.Message {
	c, ok := s.store.Snapshot().CurrentChat()
	if !ok {
		return nil
	}
	return llm.CloneMessages(c.Messages)
}

func (s *Session) newChat() Chat {
	return NewChat(s.cfg.ModelConfig(), s.persona.SystemMessage())
}

func (s *Session) sendMessage(ctx context.Context, text string) error {
	s.store.Update(func(snap *Snapshot) {
		if _, ok := snap.CurrentChat(); !ok {
			snap.Chats = append(snap.Chats, s.newChat())
			snap.Current = len(snap.Chats) - 1
		}
		c := &snap.Chats[snap.Current]
		c.Messages = append(c.Messages, llm.NewTextMessage(llm.RoleUser, text))
	})

	s.rendered, s.pending = 0, ""
	before, _ := s.store.Snapshot().CurrentChat()
	err := s.submitter.Submit(ctx)

	if rest, renderErr := s.renderer.RenderStream(s.pending, "", true); renderErr != nil {
		fmt.Fprintf(s.writer, "\nRender error: %v\n", renderErr)
	} else {
		s.pending = rest
	}
	if err != nil {
		return err
	}

	if after, ok := s.store.Snapshot().CurrentChat(); ok && !before.TitleSet && after.TitleSet {
		fmt.Fprintf(s.writer, "Title: %s\n", after.Title)
	}
	return nil
}

// onSnapshot renders the new text of the reply being generated.
func (s *Session) onSnapshot(snap *Snapshot) {
	if !s.store.Generating() {
		return
	}
	c, ok := snap.CurrentChat()
	if !ok || len(c.Messages) == 0 {
		return
	}
	last := c.Messages[len(c.Messages)-1]
	if last.Role != llm.RoleAssistant {
		return
	}
	text := last.Text()
	if len(text) <= s.rendered {
		return
	}
	delta := text[s.rendered:]
	s.rendered = len(text)

	acc, err := s.renderer.RenderStream(s.pending, delta, false)
	if err != nil {
		fmt.Fprintf(s.writer, "\nRender error: %v\n", err)
		return
	}
	s.pending = acc
}

func (s *Session) newChatCmd() string {
	s.store.Update(func(snap *Snapshot) {
		snap.Chats = append(snap.Chats, s.newChat())
		snap.Current = len(snap.Chats) - 1
	})
	return fmt.Sprintf("Started chat %d.", s.store.Snapshot().Current+1)
}

func (s *Session) chats(args string) string {
	snap := s.store.Snapshot()
	if args == "" {
		var sb strings.Builder
		sb.WriteString("Chats:\n")
		for i, c := range snap.Chats {
			marker := "  "
			if i == snap.Current {
				marker = "* "
			}
			sb.WriteString(fmt.Sprintf("%s%d. %s (%s, %d messages)\n", marker, i+1, c.Title, c.Config.Model, len(c.Messages)))
		}
		return sb.String()
	}
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 || n > len(snap.Chats) {
		return fmt.Sprintf("No chat %q. Use /chats to list chats.", args)
	}
	s.store.Update(func(next *Snapshot) { next.Current = n - 1 })
	return fmt.Sprintf("Switched to chat %d: %s", n, snap.Chats[n-1].Title)
}

func (s *Session) clearHistory() {
	s.store.Update(func(snap *Snapshot) {
		if _, ok := snap.CurrentChat(); !ok {
			return
		}
		c := &snap.Chats[snap.Current]
		var kept []llm.Message
		if len(c.Messages) > 0 && c.Messages[0].Role == llm.RoleSystem {
			kept = c.Messages[:1]
		}
		c.Messages = kept
		c.Title = DefaultTitle
		c.TitleSet = false
	})
}

func (s *Session) switchModel(args string) string {
	c, ok := s.store.Snapshot().CurrentChat()
	if !ok {
		return "No active chat."
	}
	if args == "" {
		return fmt.Sprintf("Current model: %s (%s)", c.Config.Model, s.catalog.DisplayName(c.Config.Model))
	}
	s.store.Update(func(snap *Snapshot) {
		snap.Chats[snap.Current].Config.Model = args
	})
	out := fmt.Sprintf("Switched to model: %s", args)
	if !s.catalog.Has(args) && !s.client.IsBridgeModel(args) {
		out += " (not in the model catalog)"
	}
	return out
}

func (s *Session) listModels() string {
	current := ""
	if c, ok := s.store.Snapshot().CurrentChat(); ok {
		current = c.Config.Model
	}
	var sb strings.Builder
	sb.WriteString("Available models:\n")
	for _, id := range s.catalog.Options() {
		d, _ := s.catalog.Lookup(id)
		marker := "  "
		if id == current {
			marker = "* "
		}
		stream := ""
		if !d.StreamSupported {
			stream = ", no streaming"
		}
		sb.WriteString(fmt.Sprintf("%s%s - %s (%d tokens, %s%s)\n", marker, id, d.Name, d.ContextLength, d.Type, stream))
	}
	return sb.String()
}

func (s *Session) systemMessage(args string) string {
	c, ok := s.store.Snapshot().CurrentChat()
	if !ok {
		return "No active chat."
	}
	hasSystem := len(c.Messages) > 0 && c.Messages[0].Role == llm.RoleSystem
	if args == "" {
		if !hasSystem {
			return "No system message."
		}
		return c.Messages[0].Text()
	}
	s.store.Update(func(snap *Snapshot) {
		chat := &snap.Chats[snap.Current]
		msg := llm.NewTextMessage(llm.RoleSystem, args)
		if hasSystem {
			chat.Messages[0] = msg
			return
		}
		chat.Messages = append([]llm.Message{msg}, chat.Messages...)
	})
	return "System message updated."
}

func (s *Session) title(args string) string {
	c, ok := s.store.Snapshot().CurrentChat()
	if !ok {
		return "No active chat."
	}
	if args == "" {
		return c.Title
	}
	s.store.Update(func(snap *Snapshot) {
		snap.Chats[snap.Current].Title = args
		snap.Chats[snap.Current].TitleSet = true
	})
	return fmt.Sprintf("Title set to: %s", args)
}

func (s *Session) showConfig() string {
	model := s.cfg.Model
	if c, ok := s.store.Snapshot().CurrentChat(); ok {
		model = c.Config.Model
	}
	key := "(not set)"
	if s.cfg.APIKey != "" {
		key = "(set)"
	}
	return fmt.Sprintf("Endpoint: %s\nAPI Key: %s\nModel: %s\nTitle Model: %s\nMax Tokens: %d\nTemperature: %.1f\nTop P: %.1f\nAuto Title: %v\nCount Tokens: %v\nLanguage: %s",
		s.cfg.Endpoint, key, model, s.cfg.TitleModel, s.cfg.MaxTokens, s.cfg.Temperature, s.cfg.TopP, s.cfg.AutoTitle, s.cfg.CountTotalTokens, s.cfg.Language)
}

func (s *Session) usage() string {
	ledger := s.store.Snapshot().Usage
	if len(ledger) == 0 {
		if !s.cfg.CountTotalTokens {
			return "Token counting is off. Start with --count-total-tokens to enable it."
		}
		return "No token usage recorded."
	}
	var sb strings.Builder
	total := decimal.Zero
	sb.WriteString("Token usage:\n")
	for _, model := range ledger.Models() {
		u := ledger[model]
		line := fmt.Sprintf("  %s: prompt %d, completion %d, images %d", model, u.PromptTokens, u.CompletionTokens, u.Images)
		if cost, ok := s.catalog.Cost(model); ok {
			c := cost.Of(u.PromptTokens, u.CompletionTokens, u.Images)
			total = total.Add(c)
			line += ", cost $" + c.StringFixed(4)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("Total cost: $" + total.StringFixed(4) + "\n")
	return sb.String()
}

func (s *Session) share() string {
	c, ok := s.store.Snapshot().CurrentChat()
	if !ok {
		return "No active chat."
	}
	conv := share.FromMessages(c.Messages)
	if len(conv.Items) == 0 {
		return "Nothing to share yet."
	}
	url, err := s.sharer.Submit(s.ctx, conv)
	if err != nil {
		return fmt.Sprintf("Error sharing chat: %v", err)
	}
	if s.copyText != nil {
		if err := s.copyText(url); err == nil {
			return fmt.Sprintf("Shared: %s (copied to clipboard)", url)
		}
		s.logger.Debug("copy to clipboard failed", "url", url)
	}
	return fmt.Sprintf("Shared: %s", url)
}
