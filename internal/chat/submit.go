package chat

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/tnglemongrass/gochat/internal/i18n"
	"github.com/tnglemongrass/gochat/internal/llm"
	"github.com/tnglemongrass/gochat/internal/logger"
	"github.com/tnglemongrass/gochat/internal/models"
	"github.com/tnglemongrass/gochat/internal/sse"
	"github.com/tnglemongrass/gochat/internal/tokens"
)

// State is the phase of a submission.
type State int32

const (
	StateIdle State = iota
	StatePreparing
	StateStreaming
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	}
	return "unknown"
}

// Completer issues completion requests. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.ChatCompletionResponse, error)
	CompleteStream(ctx context.Context, req llm.Request) (*llm.Stream, error)
	IsBridgeModel(model string) bool
}

// Options are the account-wide settings of a Submitter.
type Options struct {
	Endpoint string
	APIKey   string
	Headers  map[string]string
	// DefaultConfig is used for titles when no API key is set.
	DefaultConfig    llm.ModelConfig
	TitleModel       string
	AutoTitle        bool
	CountTotalTokens bool
	Language         string

	// Catalog, when set, routes models without stream support through a
	// single non-streamed completion.
	Catalog *models.Catalog
	Logger  *slog.Logger
}

// Submitter drives the "send message" action of a Store.
type Submitter struct {
	store   *Store
	client  Completer
	opts    Options
	catalog *models.Catalog
	printer *i18n.Printer
	logger  *slog.Logger

	state   atomic.Int32
	active  atomic.Bool
	current atomic.Pointer[llm.Stream]
}

// NewSubmitter returns a Submitter working on store.
func NewSubmitter(store *Store, client Completer, opts Options) *Submitter {
	s := &Submitter{
		store:   store,
		client:  client,
		opts:    opts,
		catalog: opts.Catalog,
		printer: i18n.NewPrinter(opts.Language),
		logger:  opts.Logger,
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	return s
}

// State returns the current phase.
func (s *Submitter) State() State {
	return State(s.state.Load())
}

func (s *Submitter) setState(st State) {
	s.state.Store(int32(st))
	s.logger.Debug("submission state", "state", st)
}

// Stop is the "stop generating" action. The running submission keeps the
// text received so far and proceeds to finalizing.
func (s *Submitter) Stop() {
	s.store.SetGenerating(false)
	if st := s.current.Load(); st != nil {
		_ = st.Cancel(s.printer.Text(i18n.CancelledByUser))
	}
}

// Submit requests a reply to the active chat and streams it into a new
// assistant message. It returns nil at once when a submission is already
// running. Errors are also published in the store's error slot as a
// *UserError message.
func (s *Submitter) Submit(ctx context.Context) error {
	if s.store.Generating() || !s.active.CompareAndSwap(false, true) {
		return nil
	}
	defer s.active.Store(false)

	snap := s.store.Snapshot()
	idx := snap.Current
	chat, ok := snap.CurrentChat()
	if !ok {
		return s.fail(ErrNoMessages)
	}

	s.store.Update(func(next *Snapshot) {
		next.Error = ""
		c := &next.Chats[idx]
		c.Messages = append(c.Messages, llm.NewTextMessage(llm.RoleAssistant, ""))
	})
	s.store.SetGenerating(true)
	defer func() {
		s.store.SetGenerating(false)
		s.setState(StateIdle)
	}()

	if err := s.run(ctx, idx, chat); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Submitter) fail(err error) error {
	uerr := &UserError{Message: describe(s.printer, err), Err: err}
	s.logger.Warn("submission failed", "error", err)
	s.store.SetError(uerr.Message)
	return uerr
}

// run executes one submission. chat is the active chat as it was before the
// placeholder was appended.
func (s *Submitter) run(ctx context.Context, idx int, chat Chat) error {
	s.setState(StatePreparing)
	if len(chat.Messages) == 0 {
		return ErrNoMessages
	}
	messages := tokens.Limit(chat.Messages, chat.Config.MaxTokens)
	if len(messages) == 0 {
		return ErrExceedMaxToken
	}

	req := llm.Request{
		Endpoint: s.opts.Endpoint,
		Messages: messages,
		Config:   chat.Config,
		APIKey:   s.opts.APIKey,
		Headers:  s.opts.Headers,
	}

	s.setState(StateStreaming)
	if s.catalog != nil && s.catalog.Has(chat.Config.Model) && !s.catalog.StreamSupported(chat.Config.Model) {
		if err := s.completeOnce(ctx, idx, req); err != nil {
			return err
		}
	} else if err := s.stream(ctx, idx, req); err != nil {
		return err
	}

	s.setState(StateFinalizing)
	return s.finalize(ctx, idx)
}

func (s *Submitter) completeOnce(ctx context.Context, idx int, req llm.Request) error {
	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return err
	}
	content, err := resp.Content()
	if err != nil {
		return err
	}
	s.appendText(idx, content)
	return nil
}

func (s *Submitter) stream(ctx context.Context, idx int, req llm.Request) error {
	stream, err := s.client.CompleteStream(ctx, req)
	if err != nil {
		return err
	}
	if stream.Locked() {
		return llm.ErrStreamLocked
	}
	reader, err := stream.Reader()
	if err != nil {
		return err
	}
	s.current.Store(stream)
	defer s.current.Store(nil)

	var carry string
	reading := true
	for reading && s.store.Generating() {
		chunk, done, err := reader.Read()
		if err != nil {
			reader.ReleaseLock()
			_ = stream.Cancel(err.Error())
			return err
		}

		var res sse.Result
		if done {
			res = sse.Flush(carry + string(chunk))
			reading = false
		} else {
			res = sse.Parse(carry + string(chunk))
		}
		carry = ""
		if res.Done {
			reading = false
		}
		if res.Skipped > 0 {
			s.logger.Debug("skipped invalid stream records", "count", res.Skipped)
		}

		for _, rec := range res.Records {
			if rec.Kind == sse.KindFragment {
				carry += rec.Data
				continue
			}
			if !s.store.Generating() {
				break
			}
			if content, ok := rec.Content(); ok && content != "" {
				s.appendText(idx, content)
			}
		}
	}

	reason := s.printer.Text(i18n.GenerationCompleted)
	if !s.store.Generating() {
		reason = s.printer.Text(i18n.CancelledByUser)
	}
	_ = reader.Cancel(reason)
	reader.ReleaseLock()
	_ = stream.Cancel(reason)
	return nil
}

func (s *Submitter) appendText(idx int, text string) {
	s.store.Update(func(next *Snapshot) {
		if idx >= len(next.Chats) {
			return
		}
		msgs := next.Chats[idx].Messages
		if len(msgs) == 0 {
			return
		}
		msgs[len(msgs)-1].AppendText(text)
	})
}

func (s *Submitter) finalize(ctx context.Context, idx int) error {
	snap := s.store.Snapshot()
	if idx >= len(snap.Chats) {
		return nil
	}
	chat := snap.Chats[idx]
	msgs := chat.Messages

	if s.opts.CountTotalTokens && len(msgs) > 0 {
		s.store.AddUsage(chat.Config.Model, msgs[:len(msgs)-1], msgs[len(msgs)-1])
	}

	if !s.opts.AutoTitle || chat.TitleSet || len(msgs) < 2 {
		return nil
	}

	titleMsg := titleRequest(msgs[len(msgs)-2], msgs[len(msgs)-1], s.opts.Language)
	title, model, err := s.generateTitle(ctx, []llm.Message{titleMsg}, chat.Config)
	if err != nil {
		return err
	}
	s.store.Update(func(next *Snapshot) {
		if idx < len(next.Chats) {
			next.Chats[idx].Title = title
			next.Chats[idx].TitleSet = true
		}
	})
	if s.opts.CountTotalTokens {
		s.store.AddUsage(model, []llm.Message{titleMsg}, llm.NewTextMessage(llm.RoleAssistant, title))
	}
	return nil
}
