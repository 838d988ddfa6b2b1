package chat

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tnglemongrass/gochat/internal/llm"
	"github.com/tnglemongrass/gochat/internal/tokens"
)

// DefaultTitle is the title of a chat before one is set or generated.
const DefaultTitle = "New Chat"

// Chat is one conversation.
type Chat struct {
	ID       string
	Title    string
	TitleSet bool
	Messages []llm.Message
	Config   llm.ModelConfig
}

// NewChat returns an empty chat. A non-empty systemMessage becomes its
// first message.
func NewChat(cfg llm.ModelConfig, systemMessage string) Chat {
	c := Chat{
		ID:     uuid.NewString(),
		Title:  DefaultTitle,
		Config: cfg,
	}
	if systemMessage != "" {
		c.Messages = []llm.Message{llm.NewTextMessage(llm.RoleSystem, systemMessage)}
	}
	return c
}

// Clone returns a deep copy of the chat.
func (c Chat) Clone() Chat {
	c.Messages = llm.CloneMessages(c.Messages)
	return c
}

// Snapshot is the published state of a Store. Snapshots are never modified
// after publication; treat every field as read-only.
type Snapshot struct {
	Chats   []Chat
	Current int
	Usage   tokens.Ledger
	Error   string
}

// CurrentChat returns the active chat.
func (s *Snapshot) CurrentChat() (Chat, bool) {
	if s.Current < 0 || s.Current >= len(s.Chats) {
		return Chat{}, false
	}
	return s.Chats[s.Current], true
}

func (s *Snapshot) clone() *Snapshot {
	out := &Snapshot{
		Chats:   make([]Chat, len(s.Chats)),
		Current: s.Current,
		Usage:   s.Usage,
		Error:   s.Error,
	}
	for i, c := range s.Chats {
		out.Chats[i] = c.Clone()
	}
	return out
}

// Store holds the chat collection. Every update deep-copies the current
// snapshot, applies the change to the copy and publishes it in one step,
// so readers see each update entirely or not at all.
type Store struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]

	generating atomic.Bool

	obsMu     sync.Mutex
	observers map[int]func(*Snapshot)
	nextObs   int
}

// NewStore returns a store holding chats, with the first one active.
func NewStore(chats ...Chat) *Store {
	s := &Store{observers: make(map[int]func(*Snapshot))}
	snap := &Snapshot{Usage: tokens.Ledger{}}
	for _, c := range chats {
		snap.Chats = append(snap.Chats, c.Clone())
	}
	s.snapshot.Store(snap)
	return s
}

// Snapshot returns the current published state.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Update applies fn to a copy of the current state and publishes the copy.
// Observers run on the caller's goroutine after publication and must not
// call Update themselves.
func (s *Store) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot.Load().clone()
	fn(next)
	s.snapshot.Store(next)
	s.notify(next)
}

// Subscribe registers fn to be called with every published snapshot. The
// returned function removes it.
func (s *Store) Subscribe(fn func(*Snapshot)) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) notify(snap *Snapshot) {
	s.obsMu.Lock()
	fns := make([]func(*Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Generating reports whether a submission is streaming.
func (s *Store) Generating() bool {
	return s.generating.Load()
}

// SetGenerating sets the generating flag. Clearing it while a submission
// streams stops that submission at its next read.
func (s *Store) SetGenerating(v bool) {
	s.generating.Store(v)
}

// SetError publishes msg in the error slot.
func (s *Store) SetError(msg string) {
	s.Update(func(snap *Snapshot) { snap.Error = msg })
}

// AddUsage adds one exchange to the token usage of model.
func (s *Store) AddUsage(model string, prompt []llm.Message, completion llm.Message) {
	s.Update(func(snap *Snapshot) {
		snap.Usage = snap.Usage.With(model, prompt, completion)
	})
}
