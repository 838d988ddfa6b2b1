package chat

import (
	"errors"

	"github.com/tnglemongrass/gochat/internal/i18n"
	"github.com/tnglemongrass/gochat/internal/llm"
)

var (
	// ErrNoMessages is returned when the active chat has no messages.
	ErrNoMessages = errors.New("no messages submitted")
	// ErrExceedMaxToken is returned when no message fits the token budget.
	ErrExceedMaxToken = errors.New("message exceeds max token")
	// ErrNoAPIKey is returned when a title is requested from the official
	// endpoint without an API key.
	ErrNoAPIKey = errors.New("no API key supplied")
)

// TitleError wraps a failed title request.
type TitleError struct {
	Err error
}

func (e *TitleError) Error() string { return "generate title: " + e.Err.Error() }
func (e *TitleError) Unwrap() error { return e.Err }

// UserError is an error as shown to the user, in the configured language.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Err }

func describe(p *i18n.Printer, err error) string {
	var te *TitleError
	if errors.As(err, &te) {
		return p.Text(i18n.ErrorGeneratingTitle) + "\n" + describe(p, te.Err)
	}
	switch {
	case errors.Is(err, ErrNoMessages):
		return p.Text(i18n.NoMessagesSubmitted)
	case errors.Is(err, ErrExceedMaxToken):
		return p.Text(i18n.MessageExceedMaxToken)
	case errors.Is(err, ErrNoAPIKey):
		return p.Text(i18n.NoAPIKeyWarning)
	case errors.Is(err, llm.ErrStreamLocked):
		return p.Text(i18n.StreamLocked)
	case errors.Is(err, llm.ErrNoBridge):
		return p.Text(i18n.NoBridge)
	}
	return err.Error()
}
