package llm

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/tnglemongrass/gochat/internal/sse"
)

// BridgeOptions are the options handed to a host bridge.
type BridgeOptions struct {
	Model       string
	Stream      bool
	Temperature float64
	MaxTokens   int
}

// BridgeReply is the result of a non-streamed bridge call.
type BridgeReply struct {
	Text string
}

// BridgePart is one element of a streamed bridge call. Text may be empty.
type BridgePart struct {
	Text string
}

// Bridge is a host-provided chat capability used instead of HTTP for models
// carrying the bridge prefix.
type Bridge interface {
	Chat(ctx context.Context, messages []Message, testMode bool, opts BridgeOptions) (*BridgeReply, error)
	ChatStream(ctx context.Context, messages []Message, testMode bool, opts BridgeOptions) (iter.Seq2[BridgePart, error], error)
}

type hostBridge struct {
	bridge Bridge
	logger *slog.Logger
}

func (b hostBridge) options(cfg ModelConfig, stream bool) BridgeOptions {
	return BridgeOptions{
		Model:       cfg.Model,
		Stream:      stream,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

func (b hostBridge) complete(ctx context.Context, req Request) (*ChatCompletionResponse, error) {
	reply, err := b.bridge.Chat(ctx, CloneMessages(req.Messages), false, b.options(req.Config, false))
	if err != nil {
		return nil, fmt.Errorf("bridge chat: %w", err)
	}
	return &ChatCompletionResponse{
		Choices: []ChatCompletionChoice{{Message: ResponseMessage{Role: string(RoleAssistant), Content: reply.Text}}},
	}, nil
}

func (b hostBridge) stream(ctx context.Context, req Request) (*Stream, error) {
	parts, err := b.bridge.ChatStream(ctx, CloneMessages(req.Messages), false, b.options(req.Config, true))
	if err != nil {
		return nil, fmt.Errorf("bridge chat stream: %w", err)
	}
	pr, pw := io.Pipe()
	go func() {
		err := pumpParts(parts, pw)
		if err != nil {
			b.logger.Debug("bridge stream ended", "error", err)
		}
		pw.CloseWithError(err)
	}()
	return NewStream(pr), nil
}

// pumpParts writes each non-empty part as an SSE delta record followed by
// the terminal sentinel. A write error means the consumer closed its end;
// returning stops the iteration.
func pumpParts(parts iter.Seq2[BridgePart, error], w io.Writer) error {
	for part, err := range parts {
		if err != nil {
			return fmt.Errorf("bridge part: %w", err)
		}
		if part.Text == "" {
			continue
		}
		record, err := sse.FormatData(DeltaChunk(part.Text))
		if err != nil {
			return err
		}
		if _, err := w.Write(record); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, sse.DoneRecord)
	return err
}
