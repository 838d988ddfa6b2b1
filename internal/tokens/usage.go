package tokens

import (
	"maps"
	"slices"

	"github.com/tnglemongrass/gochat/internal/llm"
)

// Usage is the running token total of one model. Images counts the image
// parts sent in prompts, which are priced per image.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	Images           int
}

// Ledger maps model ids to their usage. Treat published ledgers as read-only
// and use With to derive an updated copy.
type Ledger map[string]Usage

// With returns a copy of l with one exchange added to model.
func (l Ledger) With(model string, prompt []llm.Message, completion llm.Message) Ledger {
	out := make(Ledger, len(l)+1)
	maps.Copy(out, l)

	u := out[model]
	u.PromptTokens += Count(prompt)
	u.CompletionTokens += Count([]llm.Message{completion})
	for _, m := range prompt {
		u.Images += m.Images()
	}
	out[model] = u
	return out
}

// Models returns the model ids of the ledger in sorted order.
func (l Ledger) Models() []string {
	return slices.Sorted(maps.Keys(l))
}
