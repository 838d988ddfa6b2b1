package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Modality is the input type a model accepts.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Price is the cost of Unit items (tokens or images).
type Price struct {
	Price decimal.Decimal
	Unit  int64
}

// For returns the cost of n items.
func (p Price) For(n int) decimal.Decimal {
	unit := p.Unit
	if unit <= 0 {
		unit = 1
	}
	return p.Price.Mul(decimal.NewFromInt(int64(n))).Div(decimal.NewFromInt(unit))
}

// Cost groups the prices of one model.
type Cost struct {
	Prompt     Price
	Completion Price
	Image      Price
}

// Of returns the total cost of the given amounts.
func (c Cost) Of(prompt, completion, images int) decimal.Decimal {
	return c.Prompt.For(prompt).Add(c.Completion.For(completion)).Add(c.Image.For(images))
}

// Descriptor describes one model. It is immutable once in a Catalog.
type Descriptor struct {
	ID              string
	Name            string
	ContextLength   int
	Type            Modality
	StreamSupported bool
	Cost            Cost
}

// Entry is one model in a models.json registry (OpenRouter layout) or in
// the built-in table. Prices are decimal strings per token.
type Entry struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	ContextLength int    `json:"context_length" yaml:"context_length"`
	Type          string `json:"type,omitempty" yaml:"type"`
	Pricing       struct {
		Prompt     string `json:"prompt" yaml:"prompt"`
		Completion string `json:"completion" yaml:"completion"`
		Image      string `json:"image" yaml:"image"`
		Request    string `json:"request" yaml:"request"`
	} `json:"pricing" yaml:"pricing"`
	Architecture struct {
		Modality string `json:"modality" yaml:"modality"`
	} `json:"architecture" yaml:"architecture"`
	// StreamSupported defaults to true when the registry omits it.
	StreamSupported *bool `json:"is_stream_supported,omitempty" yaml:"is_stream_supported"`
}

// Registry is the top-level layout of models.json.
type Registry struct {
	Data []Entry `json:"data" yaml:"data"`
}

// Descriptor converts the entry. The modality comes from Type when set and
// from the architecture's input side ("text+image->text") otherwise.
func (e Entry) Descriptor() (Descriptor, error) {
	if e.ID == "" {
		return Descriptor{}, fmt.Errorf("model entry without id")
	}
	var cost Cost
	for _, p := range []struct {
		raw string
		dst *Price
	}{
		{e.Pricing.Prompt, &cost.Prompt},
		{e.Pricing.Completion, &cost.Completion},
		{e.Pricing.Image, &cost.Image},
	} {
		price, err := parsePrice(p.raw)
		if err != nil {
			return Descriptor{}, fmt.Errorf("model %s: %w", e.ID, err)
		}
		*p.dst = Price{Price: price, Unit: 1}
	}

	modality := Modality(e.Type)
	if modality == "" {
		modality = ModalityText
		input, _, _ := strings.Cut(e.Architecture.Modality, "->")
		if strings.Contains(input, "image") {
			modality = ModalityImage
		}
	}

	stream := true
	if e.StreamSupported != nil {
		stream = *e.StreamSupported
	}

	name := e.Name
	if name == "" {
		name = e.ID
	}
	return Descriptor{
		ID:              e.ID,
		Name:            name,
		ContextLength:   e.ContextLength,
		Type:            modality,
		StreamSupported: stream,
		Cost:            cost,
	}, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}

// Descriptors converts every entry of the registry.
func (r Registry) Descriptors() ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(r.Data))
	for _, e := range r.Data {
		d, err := e.Descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
