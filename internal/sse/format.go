package sse

import (
	"encoding/json"
	"fmt"
)

// DoneRecord is the wire form of the terminal sentinel.
const DoneRecord = "data: " + Done + "\n\n"

// FormatData encodes v as a single "data:" record.
func FormatData(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	out := make([]byte, 0, len(payload)+8)
	out = append(out, "data: "...)
	out = append(out, payload...)
	out = append(out, "\n\n"...)
	return out, nil
}
