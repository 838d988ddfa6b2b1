// Package sse parses the Server-Sent Events stream of a chat-completion
// endpoint one network chunk at a time.
//
// Records are separated by a blank line. Only "data:" fields are read; the
// payload "[DONE]" terminates the stream. A chunk may end in the middle of a
// record: that tail is returned verbatim as a fragment and the caller
// prepends it to the next chunk.
package sse

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Done is the payload that terminates a chat-completion stream.
const Done = "[DONE]"

// Kind identifies what a Record holds.
type Kind int

const (
	// KindPayload is a complete record carrying a JSON object.
	KindPayload Kind = iota
	// KindFragment is an unterminated tail of the input.
	KindFragment
)

// Record is a single parse result.
type Record struct {
	Kind Kind
	// Data is the JSON object for payloads and the raw text for fragments.
	Data string
}

// Content returns choices[0].delta.content of a payload record. It reports
// false for fragments and for payloads without text (role headers, usage
// records and the like).
func (r Record) Content() (string, bool) {
	if r.Kind != KindPayload {
		return "", false
	}
	v := gjson.Get(r.Data, "choices.0.delta.content")
	if v.Type != gjson.String {
		return "", false
	}
	return v.Str, true
}

// Result is the outcome of parsing one buffer.
type Result struct {
	Records []Record
	// Done is set once the terminal sentinel was seen. Nothing after it is parsed.
	Done bool
	// Skipped counts complete records whose payload was not a JSON object.
	Skipped int
}

// Fragment returns the trailing fragment of the result, if any.
func (r Result) Fragment() string {
	if n := len(r.Records); n > 0 && r.Records[n-1].Kind == KindFragment {
		return r.Records[n-1].Data
	}
	return ""
}

// Parse splits buf into records. Complete records become payloads (or end
// the stream); the unterminated remainder becomes a fragment.
func Parse(buf string) Result {
	var res Result
	buf = strings.ReplaceAll(buf, "\r\n", "\n")
	for {
		i := strings.Index(buf, "\n\n")
		if i < 0 {
			break
		}
		block := buf[:i]
		buf = buf[i+2:]
		for _, payload := range payloads(block) {
			if payload == Done {
				res.Done = true
				return res
			}
			if !isObject(payload) {
				res.Skipped++
				continue
			}
			res.Records = append(res.Records, Record{Kind: KindPayload, Data: payload})
		}
	}
	if strings.TrimSpace(buf) != "" {
		res.Records = append(res.Records, Record{Kind: KindFragment, Data: buf})
	}
	return res
}

// Flush parses buf as the final input of a stream, treating an unterminated
// tail as a complete record.
func Flush(buf string) Result {
	res := Parse(buf + "\n\n")
	if n := len(res.Records); n > 0 && res.Records[n-1].Kind == KindFragment {
		res.Records = res.Records[:n-1]
	}
	return res
}

// payloads extracts the data of one record. Multiple data lines are joined
// per the SSE rules; when the joined value is not valid JSON each line is
// tried on its own, which covers upstreams that separate records by a single
// newline.
func payloads(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, ok := strings.Cut(line, ":")
		if !ok || field != "data" {
			continue
		}
		lines = append(lines, strings.TrimSpace(strings.TrimPrefix(value, " ")))
	}
	switch len(lines) {
	case 0:
		return nil
	case 1:
		return lines
	}
	joined := strings.TrimSpace(strings.Join(lines, "\n"))
	if gjson.Valid(joined) {
		return []string{joined}
	}
	return lines
}

func isObject(payload string) bool {
	return gjson.Valid(payload) && gjson.Parse(payload).IsObject()
}
