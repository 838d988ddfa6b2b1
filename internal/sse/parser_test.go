package sse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoRecords = "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"Hel\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"lo \\u00e9!\"}}]}\n\n" +
	": keep-alive\n\n" +
	"data: {\"choices\":[{\"delta\":{}}],\"usage\":{\"total_tokens\":3}}\n\n" +
	"data: [DONE]\n\n"

func contents(records []Record) []string {
	var out []string
	for _, r := range records {
		if c, ok := r.Content(); ok {
			out = append(out, c)
		}
	}
	return out
}

func payloadData(records []Record) []string {
	var out []string
	for _, r := range records {
		if r.Kind == KindPayload {
			out = append(out, r.Data)
		}
	}
	return out
}

// feed runs chunks through Parse the way a stream consumer does, carrying
// fragments forward.
func feed(chunks []string) ([]Record, bool) {
	var all []Record
	carry := ""
	for _, chunk := range chunks {
		res := Parse(carry + chunk)
		carry = ""
		for _, r := range res.Records {
			if r.Kind == KindFragment {
				carry += r.Data
				continue
			}
			all = append(all, r)
		}
		if res.Done {
			return all, true
		}
	}
	return all, false
}

func TestParseSingleRecordAndDone(t *testing.T) {
	res := Parse("data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n")
	require.Len(t, res.Records, 1)
	assert.Equal(t, KindPayload, res.Records[0].Kind)
	c, ok := res.Records[0].Content()
	assert.True(t, ok)
	assert.Equal(t, "Hi", c)
	assert.True(t, res.Done)
}

func TestParseSplitRecord(t *testing.T) {
	first := Parse("data: {\"cho")
	require.Len(t, first.Records, 1)
	assert.Equal(t, KindFragment, first.Records[0].Kind)
	assert.Equal(t, "data: {\"cho", first.Fragment())
	assert.False(t, first.Done)

	second := Parse(first.Fragment() + "ices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
	whole := Parse("data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
	assert.Equal(t, whole.Records, second.Records)
	assert.Equal(t, []string{"Hi"}, contents(second.Records))
}

func TestParseStopsAtDone(t *testing.T) {
	res := Parse("data: [DONE]\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"late\"}}]}\n\ntrailing")
	assert.True(t, res.Done)
	assert.Empty(t, res.Records)
}

func TestParseToleratesWhitespace(t *testing.T) {
	res := Parse("data:   {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}   \n\n")
	assert.Equal(t, []string{"x"}, contents(res.Records))

	res = Parse("data:[DONE]  \n\n")
	assert.True(t, res.Done)
}

func TestParseCRLF(t *testing.T) {
	res := Parse("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\r\n\r\ndata: [DONE]\r\n\r\n")
	assert.Equal(t, []string{"a"}, contents(res.Records))
	assert.True(t, res.Done)
}

func TestParseSkipsInvalidCompleteRecords(t *testing.T) {
	res := Parse("data: not json\n\ndata: 42\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, []string{"ok"}, contents(res.Records))
}

func TestParseIgnoresOtherFields(t *testing.T) {
	res := Parse("event: message\nid: 7\nretry: 100\ndata: {\"choices\":[{\"delta\":{\"content\":\"z\"}}]}\n\n")
	assert.Equal(t, []string{"z"}, contents(res.Records))
}

func TestParseSingleNewlineRecords(t *testing.T) {
	res := Flush("data: {\"choices\":[{\"delta\":{\"content\":\"Hi!\"}}]}\ndata: [DONE]\n")
	assert.Equal(t, []string{"Hi!"}, contents(res.Records))
	assert.True(t, res.Done)
}

func TestParseBlankInput(t *testing.T) {
	assert.Empty(t, Parse("").Records)
	assert.Empty(t, Parse("\n\n\n").Records)
}

func TestFlushTerminatesTail(t *testing.T) {
	res := Flush("data: {\"choices\":[{\"delta\":{\"content\":\"end\"}}]}")
	assert.Equal(t, []string{"end"}, contents(res.Records))

	res = Flush("data: {\"cho")
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.Skipped)
}

func TestContentOfNonTextPayload(t *testing.T) {
	r := Record{Kind: KindPayload, Data: `{"choices":[{"delta":{"role":"assistant"}}]}`}
	_, ok := r.Content()
	assert.False(t, ok)

	r = Record{Kind: KindFragment, Data: `{"choices":[{"delta":{"content":"x"}}]}`}
	_, ok = r.Content()
	assert.False(t, ok)
}

func TestSplitAtEveryByte(t *testing.T) {
	want, done := feed([]string{twoRecords})
	require.True(t, done)
	require.Len(t, want, 3)

	for i := 0; i <= len(twoRecords); i++ {
		got, done := feed([]string{twoRecords[:i], twoRecords[i:]})
		assert.True(t, done, "split at %d", i)
		assert.Equal(t, payloadData(want), payloadData(got), "split at %d", i)
	}
}

func TestSplitIntoManyChunks(t *testing.T) {
	want, _ := feed([]string{twoRecords})
	for size := 1; size <= 17; size++ {
		var chunks []string
		for i := 0; i < len(twoRecords); i += size {
			end := min(i+size, len(twoRecords))
			chunks = append(chunks, twoRecords[i:end])
		}
		got, done := feed(chunks)
		assert.True(t, done, "chunk size %d", size)
		assert.Equal(t, payloadData(want), payloadData(got), "chunk size %d", size)
		assert.Equal(t, "Hello é!", strings.Join(contents(got), ""))
	}
}

func TestFormatData(t *testing.T) {
	out, err := FormatData(map[string]any{"choices": []any{map[string]any{"delta": map[string]any{"content": "x\n"}}}})
	require.NoError(t, err)
	res := Parse(string(out) + DoneRecord)
	assert.Equal(t, []string{"x\n"}, contents(res.Records))
	assert.True(t, res.Done)
}
