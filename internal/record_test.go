package internal

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord_BlankLines(t *testing.T) {
	for _, line := range []string{"", "   ", "\t\r\n"} {
		rec, ok, err := DecodeRecord([]byte(line))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, rec)
	}
}

func TestDecodeRecord_ValidJSONNeverFails(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty object", `{}`},
		{"user string content", `{"type":"user","message":{"role":"user","content":"hi"}}`},
		{"mistyped timestamp", `{"type":"user","timestamp":12345}`},
		{"mistyped type", `{"type":["user"]}`},
		{"mistyped message", `{"type":"assistant","message":"not an object"}`},
		{"mistyped content", `{"type":"user","message":{"content":42}}`},
		{"null everything", `{"type":null,"timestamp":null,"sessionId":null,"message":null}`},
		{"array top level", `[1,2,3]`},
		{"scalar top level", `"just a string"`},
		{"number top level", `42`},
		{"unknown block type", `{"type":"assistant","message":{"content":[{"type":"hologram","data":"x"}]}}`},
		{"non-object block", `{"type":"assistant","message":{"content":[7, null, true]}}`},
		{"usage mistyped", `{"type":"assistant","message":{"usage":"lots"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok, err := DecodeRecord([]byte(tt.line))
			require.NoError(t, err)
			require.True(t, ok)
			require.NotNil(t, rec)
			assert.JSONEq(t, tt.line, string(rec.Raw))
		})
	}
}

func TestDecodeRecord_MalformedLines(t *testing.T) {
	tests := []string{
		`{"type":"user"`,
		`{"type":"user","message":{"content":"unterminated}`,
		`{"bad escape":"\q"}`,
		`not json at all`,
		`{"a":1}}`,
	}

	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			rec, ok, err := DecodeRecord([]byte(line))
			require.Error(t, err)
			assert.False(t, ok)
			assert.Nil(t, rec)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.GreaterOrEqual(t, decodeErr.Offset, int64(0))
		})
	}
}

func TestDecodeRecord_NamedFields(t *testing.T) {
	line := `{"type":"assistant","timestamp":"2025-01-02T03:04:05Z","sessionId":"abc-123",` +
		`"uuid":"u-1","cwd":"/work","message":{"role":"assistant","model":"claude-x",` +
		`"usage":{"input_tokens":10,"output_tokens":20,"cache_read_input_tokens":3},` +
		`"id":"msg_1","content":[{"type":"text","text":"hello"}]}}`

	rec, ok, err := DecodeRecord([]byte(line))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, RecordAssistant, rec.RecordType)
	assert.Equal(t, "2025-01-02T03:04:05Z", rec.Timestamp)
	assert.Equal(t, "abc-123", rec.SessionID)
	require.NotNil(t, rec.Message)
	assert.Equal(t, "assistant", rec.Message.Role)
	assert.Equal(t, "claude-x", rec.Message.Model)
	require.NotNil(t, rec.Message.Usage)
	assert.Equal(t, int64(10), rec.Message.Usage.InputTokens)
	assert.Equal(t, int64(20), rec.Message.Usage.OutputTokens)
	assert.Equal(t, int64(3), rec.Message.Usage.CacheReadInputTokens)
	assert.True(t, rec.Message.HasContent)
	require.Len(t, rec.Message.Content, 1)
	assert.Equal(t, "hello", rec.Message.Content[0].Text)

	assert.Equal(t, json.RawMessage(`"u-1"`), rec.Unrecognized["uuid"])
	assert.Equal(t, json.RawMessage(`"/work"`), rec.Unrecognized["cwd"])
	assert.NotContains(t, rec.Unrecognized, "type")
	assert.NotContains(t, rec.Unrecognized, "message")
	assert.Equal(t, json.RawMessage(`"msg_1"`), rec.Message.Extra["id"])
}

func TestDecodeRecord_MistypedFieldsDemoted(t *testing.T) {
	line := `{"type":"user","timestamp":1700000000,"sessionId":false,"message":{"role":7,"content":"hi"}}`

	rec, ok, err := DecodeRecord([]byte(line))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, RecordUser, rec.RecordType)
	assert.Empty(t, rec.Timestamp)
	assert.Empty(t, rec.SessionID)
	assert.Equal(t, json.RawMessage(`1700000000`), rec.Unrecognized["timestamp"])
	assert.Equal(t, json.RawMessage(`false`), rec.Unrecognized["sessionId"])

	require.NotNil(t, rec.Message)
	assert.Empty(t, rec.Message.Role)
	assert.Equal(t, json.RawMessage(`7`), rec.Message.Extra["role"])
	require.Len(t, rec.Message.Content, 1)
	assert.Equal(t, "hi", rec.Message.Content[0].Text)
}

func TestDecodeRecord_NonObjectMessageKept(t *testing.T) {
	rec, ok, err := DecodeRecord([]byte(`{"type":"user","message":"plain"}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, rec.Message)
	assert.Equal(t, json.RawMessage(`"plain"`), rec.Unrecognized["message"])
}

func TestDecodeRecord_ContentBlocks(t *testing.T) {
	line := `{"type":"assistant","message":{"role":"assistant","content":[` +
		`{"type":"text","text":"answer"},` +
		`{"type":"thinking","thinking":"pondering"},` +
		`{"type":"tool_use","id":"tu_1","name":"Bash","input":{"command":"ls"}},` +
		`{"type":"tool_result","tool_use_id":"tu_1","is_error":true,"content":[{"type":"text","text":"boom"}]},` +
		`{"type":"image","source":{"type":"base64","data":"AAAA"}},` +
		`{"type":"document","source":{}},` +
		`{"type":"hologram","payload":1}` +
		`]}}`

	rec, ok, err := DecodeRecord([]byte(line))
	require.NoError(t, err)
	require.True(t, ok)
	blocks := rec.Message.Content
	require.Len(t, blocks, 7)

	assert.Equal(t, BlockText, blocks[0].Kind)
	assert.Equal(t, "answer", blocks[0].Text)

	assert.Equal(t, BlockThinking, blocks[1].Kind)
	assert.Equal(t, "pondering", blocks[1].Text)

	assert.Equal(t, BlockToolUse, blocks[2].Kind)
	assert.Equal(t, "Bash", blocks[2].ToolName)
	assert.Equal(t, "tu_1", blocks[2].ToolUseID)
	assert.JSONEq(t, `{"command":"ls"}`, string(blocks[2].ToolInput))

	assert.Equal(t, BlockToolResult, blocks[3].Kind)
	assert.Equal(t, "tu_1", blocks[3].ToolUseID)
	require.NotNil(t, blocks[3].IsError)
	assert.True(t, *blocks[3].IsError)
	assert.Equal(t, "boom", blocks[3].Text)

	assert.Equal(t, BlockImage, blocks[4].Kind)
	assert.True(t, blocks[4].IsBinary())
	assert.Equal(t, BlockDocument, blocks[5].Kind)

	assert.Equal(t, BlockUnknown, blocks[6].Kind)
	assert.Equal(t, "hologram", blocks[6].Type)
	assert.JSONEq(t, `{"type":"hologram","payload":1}`, string(blocks[6].Raw))
}

func TestDecodeRecord_RawIsCopied(t *testing.T) {
	buf := []byte(`{"type":"user"}`)
	rec, _, err := DecodeRecord(buf)
	require.NoError(t, err)
	buf[2] = 'X'
	assert.Equal(t, `{"type":"user"}`, string(rec.Raw))
}

func TestFlattenToolResult(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"ok"`, "ok"},
		{"text array", `[{"type":"text","text":"a"},{"type":"image"},{"type":"text","text":"b"}]`, "a\nb"},
		{"null", `null`, ""},
		{"object", `{ "k" : 1 }`, `{"k":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flattenToolResult(json.RawMessage(tt.raw)))
		})
	}
}

func TestBoolField_RejectsNull(t *testing.T) {
	fields := map[string]json.RawMessage{"a": json.RawMessage(`null`), "b": json.RawMessage(`false`)}
	_, ok := boolField(fields, "a")
	assert.False(t, ok)
	v, ok := boolField(fields, "b")
	assert.True(t, ok)
	assert.False(t, v)
}
