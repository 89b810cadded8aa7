package translate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/chatrelay/internal/types"
	"github.com/user/chatrelay/pkg/llm"
)

func str(s string) *string { return &s }

func toolCall(id, name, args string) types.ToolCall {
	return types.ToolCall{
		ID:       id,
		Type:     "function",
		Function: types.FunctionCall{Name: name, ArgumentsJSON: args},
	}
}

func wire(t *testing.T, msgs []llm.Message) string {
	t.Helper()
	data, err := json.Marshal(msgs)
	require.NoError(t, err)
	return string(data)
}

func TestNormalize_UserAndSystemIdentity(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleSystem, Content: str("be brief")},
		{Role: types.RoleUser, Content: str("hello")},
		{Role: types.RoleUser, Content: nil},
		{Role: types.RoleSystem, Content: nil},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"role":"system","content":"be brief"},
		{"role":"user","content":"hello"},
		{"role":"user","content":""},
		{"role":"system","content":""}
	]`, wire(t, out))
}

func TestNormalize_AssistantTextOnlyIsBareString(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleAssistant, Content: str("sure")},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"assistant","content":"sure"}]`, wire(t, out))
}

func TestNormalize_AssistantSingleToolCall(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleAssistant, Content: nil, ToolCalls: []types.ToolCall{
			toolCall("call_1", "search", `{"q":"go"}`),
		}},
	})
	require.NoError(t, err)

	require.Len(t, out[0].Parts, 1)
	assert.Equal(t, llm.PartToolCall, out[0].Parts[0].Type)
	assert.JSONEq(t, `[{"role":"assistant","content":[
		{"type":"tool-call","toolCallId":"call_1","toolName":"search","args":{"q":"go"}}
	]}]`, wire(t, out))
}

func TestNormalize_AssistantEmptyContentSkipsTextPart(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleAssistant, Content: str(""), ToolCalls: []types.ToolCall{
			toolCall("call_1", "search", `{}`),
		}},
	})
	require.NoError(t, err)
	require.Len(t, out[0].Parts, 1)
	assert.Equal(t, llm.PartToolCall, out[0].Parts[0].Type)
}

func TestNormalize_AssistantTextAndTwoToolCalls(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleAssistant, Content: str("on it"), ToolCalls: []types.ToolCall{
			toolCall("a", "first", `{"n":1}`),
			toolCall("b", "second", `[1,2]`),
		}},
	})
	require.NoError(t, err)

	parts := out[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, llm.PartText, parts[0].Type)
	assert.Equal(t, "a", parts[1].ToolCallID)
	assert.Equal(t, "b", parts[2].ToolCallID)
	assert.JSONEq(t, `[{"role":"assistant","content":[
		{"type":"text","text":"on it"},
		{"type":"tool-call","toolCallId":"a","toolName":"first","args":{"n":1}},
		{"type":"tool-call","toolCallId":"b","toolName":"second","args":[1,2]}
	]}]`, wire(t, out))
}

func TestNormalize_AssistantNothingIsEmptyList(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{{Role: types.RoleAssistant}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"assistant","content":[]}]`, wire(t, out))
}

func TestNormalize_ToolResultParsed(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleTool, Content: str(`{"ok":true}`), ToolCallID: str("call_1"), Name: str("search")},
	})
	require.NoError(t, err)

	result := out[0].Parts[0].Result
	assert.Equal(t, llm.ToolResultJSON, result.Kind)
	assert.JSONEq(t, `[{"role":"tool","content":[
		{"type":"tool-result","toolCallId":"call_1","toolName":"search","result":{"ok":true}}
	]}]`, wire(t, out))
}

func TestNormalize_ToolResultRawTextFallback(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleTool, Content: str("not json")},
	})
	require.NoError(t, err)

	result := out[0].Parts[0].Result
	assert.Equal(t, llm.ToolResultText, result.Kind)
	assert.Equal(t, "not json", result.Text)
	assert.JSONEq(t, `[{"role":"tool","content":[
		{"type":"tool-result","toolCallId":"","toolName":"","result":"not json"}
	]}]`, wire(t, out))
}

func TestNormalize_ToolResultNullContent(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleTool, Content: nil, ToolCallID: str("c")},
		{Role: types.RoleTool, Content: str("")},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"role":"tool","content":[{"type":"tool-result","toolCallId":"c","toolName":"","result":null}]},
		{"role":"tool","content":[{"type":"tool-result","toolCallId":"","toolName":"","result":null}]}
	]`, wire(t, out))
}

func TestNormalize_UnknownRole(t *testing.T) {
	_, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleUser, Content: str("hi")},
		{Role: "BOGUS", Content: str("?")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownRole))
	assert.Equal(t, "unknown messages role: BOGUS", err.Error())
}

func TestNormalize_MalformedArgumentsIsFatal(t *testing.T) {
	_, err := NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{toolCall("call_9", "f", `{"a":`)}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedArguments))
	assert.Contains(t, err.Error(), "call_9")

	_, err = NormalizeMessages([]types.ChatMessage{
		{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{toolCall("call_10", "f", "")}},
	})
	assert.True(t, errors.Is(err, ErrMalformedArguments))
}

func TestNormalize_PreservesOrderAndLength(t *testing.T) {
	in := []types.ChatMessage{
		{Role: types.RoleSystem, Content: str("s")},
		{Role: types.RoleUser, Content: str("u")},
		{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{toolCall("1", "f", `{}`)}},
		{Role: types.RoleTool, Content: str("r"), ToolCallID: str("1")},
		{Role: types.RoleAssistant, Content: str("a")},
	}
	out, err := NormalizeMessages(in)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	roles := make([]llm.Role, len(out))
	for i, m := range out {
		roles[i] = m.Role
	}
	assert.Equal(t, []llm.Role{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleTool, llm.RoleAssistant}, roles)
}

func TestNormalize_Empty(t *testing.T) {
	out, err := NormalizeMessages([]types.ChatMessage{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParseToolResult(t *testing.T) {
	assert.Equal(t, llm.ToolResultJSON, ParseToolResult(str("42")).Kind)
	assert.Equal(t, llm.ToolResultJSON, ParseToolResult(str(` ["x"] `)).Kind)
	assert.Equal(t, llm.ToolResultText, ParseToolResult(str("{oops")).Kind)
	assert.Equal(t, llm.ToolResultJSON, ParseToolResult(nil).Kind)
	assert.Nil(t, ParseToolResult(nil).Value)
}
