// Package prompt holds the system prompt sent with every completion request.
package prompt

import (
	"fmt"
	"os"
	"strings"
)

// Default is the system prompt used when no override file is configured.
const Default = `
You are a helpful assistant. You may be provided with a list of available tools to help answer user questions.

### Tool Usage Rules:
1.  Examine the user's request to determine if any of the available tools can help.
2.  If a tool is needed and an appropriate one is available in the provided list, you MUST use that tool. Generate the necessary tool call request.
3.  ONLY use tools from the provided list. DO NOT invent or request tools that are not in the list.
4.  If NO tools are provided, OR if none of the provided tools are suitable for the user's request, OR if you can answer the request directly without tools, respond to the user directly without making a tool call.
5.  If you cannot fulfill the request because the necessary tools are missing or unsuitable, clearly state that you cannot complete the task due to the lack of appropriate tools. Do not attempt to make up an answer or use a non-existent tool.
6.  After receiving the result from a tool call, use that information to formulate your final response to the user.

### Response Format:
- Use Markdown for formatting when appropriate.
- Base your response on the information gathered, including any tool results.
- Ensure your final answer directly addresses the user's question.
`

// Load returns the prompt stored at path, or Default when path is empty or
// the file holds only whitespace. The prompt is read once at startup.
func Load(path string) (string, error) {
	if path == "" {
		return Default, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return Default, nil
	}
	return string(data), nil
}
