package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "array on first fenced line",
			input:    "```[1, 2]\n```",
			expected: `[1, 2]`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before object",
			input:    "As requested, here is the JSON:\n{\"question\": \"Why?\"}",
			expected: `{"question": "Why?"}`,
		},
		{
			name:     "preamble before array",
			input:    "Here are the items:\n[{\"id\": 1}, {\"id\": 2}]",
			expected: `[{"id": 1}, {"id": 2}]`,
		},
		{
			name:     "trailing text",
			input:    "{\"key\": \"value\"}\n\nLet me know if you need anything else!",
			expected: `{"key": "value"}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"template": "Hello {name}!"}`,
			expected: `{"template": "Hello {name}!"}`,
		},
		{
			name:     "escaped quotes",
			input:    "Result: {\"message\": \"He said \\\"hello\\\"\"}",
			expected: `{"message": "He said \"hello\""}`,
		},
		{
			name:     "think block",
			input:    "<think>\nThe user wants {json}.\n</think>\n[{\"question\": \"Q\"}]",
			expected: `[{"question": "Q"}]`,
		},
		{
			name:     "fenced object",
			input:    "```json\n{\"questions\": []}\n```",
			expected: `{"questions": []}`,
		},
		{
			name:     "object wrapping an array",
			input:    `{"questions": [{"q": 1}]}`,
			expected: `{"questions": [{"q": 1}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	for _, input := range []string{"", "not json", "{unterminated", "I cannot help with that."} {
		_, err := ExtractJSON(input)
		assert.ErrorIs(t, err, ErrNoJSON, input)
	}
}
