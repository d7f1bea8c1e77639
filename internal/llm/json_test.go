package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"score": 80}`,
			want:  `{"score": 80}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"score\": 80}\n```",
			want:  `{"score": 80}`,
		},
		{
			name:  "prose around object",
			input: `Here is the result: {"a": {"b": 1}} hope it helps`,
			want:  `{"a": {"b": 1}}`,
		},
		{
			name:  "no object",
			input: "no json here",
			want:  "",
		},
		{
			name:  "unbalanced braces",
			input: `{"a": 1`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.input))
		})
	}
}
