package cv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTitleCase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "mixed case with irregular spacing",
			input: "jUan   PÉREZ",
			want:  "Juan Pérez",
		},
		{
			name:  "already canonical",
			input: "Juan Pérez",
			want:  "Juan Pérez",
		},
		{
			name:  "all caps",
			input: "MARÍA JOSÉ GARCÍA",
			want:  "María José García",
		},
		{
			name:  "leading and trailing whitespace",
			input: "  ana maría  ",
			want:  "Ana María",
		},
		{
			name:  "single token",
			input: "gonzález",
			want:  "González",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToTitleCase(tt.input))
		})
	}
}

func TestToTitleCaseIdempotent(t *testing.T) {
	// The normalized form is the dedup key; normalizing twice must not drift.
	input := "jUan   PÉREZ"
	once := ToTitleCase(input)
	assert.Equal(t, once, ToTitleCase(once))
}

func TestNormalizeName(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, NormalizeName(nil))
	})

	t.Run("empty collapses to nil", func(t *testing.T) {
		empty := "   "
		assert.Nil(t, NormalizeName(&empty))
	})

	t.Run("normalizes in place", func(t *testing.T) {
		raw := "pedro LÓPEZ"
		got := NormalizeName(&raw)
		require.NotNil(t, got)
		assert.Equal(t, "Pedro López", *got)
	})
}

func TestPlaceholderName(t *testing.T) {
	a := PlaceholderName()
	b := PlaceholderName()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b, "placeholders must never collide")
	assert.True(t, strings.HasPrefix(a, "Candidato "))
}
