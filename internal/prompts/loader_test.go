package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ComplaintPrompts(t *testing.T) {
	ClearCache()

	for _, key := range []string{"analysis", "generation", "refine", "clarify", "follow_up"} {
		prompt, err := Get(ComplaintFile, key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, prompt, key)
	}
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(ComplaintFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestList(t *testing.T) {
	keys, err := List(ComplaintFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"analysis", "clarify", "follow_up", "generation", "refine"}, keys)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{
			name:     "single placeholder",
			template: "Category: {{.Category}}",
			data:     map[string]string{"Category": "Cybercrime"},
			expected: "Category: Cybercrime",
		},
		{
			name:     "repeated placeholder",
			template: "{{.Portal}} and again {{.Portal}}",
			data:     map[string]string{"Portal": "pgportal.gov.in"},
			expected: "pgportal.gov.in and again pgportal.gov.in",
		},
		{
			name:     "missing value left as is",
			template: "{{.Problem}} {{.Unknown}}",
			data:     map[string]string{"Problem": "Pothole"},
			expected: "Pothole {{.Unknown}}",
		},
		{
			name:     "placeholder text in a value is not expanded",
			template: "Q: {{.Question}} D: {{.Draft}}",
			data:     map[string]string{"Question": "what is {{.Draft}}?", "Draft": "secret"},
			expected: "Q: what is {{.Draft}}? D: secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.template, tt.data))
		})
	}
}

func TestComplaintPrompts_Placeholders(t *testing.T) {
	ClearCache()

	generation := MustGet(ComplaintFile, "generation")
	for _, ph := range []string{"{{.Category}}", "{{.Portal}}", "{{.PortalID}}", "{{.Problem}}"} {
		assert.Contains(t, generation, ph)
	}

	followUp := MustGet(ComplaintFile, "follow_up")
	for _, ph := range []string{"{{.Draft}}", "{{.FiledDate}}", "{{.DaysSinceFiling}}"} {
		assert.Contains(t, followUp, ph)
	}
}
