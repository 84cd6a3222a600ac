package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry(
		Template{
			ID:                "greeting",
			Category:          CategoryUtility,
			Text:              "Hello {name}, welcome to {place}. Extra: {note}",
			RequiredVariables: []string{"name", "place"},
			OptionalVariables: []string{"note"},
		},
	)
}

func TestGetUnknownTemplate(t *testing.T) {
	r := testRegistry()

	_, err := r.Get("nope")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.ID)
}

func TestValidateVariables(t *testing.T) {
	r := testRegistry()

	missing, err := r.ValidateVariables("greeting", map[string]string{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, []string{"place"}, missing)

	// Whitespace-only counts as missing.
	missing, err = r.ValidateVariables("greeting", map[string]string{"name": "Ada", "place": "   "})
	require.NoError(t, err)
	assert.Equal(t, []string{"place"}, missing)

	missing, err = r.ValidateVariables("greeting", map[string]string{"name": "Ada", "place": "Berlin"})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestBuildSubstitutesAndStripsLeftovers(t *testing.T) {
	r := testRegistry()

	out, err := r.Build("greeting", map[string]string{"name": "Ada", "place": "Berlin"})
	require.NoError(t, err)

	assert.Contains(t, out, "Hello Ada, welcome to Berlin.")
	assert.NotContains(t, out, "{name}")
	assert.NotContains(t, out, "{note}", "unsupplied optional placeholder must be stripped")
	assert.NotRegexp(t, `\{\w+\}`, out)
}

func TestBuildMissingRequired(t *testing.T) {
	r := testRegistry()

	_, err := r.Build("greeting", map[string]string{"name": "Ada"})

	var mv *MissingVariablesError
	require.ErrorAs(t, err, &mv)
	assert.Equal(t, []string{"place"}, mv.Missing)
	assert.Contains(t, mv.Error(), "place")
}

// Repeated placeholders are all substituted.
func TestBuildRepeatedPlaceholder(t *testing.T) {
	r := NewRegistry(Template{
		ID:                "echo",
		Text:              "{word} and {word} again",
		RequiredVariables: []string{"word"},
	})

	out, err := r.Build("echo", map[string]string{"word": "go"})
	require.NoError(t, err)
	assert.Equal(t, "go and go again", out)
}

func TestDefaultRegistryCatalog(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{ExampleGeneration, PromptGeneration, PromptImprovement, QuestionGeneration}, r.IDs())

	// Only the idea is required; the rest may be absent or blank.
	out, err := r.Build(PromptGeneration, map[string]string{
		"idea":    "a todo app",
		"context": "",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "a todo app")
	assert.NotRegexp(t, `\{\w+\}`, out)

	// The embedded JSON structure example must survive the build.
	assert.Contains(t, out, `"title"`)
}

func TestDefaultRegistryOptionalVariables(t *testing.T) {
	r := DefaultRegistry()

	out, err := r.Build(QuestionGeneration, map[string]string{"currentPrompt": "Summarize this text"})
	require.NoError(t, err)
	assert.Contains(t, out, "Summarize this text")
	assert.NotContains(t, out, "{contextAnswers}")
	assert.NotContains(t, out, "{recentResults}")
}
