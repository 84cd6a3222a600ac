// Package template stores the parameterized prompt templates used for each
// AI operation and substitutes caller-supplied variables into them.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type Category string

const (
	CategoryGeneration  Category = "generation"
	CategoryAnalysis    Category = "analysis"
	CategoryImprovement Category = "improvement"
	CategoryUtility     Category = "utility"
)

// Template is immutable once registered. Placeholders use the {name} form.
type Template struct {
	ID                string
	Name              string
	Description       string
	Category          Category
	Text              string
	RequiredVariables []string
	OptionalVariables []string
}

// NotFoundError reports a lookup for an unregistered template id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.ID)
}

// MissingVariablesError reports required variables that were absent or blank.
type MissingVariablesError struct {
	TemplateID string
	Missing    []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("missing required variables for %s: %s", e.TemplateID, strings.Join(e.Missing, ", "))
}

// Placeholders are single-word tokens like {idea}. The pattern deliberately
// does not match multi-token brace spans, so JSON structure examples embedded
// in template text survive the leftover-stripping pass.
var placeholderPattern = regexp.MustCompile(`\{\w+\}`)

// Registry holds templates keyed by id. It is constructed at startup and
// passed by reference so tests can substitute their own catalog.
type Registry struct {
	templates map[string]Template
}

func NewRegistry(templates ...Template) *Registry {
	r := &Registry{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		r.templates[t.ID] = t
	}
	return r
}

func (r *Registry) Get(id string) (Template, error) {
	t, ok := r.templates[id]
	if !ok {
		return Template{}, &NotFoundError{ID: id}
	}
	return t, nil
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateVariables returns the required variables that are absent or blank
// after trimming. An empty slice means the variable set is complete.
func (r *Registry) ValidateVariables(id string, vars map[string]string) ([]string, error) {
	t, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range t.RequiredVariables {
		if strings.TrimSpace(vars[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// Build validates the variable set and substitutes every {name} occurrence in
// the template text. Optional variables that were never supplied are stripped
// rather than left verbatim, so the rendered prompt carries no leftover
// placeholder tokens.
func (r *Registry) Build(id string, vars map[string]string) (string, error) {
	t, err := r.Get(id)
	if err != nil {
		return "", err
	}

	missing, err := r.ValidateVariables(id, vars)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "", &MissingVariablesError{TemplateID: id, Missing: missing}
	}

	result := t.Text
	for name, value := range vars {
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}

	// Unsupplied optional variables leave their placeholders behind.
	result = placeholderPattern.ReplaceAllString(result, "")

	return strings.TrimSpace(result), nil
}
