package generation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ninjiez/promptmaster-v3/pkg/aijson"
)

// Operation identifiers; they double as template ids and usage-log labels.
const (
	OpPromptGeneration   = "prompt_generation"
	OpQuestionGeneration = "question_generation"
	OpExampleGeneration  = "example_generation"
	OpPromptImprovement  = "prompt_improvement"
)

// GeneratedPrompt is the model's answer to a prompt-generation request.
type GeneratedPrompt struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	Suggestions []string `json:"suggestions"`
}

// Question is one clarifying question the model proposes to sharpen a prompt.
type Question struct {
	ID             string `json:"id"`
	Priority       string `json:"priority"`
	Question       string `json:"question"`
	WhyThisMatters string `json:"why_this_matters"`
	Category       string `json:"category"`
}

// Example is one test input the model proposes for exercising a prompt.
type Example struct {
	ID               int    `json:"id"`
	Type             string `json:"type"`
	Input            string `json:"input"`
	ExpectedOutput   string `json:"expected_output"`
	ReasoningProcess string `json:"reasoning_process"`
	WhyValuable      string `json:"why_valuable"`
	TestsFor         string `json:"tests_for"`
}

// Improvement is the model's rewrite of an existing prompt plus its rationale.
type Improvement struct {
	ImprovedPrompt string   `json:"improved_prompt"`
	ChangesMade    []string `json:"changes_made"`
	Reasoning      string   `json:"reasoning"`
}

// classifyParseError separates "not JSON at all" from "JSON of the wrong
// kind" (object where an array is expected, mistyped fields).
func classifyParseError(op string, err error) error {
	if errors.Is(err, aijson.ErrNoStructure) {
		return &ResponseFormatError{Operation: op, Err: err}
	}
	return &ShapeError{Operation: op, Reason: err.Error()}
}

// decodePrompt normalizes raw model output into a GeneratedPrompt and
// shape-checks it. Title and content are the load-bearing keys.
func decodePrompt(raw string) (*GeneratedPrompt, error) {
	var out GeneratedPrompt
	if err := aijson.ParseInto(raw, &out); err != nil {
		return nil, classifyParseError(OpPromptGeneration, err)
	}
	if strings.TrimSpace(out.Title) == "" || strings.TrimSpace(out.Content) == "" {
		return nil, &ShapeError{Operation: OpPromptGeneration, Reason: "missing title or content"}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return &out, nil
}

func decodeQuestions(raw string) ([]Question, error) {
	var out []Question
	if err := aijson.ParseInto(raw, &out); err != nil {
		return nil, classifyParseError(OpQuestionGeneration, err)
	}
	if len(out) == 0 {
		return nil, &ShapeError{Operation: OpQuestionGeneration, Reason: "empty question list"}
	}
	for i, q := range out {
		if q.ID == "" || q.Question == "" || q.WhyThisMatters == "" || q.Category == "" || q.Priority == "" {
			return nil, &ShapeError{Operation: OpQuestionGeneration, Reason: fmt.Sprintf("question %d is missing required keys", i)}
		}
	}
	return out, nil
}

func decodeExamples(raw string) ([]Example, error) {
	var out []Example
	if err := aijson.ParseInto(raw, &out); err != nil {
		return nil, classifyParseError(OpExampleGeneration, err)
	}
	if len(out) == 0 {
		return nil, &ShapeError{Operation: OpExampleGeneration, Reason: "empty example list"}
	}
	for i, e := range out {
		if e.Type == "" || e.Input == "" || e.WhyValuable == "" || e.TestsFor == "" {
			return nil, &ShapeError{Operation: OpExampleGeneration, Reason: fmt.Sprintf("example %d is missing required keys", i)}
		}
	}
	return out, nil
}

func decodeImprovement(raw string) (*Improvement, error) {
	var out Improvement
	if err := aijson.ParseInto(raw, &out); err != nil {
		return nil, classifyParseError(OpPromptImprovement, err)
	}
	if strings.TrimSpace(out.ImprovedPrompt) == "" {
		return nil, &ShapeError{Operation: OpPromptImprovement, Reason: "missing improved_prompt"}
	}
	if out.ChangesMade == nil {
		out.ChangesMade = []string{}
	}
	return &out, nil
}
