package fewshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrExemplarMismatch indicates that exemplar texts and labels could not be
// paired because the slices have different lengths.
var ErrExemplarMismatch = errors.New("exemplar texts and labels must have equal length")

// Exemplar is one worked example used as few-shot context in the prompt.
// Immutable after construction.
type Exemplar struct {
	Text  string `json:"text" yaml:"text" validate:"required"`
	Label string `json:"label" yaml:"label" validate:"required"`
}

// Task defines an extraction task: the task description shown to the model,
// the per-block label cue, and the ordered exemplar set.
type Task struct {
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Description string     `json:"description" yaml:"description" validate:"required"`
	Template    string     `json:"template" yaml:"template" validate:"required"`
	Exemplars   []Exemplar `json:"exemplars" yaml:"exemplars" validate:"required,min=1,dive"`
}

// NewTask creates a validated Task.
func NewTask(description, template string, exemplars []Exemplar) (Task, error) {
	t := Task{
		Description: description,
		Template:    template,
		Exemplars:   exemplars,
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// PairExemplars zips parallel text and label slices into exemplars. It fails
// immediately on a length mismatch rather than producing a misaligned set.
func PairExemplars(texts, labels []string) ([]Exemplar, error) {
	if len(texts) != len(labels) {
		return nil, fmt.Errorf("%w: %d texts, %d labels", ErrExemplarMismatch, len(texts), len(labels))
	}

	exemplars := make([]Exemplar, 0, len(texts))
	for i := range texts {
		exemplars = append(exemplars, Exemplar{Text: texts[i], Label: labels[i]})
	}
	return exemplars, nil
}

// TaskFromFile loads a task from a JSON or YAML file.
func TaskFromFile(path string) (Task, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- task files are user-specified inputs
	if err != nil {
		return Task{}, fmt.Errorf("failed to read task file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return TaskFromJSON(data)
	case ".yaml", ".yml":
		return TaskFromYAML(data)
	default:
		return Task{}, fmt.Errorf("unsupported task file format: %s", ext)
	}
}

// TaskFromJSON creates a task from JSON data.
func TaskFromJSON(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("failed to parse JSON task: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// TaskFromYAML creates a task from YAML data.
func TaskFromYAML(data []byte) (Task, error) {
	var t Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("failed to parse YAML task: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate checks the task definition for completeness.
func (t Task) Validate() error {
	if err := validator.New().Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, formatFieldError(e))
			}
			return fmt.Errorf("invalid task: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid task: %w", err)
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Namespace())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", e.Namespace(), e.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", e.Namespace(), e.Tag())
	}
}
