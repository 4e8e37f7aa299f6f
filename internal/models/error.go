package models

import (
	"fmt"
	"strings"
)

// MaxRowErrors caps how many row problems a ParseReport keeps. A file with more
// is almost certainly malformed and the rest only get counted.
const MaxRowErrors = 100

// SchemaError is returned when a source lacks required columns.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

type RowError struct {
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
	Err     error  `json:"-" yaml:"-"`
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s - %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseReport collects the row-level problems found while loading a source.
// Rows are skipped or degraded, never fatal.
type ParseReport struct {
	Source    string     `json:"source" yaml:"source"`
	Rows      int        `json:"rows" yaml:"rows"`
	Skipped   int        `json:"skipped" yaml:"skipped"`
	Errors    []RowError `json:"errors,omitempty" yaml:"errors,omitempty"`
	Truncated int        `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

func (r *ParseReport) Add(line int, message string, err error) {
	if len(r.Errors) >= MaxRowErrors {
		r.Truncated++
		return
	}
	r.Errors = append(r.Errors, RowError{Line: line, Message: message, Err: err})
}

func (r *ParseReport) Problems() int {
	return len(r.Errors) + r.Truncated
}

// Messages renders every recorded problem as text.
func (r *ParseReport) Messages() []string {
	messages := make([]string, 0, len(r.Errors))
	for i := range r.Errors {
		messages = append(messages, r.Errors[i].Error())
	}
	return messages
}
