// Package domain defines core types, interfaces, and errors for the
// natural-language deal query pipeline.
package domain

import (
	"fmt"
	"strings"
)

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SamplingConfigError indicates an invalid sampling method/size combination.
// Rejected before any execution happens.
type SamplingConfigError struct {
	Message string
}

func (e *SamplingConfigError) Error() string { return e.Message }

// PlanAbortedError is returned when a step fails and its single recovery
// attempt also fails. It carries the first unrecoverable step's description
// and actionable suggestions, never internal step identifiers.
type PlanAbortedError struct {
	StepDescription string
	Message         string
	Suggestions     []string
	Retryable       bool
}

func (e *PlanAbortedError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("query could not be completed (%s): %s", e.StepDescription, e.Message)
	}
	return fmt.Sprintf("query could not be completed (%s): %s. Suggestions: %s",
		e.StepDescription, e.Message, strings.Join(e.Suggestions, "; "))
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrSamplingConfig creates a SamplingConfigError with a formatted message.
func ErrSamplingConfig(format string, args ...interface{}) *SamplingConfigError {
	return &SamplingConfigError{Message: fmt.Sprintf(format, args...)}
}
