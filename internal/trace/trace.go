// Package trace records the explain steps and warnings attached to generator output.
package trace

import "fmt"

type Step struct {
	Step   string `json:"step"`
	Detail string `json:"detail"`
}

// Recorder accumulates steps and warnings in order.
type Recorder struct {
	steps    []Step
	warnings []string
}

func (r *Recorder) Explain(step, format string, args ...any) {
	r.steps = append(r.steps, Step{Step: step, Detail: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Steps returns the recorded steps, never nil.
func (r *Recorder) Steps() []Step {
	if r.steps == nil {
		return []Step{}
	}
	return r.steps
}

// Warnings returns the recorded warnings, never nil.
func (r *Recorder) Warnings() []string {
	if r.warnings == nil {
		return []string{}
	}
	return r.warnings
}
