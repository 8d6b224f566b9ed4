package framework

import (
	"errors"
	"fmt"
)

// FailurePolicy says what the runner does after a step fails.
type FailurePolicy int

const (
	// AbortRun stops the scenario; every remaining step is reported as skipped.
	AbortRun FailurePolicy = iota

	// WarnAndContinue records the failure and goes on to the next step with the
	// context unchanged.
	WarnAndContinue
)

func (p FailurePolicy) String() string {
	switch p {
	case AbortRun:
		return "abort"
	case WarnAndContinue:
		return "warn"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// Step is a single named unit of work in a scenario.
type Step struct {
	Name   string
	Action func(*ScenarioContext) Outcome
	Policy FailurePolicy
}

// Scenario is an ordered list of steps representing one end-to-end workflow.
type Scenario struct {
	Name  string
	Steps []Step
}

// Outcome is the result of a step's action: either a success carrying data to be merged
// into the ScenarioContext, or a failure carrying an error.
type Outcome struct {
	data    map[string]interface{}
	err     error
	message string
}

// Success returns a successful Outcome. The data may be nil.
func Success(data map[string]interface{}) Outcome {
	return Outcome{data: data}
}

// Failure returns a failed Outcome. A nil error is replaced with a generic one, since a
// failure must always have a reason.
func Failure(err error) Outcome {
	if err == nil {
		err = errors.New("step failed with no failure message")
	}
	return Outcome{err: err}
}

// Failuref is shorthand for Failure(fmt.Errorf(format, args...)).
func Failuref(format string, args ...interface{}) Outcome {
	return Failure(fmt.Errorf(format, args...))
}

// WithMessage attaches a human-readable summary that the report shows for this step.
func (o Outcome) WithMessage(format string, args ...interface{}) Outcome {
	o.message = fmt.Sprintf(format, args...)
	return o
}

func (o Outcome) OK() bool { return o.err == nil }

func (o Outcome) Err() error { return o.err }

func (o Outcome) Message() string { return o.message }

// Data returns a copy of the success data.
func (o Outcome) Data() map[string]interface{} {
	return copyValues(o.data)
}
