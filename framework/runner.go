package framework

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// ErrNoSteps is returned by Run when it is given an empty step list.
var ErrNoSteps = errors.New("scenario has no steps")

// PanicError is the failure recorded for a step whose action panicked.
type PanicError struct {
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("unexpected panic in step: %+v\n%s", e.Value, e.Stack)
}

func (e *PanicError) Kind() string { return "Panic" }

// Run executes the steps strictly in order, threading a ScenarioContext that starts out
// with a copy of initial, and returns the Report.
//
// Ordinary step failures never cause an error return; they are recorded in the Report. An
// error is returned only for caller misuse, such as an empty step list or a step without
// an action, and in that case no step is executed.
func Run(steps []Step, initial map[string]interface{}, logger StepLogger) (Report, error) {
	return RunScenario(Scenario{Steps: steps}, initial, logger)
}

// RunScenario is the same as Run, but the scenario name is used in step IDs and in the Report.
func RunScenario(scenario Scenario, initial map[string]interface{}, logger StepLogger) (Report, error) {
	if err := validateSteps(scenario.Steps); err != nil {
		return Report{}, err
	}
	if logger == nil {
		logger = NullStepLogger()
	}

	ctx := NewScenarioContext(initial)
	report := Report{scenario: scenario.Name, steps: make([]StepResult, 0, len(scenario.Steps))}
	var abortedBy *StepResult

	for i, step := range scenario.Steps {
		id := newStepID(scenario.Name, step.Name)
		if abortedBy != nil {
			reason := fmt.Sprintf("step %q failed", abortedBy.Name)
			logger.StepSkipped(id, reason)
			report.steps = append(report.steps, StepResult{
				ID:      id,
				Index:   i,
				Name:    step.Name,
				Status:  StepSkipped,
				Policy:  step.Policy,
				Message: "skipped because " + reason,
			})
			continue
		}

		logger.StepStarted(id)
		result := runStep(ctx, id, i, step)
		if result.Status == StepFailed {
			logger.StepError(id, result.Err)
		}
		logger.StepFinished(id, result.copy())
		report.steps = append(report.steps, result)
		if result.Aborted() {
			abortedBy = &result
		}
	}

	return report, nil
}

func validateSteps(steps []Step) error {
	if len(steps) == 0 {
		return ErrNoSteps
	}
	for i, s := range steps {
		if s.Name == "" {
			return fmt.Errorf("step %d has no name", i+1)
		}
		if s.Action == nil {
			return fmt.Errorf("step %q has no action", s.Name)
		}
		if s.Policy != AbortRun && s.Policy != WarnAndContinue {
			return fmt.Errorf("step %q has unknown failure policy %s", s.Name, s.Policy)
		}
	}
	return nil
}

func newStepID(scenario, step string) StepID {
	if scenario == "" {
		return StepID{Path: []string{step}}
	}
	return StepID{Path: []string{scenario, step}}
}

func runStep(ctx *ScenarioContext, id StepID, index int, step Step) (result StepResult) {
	debugLogger := &CapturingLogger{}
	ctx.debugLogger = debugLogger
	before := ctx.Snapshot()
	start := time.Now()

	result = StepResult{ID: id, Index: index, Name: step.Name, Policy: step.Policy}
	defer func() {
		ctx.debugLogger = NullLogger()
		result.Duration = time.Since(start)
		result.DebugOutput = debugLogger.Output()
	}()

	outcome := invoke(ctx, step.Action)
	result.Message = outcome.Message()
	if outcome.OK() {
		result.Status = StepSucceeded
		result.Data = copyValues(outcome.Data())
		ctx.Merge(result.Data)
		return result
	}

	// a failed step leaves no trace in the context, even if its action called Set
	ctx.values = before
	result.Status = StepFailed
	result.Err = outcome.Err()
	if result.Message == "" {
		result.Message = result.Err.Error()
	}
	return result
}

func invoke(ctx *ScenarioContext, action func(*ScenarioContext) Outcome) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Failure(&PanicError{Value: r, Stack: string(debug.Stack())})
		}
	}()
	return action(ctx)
}
