package framework

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StepStatus is the final state of a step in a Report.
type StepStatus int

const (
	StepSucceeded StepStatus = iota
	StepFailed
	StepSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepSucceeded:
		return "success"
	case StepFailed:
		return "failure"
	case StepSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("StepStatus(%d)", int(s))
	}
}

// StepID identifies a step for logging, as a path of scenario name and step name.
type StepID struct {
	Path []string
}

func (s StepID) String() string {
	return strings.Join(s.Path, "/")
}

// StepResult is one entry in a Report.
type StepResult struct {
	ID          StepID
	Index       int
	Name        string
	Status      StepStatus
	Policy      FailurePolicy
	Data        map[string]interface{}
	Err         error
	Message     string
	Duration    time.Duration
	DebugOutput CapturedOutput
}

// Aborted is true if this step failed and its policy stopped the run.
func (r StepResult) Aborted() bool {
	return r.Status == StepFailed && r.Policy == AbortRun
}

func (r StepResult) copy() StepResult {
	r.Data = copyValues(r.Data)
	r.ID.Path = append([]string(nil), r.ID.Path...)
	r.DebugOutput = append(CapturedOutput(nil), r.DebugOutput...)
	return r
}

// Report is the ordered list of step results from one scenario run. It is not modified
// after the run that produced it returns.
type Report struct {
	scenario string
	steps    []StepResult
}

func (r Report) Scenario() string { return r.scenario }

// Steps returns a copy of the step results, in declaration order. Data maps are copied too.
func (r Report) Steps() []StepResult {
	if r.steps == nil {
		return nil
	}
	ret := make([]StepResult, len(r.steps))
	for i, s := range r.steps {
		ret[i] = s.copy()
	}
	return ret
}

func (r Report) Len() int { return len(r.steps) }

// Last returns the final entry, or false if the report is empty.
func (r Report) Last() (StepResult, bool) {
	if len(r.steps) == 0 {
		return StepResult{}, false
	}
	return r.steps[len(r.steps)-1].copy(), true
}

// Count returns the number of entries with the given status.
func (r Report) Count(status StepStatus) int {
	n := 0
	for _, s := range r.steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Failures returns all failed entries, including warnings.
func (r Report) Failures() []StepResult {
	var ret []StepResult
	for _, s := range r.steps {
		if s.Status == StepFailed {
			ret = append(ret, s.copy())
		}
	}
	return ret
}

// OK is false if any step with the AbortRun policy failed. Failed WarnAndContinue steps do
// not affect it.
func (r Report) OK() bool {
	for _, s := range r.steps {
		if s.Aborted() {
			return false
		}
	}
	return true
}

// KindedError is implemented by errors that have a short category name for reports.
type KindedError interface {
	error
	Kind() string
}

// ErrorKind returns the category name of err, looking through wrapped errors. Errors
// without a category are reported as "Error".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var k KindedError
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "Error"
}

type stepResultJSON struct {
	Name       string                 `json:"name"`
	Status     string                 `json:"status"`
	Policy     string                 `json:"policy"`
	Message    string                 `json:"message,omitempty"`
	Error      string                 `json:"error,omitempty"`
	ErrorKind  string                 `json:"errorKind,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	DurationMS int64                  `json:"durationMs"`
}

type reportJSON struct {
	Scenario string           `json:"scenario"`
	OK       bool             `json:"ok"`
	Steps    []stepResultJSON `json:"steps"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{Scenario: r.scenario, OK: r.OK(), Steps: make([]stepResultJSON, 0, len(r.steps))}
	for _, s := range r.steps {
		entry := stepResultJSON{
			Name:       s.Name,
			Status:     s.Status.String(),
			Policy:     s.Policy.String(),
			Message:    s.Message,
			ErrorKind:  ErrorKind(s.Err),
			Data:       s.Data,
			DurationMS: s.Duration.Milliseconds(),
		}
		if s.Err != nil {
			entry.Error = s.Err.Error()
		}
		out.Steps = append(out.Steps, entry)
	}
	return json.Marshal(out)
}
