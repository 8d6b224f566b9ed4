package framework

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel = color.New(color.FgYellow, color.Bold).SprintFunc()
	skipLabel = color.New(color.FgHiBlack).SprintFunc()
)

func statusLabel(s StepResult) string {
	switch {
	case s.Status == StepSucceeded:
		return passLabel("PASS")
	case s.Status == StepSkipped:
		return skipLabel("SKIP")
	case s.Policy == WarnAndContinue:
		return warnLabel("WARN")
	default:
		return failLabel("FAIL")
	}
}

// PrintReport writes a human-readable rendering of one scenario's Report.
func PrintReport(out io.Writer, r Report) {
	title := r.Scenario()
	if title == "" {
		title = "scenario"
	}
	fmt.Fprintf(out, "%s\n", title)
	for _, s := range r.steps {
		fmt.Fprintf(out, "  %s %d. %s", statusLabel(s), s.Index+1, s.Name)
		if s.Status == StepFailed {
			fmt.Fprintf(out, " [%s]", ErrorKind(s.Err))
		}
		fmt.Fprintln(out)
		if s.Message != "" {
			for _, line := range strings.Split(s.Message, "\n") {
				fmt.Fprintf(out, "       %s\n", line)
			}
		}
		if s.Status == StepSucceeded && len(s.Data) > 0 {
			fmt.Fprintf(out, "       %s\n", formatData(s.Data))
		}
	}
}

// PrintResults writes the summary for a whole run of one or more scenarios.
func PrintResults(out io.Writer, reports []Report) {
	var failed []Report
	for _, r := range reports {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	fmt.Fprintf(out, "Ran %d scenario(s): %d passed, %d failed\n", len(reports), len(reports)-len(failed), len(failed))
	for _, r := range failed {
		var abortedAt string
		warnings := 0
		for _, s := range r.Failures() {
			if s.Aborted() {
				abortedAt = fmt.Sprintf(" at step %d. %s [%s]", s.Index+1, s.Name, ErrorKind(s.Err))
			} else {
				warnings++
			}
		}
		fmt.Fprintf(out, "  %s %s%s", failLabel("FAILED:"), r.Scenario(), abortedAt)
		if warnings > 0 {
			fmt.Fprintf(out, " (%d warning(s))", warnings)
		}
		fmt.Fprintln(out)
	}
}

// WriteJSON writes the reports as a JSON array.
func WriteJSON(out io.Writer, reports []Report) error {
	if reports == nil {
		reports = []Report{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func formatData(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}
