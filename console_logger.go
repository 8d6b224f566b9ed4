package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/musicstore/store-contract-tests/framework"
)

type consoleStepLogger struct {
	out                  io.Writer
	debugOutputOnFailure bool
	debugOutputOnSuccess bool
}

func (c consoleStepLogger) StepStarted(id framework.StepID) {
	fmt.Fprintf(c.out, "[%s]\n", id)
}

func (c consoleStepLogger) StepError(id framework.StepID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.out, "  %s\n", line)
	}
}

func (c consoleStepLogger) StepFinished(id framework.StepID, result framework.StepResult) {
	failed := result.Status == framework.StepFailed
	if failed {
		if result.Policy == framework.WarnAndContinue {
			fmt.Fprintf(c.out, "  FAILED (continuing): %s\n", id)
		} else {
			fmt.Fprintf(c.out, "  FAILED: %s\n", id)
		}
	}
	if len(result.DebugOutput) > 0 &&
		((failed && c.debugOutputOnFailure) || (!failed && c.debugOutputOnSuccess)) {
		result.DebugOutput.Dump(c.out, "    DEBUG ")
	}
}

func (c consoleStepLogger) StepSkipped(id framework.StepID, reason string) {
	if reason == "" {
		fmt.Fprintf(c.out, "  SKIPPED: %s\n", id)
	} else {
		fmt.Fprintf(c.out, "  SKIPPED: %s (%s)\n", id, reason)
	}
}
