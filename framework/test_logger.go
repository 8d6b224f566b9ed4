package framework

// StepLogger receives progress notifications while a scenario runs.
type StepLogger interface {
	StepStarted(id StepID)
	StepError(id StepID, err error)
	StepFinished(id StepID, result StepResult)
	StepSkipped(id StepID, reason string)
}

type nullStepLogger struct{}

func (n nullStepLogger) StepStarted(StepID)              {}
func (n nullStepLogger) StepError(StepID, error)         {}
func (n nullStepLogger) StepFinished(StepID, StepResult) {}
func (n nullStepLogger) StepSkipped(StepID, string)      {}

// NullStepLogger returns a StepLogger that ignores all notifications.
func NullStepLogger() StepLogger { return nullStepLogger{} }
