package pipeline

import "os"

// Environment variables set by the CI runner.
const (
	EventNameEnvVar = "GITHUB_EVENT_NAME"
	RefEnvVar       = "GITHUB_REF"
	SHAEnvVar       = "GITHUB_SHA"
)

// pushEvent is the only event that releases. Everything else is skipped.
const pushEvent = "push"

// Trigger describes the CI event that invoked the pipeline.
type Trigger struct {
	EventName string
	Ref       string
	SHA       string
}

// TriggerFromEnv builds a Trigger from the CI environment.
func TriggerFromEnv() Trigger {
	return Trigger{
		EventName: os.Getenv(EventNameEnvVar),
		Ref:       os.Getenv(RefEnvVar),
		SHA:       os.Getenv(SHAEnvVar),
	}
}

// IsPush reports whether the trigger is a repository push.
func (t Trigger) IsPush() bool {
	return t.EventName == pushEvent
}

// ShortSHA returns the abbreviated commit hash for log lines.
func (t Trigger) ShortSHA() string {
	if len(t.SHA) > 8 {
		return t.SHA[:8]
	}
	return t.SHA
}
