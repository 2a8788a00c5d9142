package errors

import "fmt"

// ConfigError reports invalid generator configuration. Configuration is
// checked before any state is loaded or touched, so a ConfigError always
// means nothing was written.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// ValidationError reports a generation request the orchestrator refuses to
// run (non-chronological dates, incremental date not after the last
// generated date). No state is mutated.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// StateError reports a missing or internally inconsistent state document.
// A missing document is only an error for incremental runs.
type StateError struct {
	Reason string
	Err    error
}

func (e *StateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("state: %s: %v", e.Reason, e.Err)
	}
	return "state: " + e.Reason
}

func (e *StateError) Unwrap() error { return e.Err }
