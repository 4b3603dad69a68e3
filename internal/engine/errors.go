package engine

import "fmt"

// ConfigurationError reports structurally invalid input: an unsupported
// transform size, a mismatched stream set, malformed shape parameters.
// Continuing past one would corrupt device memory layout, so it is raised as
// a panic carrying the offending value and, where applicable, the supported
// set. It is never returned as an ordinary error; resource exhaustion is
// (see device.ErrOutOfMemory).
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

func configurationErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// failConfiguration terminates the current operation with a configuration
// diagnostic.
func failConfiguration(format string, args ...any) {
	panic(configurationErrorf(format, args...))
}
