package domain

import "fmt"

// ConfigError reports an invalid model configuration. It is always fatal
// and raised before any simulation work starts; the engine never defaults
// its way past one.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// SimError reports a runtime invariant violation inside one trial. It is
// fatal to that trial only; other trials keep running.
type SimError struct {
	Trial int
	Year  int
	Err   error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("trial %d, year %d: %v", e.Trial, e.Year, e.Err)
}

func (e *SimError) Unwrap() error { return e.Err }
