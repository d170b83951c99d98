package config

import "github.com/tibbar-gen/tibbar/translate"

var f = translate.From

// ErrConfig is a fatal startup error: invalid YAML or schema violation
// (spec.md §7's ConfigError).
type ErrConfig struct {
	Reason string
}

func (e *ErrConfig) Error() string {
	return f("config: %v", e.Reason)
}
