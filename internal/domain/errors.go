package domain

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch signals that a grid operation was requested across grids
// of different dimensions. It is a per-field warning condition, not a fatal
// error: the caller omits the affected layer and carries on.
var ErrShapeMismatch = errors.New("grid shape mismatch")

// ConfigError reports an invalid configuration parameter. It is returned
// before any processing starts and is fatal to the call that supplied the
// configuration.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Param, e.Reason)
}

func configErr(param, reason string) error {
	return &ConfigError{Param: param, Reason: reason}
}
