package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyGrid indicates a grid with no rows or no columns.
	ErrEmptyGrid = errors.New("core: grid must have at least one row and one column")
	// ErrCellOutOfBounds indicates a cell outside the grid.
	ErrCellOutOfBounds = errors.New("core: cell out of bounds")
	// ErrInvalidInstance is wrapped by every ConfigurationError.
	ErrInvalidInstance = errors.New("core: invalid instance")
)

// ConfigurationError reports a malformed problem instance.
// It is detected before any search starts.
type ConfigurationError struct {
	Agent  AgentID // empty when the problem is not agent specific
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Agent == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidInstance, e.Reason)
	}
	return fmt.Sprintf("%v: agent %q: %s", ErrInvalidInstance, e.Agent, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidInstance }

func configErr(agent AgentID, format string, args ...any) error {
	return &ConfigurationError{Agent: agent, Reason: fmt.Sprintf(format, args...)}
}
