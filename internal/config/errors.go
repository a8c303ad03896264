package config

import (
	"fmt"
)

type invalidConfigError struct {
	key    string
	reason string
}

func newInvalidConfigErrorWithKey(key string, reason string) *invalidConfigError {
	return &invalidConfigError{key: key, reason: reason}
}

func newInvalidConfigError(reason string) *invalidConfigError {
	return &invalidConfigError{reason: reason}
}

func (e *invalidConfigError) Error() string {
	if e.key != "" {
		return fmt.Sprintf("failed to load config for %s: %s", e.key, e.reason)
	}
	return fmt.Sprintf("failed to load config: %s", e.reason)
}

func (e *invalidConfigError) Title() string {
	return "Failed to load config"
}

func (e *invalidConfigError) ExitCode() int {
	return 1
}
