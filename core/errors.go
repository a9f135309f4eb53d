package core

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by the session manager for unknown ids.
var ErrSessionNotFound = errors.New("session not found")

// ConfigurationError indicates broken registry or prompt setup (for example a
// missing prompt template). It is fatal at startup-equivalent time and is
// never recovered per turn.
type ConfigurationError struct {
	Resource string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Resource)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TemplateRenderError indicates that a prompt template could not be rendered
// for a turn (missing placeholder, wrong value type). Fatal for the turn.
type TemplateRenderError struct {
	Agent AgentID
	Err   error
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("template render failed for agent %q: %v", e.Agent, e.Err)
}

func (e *TemplateRenderError) Unwrap() error { return e.Err }

// RateUnavailableError signals that the upstream exchange-rate provider could
// not produce a quote (timeout, transport error, malformed response). Tools
// surface it as a textual sentinel rather than letting it crash the turn.
type RateUnavailableError struct {
	Reason error
}

func (e *RateUnavailableError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("exchange rate unavailable: %v", e.Reason)
	}
	return "exchange rate unavailable"
}

func (e *RateUnavailableError) Unwrap() error { return e.Reason }
