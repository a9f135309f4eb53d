// Package handoff parses the in-band control markers that agents embed in
// their output to request a hand-off to another agent or to end the session.
// Raw output is parsed exactly once into a typed Signal; everything downstream
// operates on the typed value, never on substrings.
package handoff

import (
	"strings"

	"github.com/bancoagil/agentdesk/core"
)

// Kind discriminates the control signal found in agent output.
type Kind int

const (
	// None means the output carried no control marker.
	None Kind = iota
	// Redirect requests a hand-off to Signal.Target.
	Redirect
	// Terminate requests that the session be closed.
	Terminate
)

// Signal is the typed result of scanning one agent output.
type Signal struct {
	Kind   Kind
	Target core.AgentID
}

// TerminateMarker ends the session. It takes precedence over any redirect
// marker appearing in the same output.
const TerminateMarker = "[ENCERRA_ATENDIMENTO]"

// redirectMarkers is the fixed pattern table. Scan order is part of the
// contract: if more than one distinct redirect marker appears, the first
// entry here that matches wins.
var redirectMarkers = []struct {
	Marker string
	Target core.AgentID
}{
	{"[REDIRECIONA_CREDITO]", core.AgentCredit},
	{"[REDIRECIONA_ENTREVISTA]", core.AgentInterview},
	{"[REDIRECIONA_CAMBIO]", core.AgentExchange},
	{"[REDIRECIONA_TRIAGEM]", core.AgentTriage},
}

// Parse scans text for control markers. Matching is case-sensitive substring
// search over the whole text. Termination is checked before redirects.
func Parse(text string) Signal {
	if strings.Contains(text, TerminateMarker) {
		return Signal{Kind: Terminate}
	}
	for _, rm := range redirectMarkers {
		if strings.Contains(text, rm.Marker) {
			return Signal{Kind: Redirect, Target: rm.Target}
		}
	}
	return Signal{Kind: None}
}

// Strip removes every recognized marker (redirect and termination) from text
// and trims leading/trailing whitespace. No other substring is altered.
func Strip(text string) string {
	out := text
	for _, rm := range redirectMarkers {
		out = strings.ReplaceAll(out, rm.Marker, "")
	}
	out = strings.ReplaceAll(out, TerminateMarker, "")
	return strings.TrimSpace(out)
}

// MarkerFor returns the redirect marker string mapped to the given agent.
// Used by prompt assembly and tests; returns "" for unknown agents.
func MarkerFor(id core.AgentID) string {
	for _, rm := range redirectMarkers {
		if rm.Target == id {
			return rm.Marker
		}
	}
	return ""
}
