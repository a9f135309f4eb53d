// Package agent defines the desk's specialist agents, their prompt templates
// and the task builder that renders per-turn prompts from session state.
package agent
