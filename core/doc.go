// Package core contains the shared domain types of the agent desk: the
// per-conversation session context, the closed set of agent identifiers,
// client and credit records, and the error taxonomy used across packages.
package core
