package core

import "github.com/google/uuid"

// NewID generates a unique identifier for sessions, turns and records.
func NewID() string { return uuid.NewString() }
