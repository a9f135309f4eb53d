// Package service implements the data collaborators consumed by the agents'
// tools: the CSV-backed client table, the score calculator, the credit-limit
// tier table with its request ledger, and the foreign-exchange quote provider
// with an optional Redis cache.
//
// Lookups follow a "neutral on missing" contract: absent or malformed backing
// data yields a not-found/zero result, never an error, so a broken row can't
// crash a conversation turn. Writes to a CSV store are serialized per store.
package service
