// Package state keeps per-user conversation sessions in memory and evicts
// the ones that have been idle for too long.
package state
