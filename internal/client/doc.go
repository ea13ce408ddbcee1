// Package client queries whered responders.
//
// Ownership boundary:
// - per-target settings merge (global defaults, target overrides)
// - send/await/retry state machine against one address
// - sequential aggregation with per-target failsafe
//
// Each target owns one socket for its whole retry sequence. Targets are
// processed one after another; nothing is shared between them.
package client
