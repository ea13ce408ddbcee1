// Package responder owns the whered request loop.
//
// Ownership boundary:
// - one UDP socket, one request answered at a time
// - gather via Source, encode via protocol, reply to the sender
//
// A failed request is logged and counted; it never stops the loop.
package responder
