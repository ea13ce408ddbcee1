// Package protocol owns the whered wire contract.
//
// Ownership boundary:
// - session record model
// - payload encode/decode with size ceilings
// - probe datagram
//
// A payload is one unfragmented datagram: magic, big-endian entry count,
// then self-delimited entries. Decoding is all or nothing.
package protocol
