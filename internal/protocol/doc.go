// Package protocol owns the instrument's line contract and parsing primitives.
//
// Ownership boundary:
// - two-character line tags
// - per-line checksum
// - tab field access with decimal-comma normalisation
// - decode error taxonomy
//
// Frame assembly and the decode state machine live in protocol/frame.
package protocol
