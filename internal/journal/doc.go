// Package journal records decoded frames to an append-only CBOR file.
//
// Each Entry carries the frame (raw lines included), the capture time, and
// the session id of the process that wrote it, so a journal can be replayed
// through the same export path as a live capture.
package journal
