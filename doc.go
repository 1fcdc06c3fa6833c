// Package tack implements a minimal language server for Rust: full and
// incremental document synchronization, textual hover and inlay hints over
// the open buffers, and diagnostics produced by an external checker command
// (cargo check by default) correlated back onto the open documents.
//
// The server speaks LSP over a pluggable transport (stdio by default) and
// dispatches messages synchronously in arrival order; the checker runs in
// its own goroutine so interactive requests stay responsive while a check
// is in flight.
package tack
