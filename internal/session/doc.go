// Package session implements the connection manager (C7): a single loop
// goroutine that owns every Connection, a deferred-init queue, and
// cooperative graceful/forced shutdown driven by SIGINT.
//
// Grounded on internal's former connection/manager.go (goroutine-per-
// connection plus central-channel architecture) and on
// original_source/src/web/manager.hpp's RequestManager (ws()/run() API,
// deferred connection initialization). See DESIGN.md's "Event-loop
// translation" entry for how the single-owner-of-mutable-state invariant
// is preserved without a literal libuv/libcurl socket-callback bridge.
package session
