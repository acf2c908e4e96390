// Package wsconn implements a single WebSocket connection's lifecycle:
// dial, frame read/dispatch, idempotent close with a big-endian CLOSE
// status code, and a table-driven retry/backoff state machine.
//
// Grounded on internal's former connection/client.go (dial, read-pump,
// heartbeat, write-mutex pattern) and on original_source's
// src/web/connections/ws.cpp (close status byte order) and
// src/web/manager.hpp (retry semantics).
package wsconn
