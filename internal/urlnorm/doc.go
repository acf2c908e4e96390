// Package urlnorm normalizes WebSocket/HTTP URLs to a canonical form:
// lowercase scheme and host, default ports elided, path and query
// re-encoded through a single canonical percent-encoding pass.
//
// It is the Go-native replacement for the original implementation's
// libcurl-based CURLU normalization (see DESIGN.md).
package urlnorm
