// Package trades maintains a rolling window of recent trade matches and
// publishes it to the cache adapter as a single JSON array.
//
// Grounded on original_source/src/storage/trades.cpp: the window is cleared
// the first time a match arrives more than one second after the last reset,
// then the match is appended; otherwise the match is simply appended to the
// existing window.
package trades
