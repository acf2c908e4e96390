// Package book maintains per-product in-memory L2 order books and
// publishes them to the cache adapter.
//
// Grounded on original_source/src/storage/orderbook.cpp: a Snapshot sets
// the listed price levels (it does not clear unlisted levels); an Update
// adds to an existing level's size, inserting it if absent, and a change
// whose size is at or below Epsilon removes the level.
package book
