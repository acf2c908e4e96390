// Package cache adapts driftbook's two cache operations — SET and HMSET —
// onto a Redis connection, via github.com/redis/go-redis/v9.
package cache
