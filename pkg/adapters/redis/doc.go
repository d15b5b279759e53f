// Package redis provides Redis-backed adapters: the conversation StateStore,
// the DistributedLocker and a flagged-word list source.
package redis
