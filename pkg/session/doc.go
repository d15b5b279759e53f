/*
Package session serves many conversations with one bot.

Each conversation gets its own engine instance, rebuilt from a persisted
snapshot on every message. Access is serialized per conversation with a
reference-counted local mutex and, optionally, a distributed lock so that
replicas sharing a store never answer the same conversation concurrently.
No coordination happens across conversations.
*/
package session
