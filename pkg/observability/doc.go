/*
Package observability provides tools for monitoring bots.

It includes lifecycle hooks that count transitions in Prometheus, a
Responder decorator that times every message, and hooks that write
transitions to a structured logger.
*/
package observability
