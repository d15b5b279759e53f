// Package http exposes a bot over a JSON HTTP API.
//
// Routes:
//
//	POST   /v1/conversations/{id}/messages  {"text": "..."} -> {"reply", "state", "turns", "error"}
//	GET    /v1/conversations/{id}/events    server-sent events with every reply of the conversation
//	GET    /v1/conversations                known conversation IDs
//	GET    /v1/conversations/{id}           conversation snapshot
//	DELETE /v1/conversations/{id}           forget the conversation
//	GET    /v1/bot                          bot description
//	GET    /healthz
//	GET    /info
//	GET    /metrics                         when a gatherer is configured
//	POST   /slack/events                    when a Slack handler is configured
package http
