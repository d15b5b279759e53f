// Package mcp exposes a bot as a Model Context Protocol server, so agents
// can hold conversations with it through tools. It serves over stdio or SSE.
package mcp
