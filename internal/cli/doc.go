// Package cli wires configuration into a running bot: logger, lexicon,
// definition, state store and session manager. The cobra commands in
// cmd/tagbot are thin shells around it.
package cli
