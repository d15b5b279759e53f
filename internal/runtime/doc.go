// Package runtime implements the dialogue state machine driven by a registry.Definition.
package runtime
