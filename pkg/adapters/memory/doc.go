// Package memory provides an in-process StateStore, the default for the CLI and tests.
package memory
