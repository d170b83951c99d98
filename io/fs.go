// Package io provides the output filesystem abstraction the emitter writes
// generated assembly and debug YAML through.
package io

import (
	"io"
	"io/fs"
)

// CreateFS defines a file system interface that supports creating files and
// directories. emit.Sink is this interface directly: a generation run
// writes its assembly text and, optionally, a debug YAML sidecar through
// one.
type CreateFS interface {
	// Sub returns a filesystem for a subdirectory.
	Sub(name string) (sub CreateFS, err error)
	// Create creates a new file for writing.
	Create(name string) (file io.WriteCloser, err error)
	// Mkdir creates a new directory with the specified permissions.
	Mkdir(name string, filemode fs.FileMode) (err error)
}
