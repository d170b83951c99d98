package io

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSFS is a CreateFS rooted at a directory on the real filesystem. It is
// the implementation emit.go writes assembly and debug YAML output
// through when run from the command line.
type OSFS struct {
	root string
}

// NewOSFS returns a CreateFS rooted at root, creating root if it does not
// already exist.
func NewOSFS(root string) (*OSFS, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &OSFS{root: root}, nil
}

func (o *OSFS) Sub(name string) (CreateFS, error) {
	sub := filepath.Join(o.root, name)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return nil, err
	}
	return &OSFS{root: sub}, nil
}

func (o *OSFS) Create(name string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(o.root, name))
}

func (o *OSFS) Mkdir(name string, filemode fs.FileMode) error {
	return os.Mkdir(filepath.Join(o.root, name), filemode)
}
