package io

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOSFS_CreateWritesIntoRoot(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()

	fs, err := NewOSFS(root)
	assert.NoError(err)

	w, err := fs.Create("out.S")
	assert.NoError(err)
	_, err = io.WriteString(w, "hello")
	assert.NoError(err)
	assert.NoError(w.Close())

	data, err := os.ReadFile(filepath.Join(root, "out.S"))
	assert.NoError(err)
	assert.Equal("hello", string(data))
}

func TestOSFS_SubCreatesSubdirectory(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()

	fs, err := NewOSFS(root)
	assert.NoError(err)

	sub, err := fs.Sub("runs")
	assert.NoError(err)

	_, err = os.Stat(filepath.Join(root, "runs"))
	assert.NoError(err)

	w, err := sub.Create("debug.yaml")
	assert.NoError(err)
	assert.NoError(w.Close())

	_, err = os.Stat(filepath.Join(root, "runs", "debug.yaml"))
	assert.NoError(err)
}

func TestOSFS_MkdirThenCreate(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()

	fs, err := NewOSFS(root)
	assert.NoError(err)

	assert.NoError(fs.Mkdir("extra", 0o755))

	_, err = os.Stat(filepath.Join(root, "extra"))
	assert.NoError(err)
}
