package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "sweep", "migrate"})
}

func TestMigrateAndSweep(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	dsn := "file:" + filepath.Join(dir, "salon.db")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: sqlite\n  dsn: "+dsn+"\n"), 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--config", path})
	require.NoError(t, root.Execute())

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"sweep", "--config", path})
	require.NoError(t, root.Execute())
	assert.Equal(t, "cleaned 0 expired holds\n", out.String())
}

func TestMissingConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"sweep", "--config", filepath.Join(t.TempDir(), "absent.yaml")})
	root.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, root.Execute(), "failed to load configuration")
}
