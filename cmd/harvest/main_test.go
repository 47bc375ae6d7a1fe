package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	main "github.com/fwojciec/harvest/cmd/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMain(t *testing.T) *main.Main {
	t.Helper()
	m := main.NewMain()
	m.EnvFile = ""
	m.DBPath = filepath.Join(t.TempDir(), "harvest.db")
	return m
}

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("errors without a command", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		err := newMain(t).Run(context.Background(), nil, stdout, stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
	})

	t.Run("prints help", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		err := newMain(t).Run(context.Background(), []string{"--help"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "run")
		assert.Contains(t, stdout.String(), "check")
		assert.Contains(t, stdout.String(), "history")
	})

	t.Run("checks URLs end to end", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		err := newMain(t).Run(context.Background(), []string{"check", urlA, urlB}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "2 valid, 0 invalid, 0 duplicate")
	})

	t.Run("shows empty history from a fresh database", func(t *testing.T) {
		t.Parallel()

		m := newMain(t)
		stdout := &bytes.Buffer{}
		err := m.Run(context.Background(), []string{"history"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No batches found")
	})

	t.Run("uses --db over the default path", func(t *testing.T) {
		t.Parallel()

		m := newMain(t)
		path := filepath.Join(t.TempDir(), "other.db")
		err := m.Run(context.Background(), []string{"--db", path, "history"}, &bytes.Buffer{}, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, path, m.DBPath)
	})

	t.Run("rejects unknown tier", func(t *testing.T) {
		t.Parallel()

		err := newMain(t).Run(context.Background(), []string{"run", "--tier", "staging", urlA}, &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
	})
}
