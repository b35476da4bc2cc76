package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"hash-password", "--password", "abcdef", "--cost", "4"})

	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("abcdef")))
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 4, cost)
}

func TestHashPasswordRequiresPassword(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"hash-password"})

	assert.Error(t, cmd.Execute())
}

func TestMigrateWithMemoryStoreIsNoop(t *testing.T) {
	t.Setenv("USER_STORE", "memory")
	t.Setenv("GIN_MODE", "test")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "--env-file", t.TempDir() + "/missing.env"})

	assert.NoError(t, cmd.Execute())
}

func TestMigrateSQLite(t *testing.T) {
	t.Setenv("USER_STORE", "sqlite")
	t.Setenv("SQLITE_PATH", t.TempDir()+"/users.db")
	t.Setenv("GIN_MODE", "test")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "--env-file", t.TempDir() + "/missing.env"})

	assert.NoError(t, cmd.Execute())
}

func TestRootCommandServesByDefault(t *testing.T) {
	t.Setenv("USER_STORE", "memory")
	t.Setenv("GIN_MODE", "test")
	t.Setenv("PORT", "0")
	t.Setenv("METRICS_ENABLED", "false")

	// 停止済みのコンテキストで起動し、即座にシャットダウンさせる
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--env-file", t.TempDir() + "/missing.env"})

	assert.NoError(t, cmd.ExecuteContext(ctx))
}
