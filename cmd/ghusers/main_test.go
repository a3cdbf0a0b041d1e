package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/github-users/internal/auth"
)

const testAPI = "https://api.github.test"

// setupEnv points the commands at gock and at a local listener standing in
// for the connectivity check's target.
func setupEnv(t *testing.T) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	t.Setenv("GITHUB_API_URL", testAPI)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("CONNECTIVITY_ADDR", ln.Addr().String())
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestList_PrintsLogins(t *testing.T) {
	setupEnv(t)
	defer gock.Off()
	gock.New(testAPI).
		Get("/users").
		Reply(200).
		JSON([]map[string]any{{"login": "mojombo", "id": 1}, {"login": "defunkt", "id": 2}})

	out, err := run(t, "list", "--no-cache")
	require.NoError(t, err)
	assert.Equal(t, "mojombo\ndefunkt\n", out)
}

func TestList_JSON(t *testing.T) {
	setupEnv(t)
	defer gock.Off()
	gock.New(testAPI).Get("/users").Reply(200).JSON([]any{})

	out, err := run(t, "list", "--no-cache", "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "empty", got["status"])
}

func TestList_FailureExitsNonZero(t *testing.T) {
	setupEnv(t)
	defer gock.Off()
	gock.New(testAPI).Get("/users").Reply(500)

	_, err := run(t, "list", "--no-cache")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "An error occurred: "), err.Error())
}

func TestList_Offline(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "list", "--no-cache", "--offline", "--json")
	require.Error(t, err)
	assert.Equal(t, "Network is not available", err.Error())
	assert.Contains(t, out, `"status": "failure"`)
}

func TestList_CachedPrintsLastListingWithoutFetching(t *testing.T) {
	setupEnv(t)
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "users.db"))
	defer gock.Off()
	gock.New(testAPI).
		Get("/users").
		Reply(200).
		JSON([]map[string]any{{"login": "mojombo", "id": 1}, {"login": "defunkt", "id": 2}})

	_, err := run(t, "list")
	require.NoError(t, err)
	require.True(t, gock.IsDone())

	// Any request to GitHub now fails the test: no mocks are left.
	out, err := run(t, "list", "--cached")
	require.NoError(t, err)
	assert.Equal(t, "mojombo\ndefunkt\n", out)

	out, err = run(t, "list", "--cached", "--json", "--limit", "1")
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "mojombo", got[0]["login"])
	assert.Contains(t, got[0], "fetchedAt")
}

func TestBrowse_LogFileFromDotEnv(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "tui.log")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GHUSERS_LOG_FILE="+logPath+"\n"), 0o600))

	// Only .env may name the file. Setenv restores the variable afterwards,
	// undoing what godotenv writes.
	t.Setenv("GHUSERS_LOG_FILE", "")
	require.NoError(t, os.Unsetenv("GHUSERS_LOG_FILE"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	a, closeLog, err := browseApp(&globalFlags{offline: true, noCache: true})
	require.NoError(t, err)
	a.Logger.Error("terminal UI started")
	closeApp(a)
	closeLog()

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "terminal UI started")
}

func TestToken_RequiresSecret(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "token")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestToken_MintsValidToken(t *testing.T) {
	setupEnv(t)
	secret := "cmd-test-secret-0123456789"
	t.Setenv("JWT_SECRET", secret)

	out, err := run(t, "token", "--subject", "ops", "--ttl", "1h")
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(secret)
	require.NoError(t, err)
	subject, err := tokens.Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", subject)
}
