package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = `{"type":"service_account","project_id":"newsdesk-test"}`

// TestResolveCredentials_EnvWins verifies the environment takes precedence
// over the key file
func TestResolveCredentials_EnvWins(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), DefaultKeyFile)
	require.NoError(t, os.WriteFile(keyFile, []byte(`{"project_id":"from-file"}`), 0o600))
	t.Setenv(CredentialsEnv, testKey)

	creds, err := ResolveCredentials(keyFile)
	require.NoError(t, err)
	assert.Equal(t, "newsdesk-test", creds.ProjectID)
	assert.Equal(t, CredentialsEnv, creds.Source)
	assert.JSONEq(t, testKey, string(creds.JSON))
}

// TestResolveCredentials_KeyFile verifies the key file is used when the
// environment is empty
func TestResolveCredentials_KeyFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), DefaultKeyFile)
	require.NoError(t, os.WriteFile(keyFile, []byte(testKey), 0o600))
	t.Setenv(CredentialsEnv, "")

	creds, err := ResolveCredentials(keyFile)
	require.NoError(t, err)
	assert.Equal(t, "newsdesk-test", creds.ProjectID)
	assert.Equal(t, keyFile, creds.Source)
}

// TestResolveCredentials_Missing verifies the sentinel when nothing is
// available
func TestResolveCredentials_Missing(t *testing.T) {
	t.Setenv(CredentialsEnv, "")

	_, err := ResolveCredentials(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

// TestResolveCredentials_Invalid verifies malformed or incomplete JSON is
// rejected
func TestResolveCredentials_Invalid(t *testing.T) {
	t.Setenv(CredentialsEnv, "not json")
	_, err := ResolveCredentials("")
	assert.ErrorContains(t, err, "invalid credentials")

	t.Setenv(CredentialsEnv, `{"type":"service_account"}`)
	_, err = ResolveCredentials("")
	assert.ErrorContains(t, err, "no project_id")
}

// TestLoadEnv verifies .env values fill unset variables only
func TestLoadEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NEWSDESK_TEST_A=from-file\nNEWSDESK_TEST_B=from-file\n"), 0o600))

	t.Setenv("NEWSDESK_TEST_A", "")
	os.Unsetenv("NEWSDESK_TEST_A")
	t.Setenv("NEWSDESK_TEST_B", "preset")

	require.NoError(t, LoadEnv(envFile))
	t.Cleanup(func() { os.Unsetenv("NEWSDESK_TEST_A") })

	assert.Equal(t, "from-file", os.Getenv("NEWSDESK_TEST_A"))
	assert.Equal(t, "preset", os.Getenv("NEWSDESK_TEST_B"))
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}
