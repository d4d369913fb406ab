package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func stubKeyring(t *testing.T, value string, err error) {
	t.Helper()
	original := keyringGet
	keyringGet = func(service, user string) (string, error) {
		return value, err
	}
	t.Cleanup(func() { keyringGet = original })
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	require.NoError(t, os.WriteFile(file, []byte("  from-file\n"), 0o600))

	t.Setenv("RM_TEST_KEY", "from-env")
	stubKeyring(t, "from-keyring", nil)

	got, err := Load(Source{Name: "api key", File: file, Env: "RM_TEST_KEY", Value: "inline", KeyringUser: "groq"})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	got, err = Load(Source{Name: "api key", Env: "RM_TEST_KEY", Value: "inline", KeyringUser: "groq"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = Load(Source{Name: "api key", Env: "RM_TEST_UNSET", Value: " inline ", KeyringUser: "groq"})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	got, err = Load(Source{Name: "api key", KeyringUser: "groq"})
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", got)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("   "), 0o600))

	_, err := Load(Source{Name: "api key", File: empty})
	assert.ErrorContains(t, err, "is empty")

	_, err = Load(Source{Name: "api key", File: filepath.Join(dir, "missing")})
	assert.ErrorContains(t, err, "reading api key from file")

	stubKeyring(t, "", keyring.ErrNotFound)
	_, err = Load(Source{Name: "api key", KeyringUser: "groq"})
	assert.EqualError(t, err, "api key is not configured")

	stubKeyring(t, "", errors.New("dbus unavailable"))
	_, err = Load(Source{KeyringUser: "groq"})
	assert.ErrorContains(t, err, "reading secret from keyring")
}
