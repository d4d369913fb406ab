package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service under which API keys are stored.
const KeyringService = "resume-matcher"

// keyringGet is swapped in tests.
var keyringGet = keyring.Get

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over every other source.
	File string
	// Env names an environment variable consulted before Value.
	Env string
	// KeyringUser is the account looked up in the OS keyring when nothing
	// else produced a value.
	KeyringUser string
}

// Load returns the resolved secret value from the provided source, trying
// File, Env, Value and the OS keyring in that order. The returned secret is
// always trimmed. An error is returned when no source contains a usable secret.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if user := strings.TrimSpace(src.KeyringUser); user != "" {
		secret, err := keyringGet(KeyringService, user)
		switch {
		case err == nil && strings.TrimSpace(secret) != "":
			return strings.TrimSpace(secret), nil
		case err != nil && !errors.Is(err, keyring.ErrNotFound):
			return "", fmt.Errorf("reading %s from keyring: %w", name, err)
		}
	}

	return "", fmt.Errorf("%s is not configured", name)
}
