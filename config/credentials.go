package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// CredentialsEnv holds the service account JSON itself.
const CredentialsEnv = "FIREBASE_CREDENTIALS"

// DefaultKeyFile is read when CredentialsEnv is unset.
const DefaultKeyFile = "serviceAccountKey.json"

// ErrMissingCredentials is returned when neither the environment nor the
// key file provide credentials.
var ErrMissingCredentials = errors.New("no document store credentials found")

// Credentials is a resolved service account.
type Credentials struct {
	JSON      []byte
	ProjectID string
	// Source names where the credentials came from.
	Source string
}

// LoadEnv loads variables from the given .env files, or ./.env when none
// are given. Missing files are ignored and existing variables win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// ResolveCredentials reads the service account from CredentialsEnv, then
// from keyFile (DefaultKeyFile when empty).
func ResolveCredentials(keyFile string) (*Credentials, error) {
	if raw := strings.TrimSpace(os.Getenv(CredentialsEnv)); raw != "" {
		return parseCredentials([]byte(raw), CredentialsEnv)
	}

	if keyFile == "" {
		keyFile = DefaultKeyFile
	}
	data, err := os.ReadFile(keyFile)
	if os.IsNotExist(err) {
		return nil, ErrMissingCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return parseCredentials(data, keyFile)
}

func parseCredentials(data []byte, source string) (*Credentials, error) {
	var key struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("invalid credentials in %s: %w", source, err)
	}
	if key.ProjectID == "" {
		return nil, fmt.Errorf("credentials in %s have no project_id", source)
	}
	return &Credentials{JSON: data, ProjectID: key.ProjectID, Source: source}, nil
}
