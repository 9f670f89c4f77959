package secret

import (
	"os"
	"strings"
)

// EnvStore implements SecretStore over process environment variables.
// A key such as "ppdm-prod" is read from PPDMLOADER_SECRET_PPDM_PROD.
type EnvStore struct {
	Prefix string
}

// NewEnvStore creates an EnvStore. An empty prefix selects "PPDMLOADER_SECRET_".
func NewEnvStore(prefix string) *EnvStore {
	if prefix == "" {
		prefix = "PPDMLOADER_SECRET_"
	}
	return &EnvStore{Prefix: prefix}
}

// VarName returns the environment variable a key is stored under.
func (e *EnvStore) VarName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	return e.Prefix + name
}

// Set only affects the current process.
func (e *EnvStore) Set(key string, value []byte) error {
	return os.Setenv(e.VarName(key), string(value))
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(e.VarName(key))
	if !ok || v == "" {
		return nil, nil
	}
	return []byte(v), nil
}

func (e *EnvStore) Delete(key string) error {
	return os.Unsetenv(e.VarName(key))
}
