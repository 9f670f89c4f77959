package secret

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

const keychainService = "ppdmloader"

// itemNotFound is the exit code `security` uses for a missing item.
const itemNotFound = 44

// KeychainStore implements SecretStore using the macOS Keychain
// via the `security` CLI tool. Where the tool is absent every key reads
// as missing, so it can sit in a Chain on any platform.
type KeychainStore struct {
	bin string
}

// NewKeychainStore creates a new KeychainStore.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{bin: "security"}
}

func (k *KeychainStore) available() bool {
	_, err := exec.LookPath(k.bin)
	return err == nil
}

// Set stores a secret in the macOS Keychain, replacing any existing value.
func (k *KeychainStore) Set(key string, value []byte) error {
	cmd := exec.Command(k.bin, "add-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", string(value),
		"-U",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "keychain set: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// Get retrieves a secret from the macOS Keychain.
// Returns empty slice and nil error if the key doesn't exist.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	if !k.available() {
		return nil, nil
	}
	out, err := exec.Command(k.bin, "find-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w",
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == itemNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "keychain get")
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

// Delete removes a secret from the macOS Keychain. A missing item is not an error.
func (k *KeychainStore) Delete(key string) error {
	if !k.available() {
		return nil
	}
	err := exec.Command(k.bin, "delete-generic-password",
		"-a", key,
		"-s", keychainService,
	).Run()
	var exitErr *exec.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.ExitCode() == itemNotFound) {
		return errors.Wrap(err, "keychain delete")
	}
	return nil
}
