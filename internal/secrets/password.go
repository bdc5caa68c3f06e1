package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "goldrates"

	// PasswordEnv overrides the keychain, for hosts without one.
	PasswordEnv = "GOLDRATES_DB_PASSWORD"
)

var ErrNotFound = errors.New("database password not found (set it in keychain or via env)")

// DatabasePassword looks in the environment first, then the keychain.
func DatabasePassword(keyringAccount string) (string, error) {
	if pw := strings.TrimSpace(os.Getenv(PasswordEnv)); pw != "" {
		return pw, nil
	}
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", ErrNotFound
}

func SetDatabasePassword(keyringAccount, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteDatabasePassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if err := keyring.Delete(KeyringService, keyringAccount); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
