// Package auth stores the bearer token of the signed-in user. The token is
// opaque to the client: it is saved after login and sent on every request.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kutbudev/invctl/internal/config"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "invctl"
	keyringUser    = "access-token"

	fallbackFileName = ".session"
)

var (
	// fallbackMode indicates if we're using file-based fallback (headless systems)
	fallbackMode    bool
	fallbackModeMu  sync.Mutex
	fallbackChecked bool
)

// checkKeyringAvailable tests if system keyring is available
func checkKeyringAvailable() bool {
	fallbackModeMu.Lock()
	defer fallbackModeMu.Unlock()

	if fallbackChecked {
		return !fallbackMode
	}

	testKey := "invctl-keyring-test"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		fallbackMode = true
		fallbackChecked = true
		return false
	}

	_ = keyring.Delete(keyringService, testKey)
	fallbackChecked = true
	return true
}

func getFallbackPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fallbackFileName), nil
}

// SaveToken stores the token in the system keyring or the fallback file.
func SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("empty token")
	}

	if checkKeyringAvailable() {
		if err := keyring.Set(keyringService, keyringUser, token); err != nil {
			return fmt.Errorf("failed to store token in keyring: %w", err)
		}
		return nil
	}
	return storeFallbackToken(token)
}

// LoadToken returns the stored token, or "" when none is stored.
// INVCTL_TOKEN takes precedence over anything stored.
func LoadToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv("INVCTL_TOKEN")); token != "" {
		return token, nil
	}

	if checkKeyringAvailable() {
		token, err := keyring.Get(keyringService, keyringUser)
		if err == keyring.ErrNotFound {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to read token from keyring: %w", err)
		}
		return token, nil
	}

	token, err := retrieveFallbackToken()
	if os.IsNotExist(err) {
		return "", nil
	}
	return token, err
}

// ClearToken removes the token from the keyring and the fallback file.
func ClearToken() error {
	var keyringErr error
	if checkKeyringAvailable() {
		keyringErr = keyring.Delete(keyringService, keyringUser)
		if keyringErr == keyring.ErrNotFound {
			keyringErr = nil
		}
	}
	fallbackErr := deleteFallbackToken()

	if keyringErr != nil && fallbackErr != nil {
		return fmt.Errorf("failed to delete token from keyring and fallback")
	}
	if keyringErr != nil {
		return keyringErr
	}
	return fallbackErr
}

// StorageMode describes where the token lives.
func StorageMode() string {
	if checkKeyringAvailable() {
		return "system-keyring"
	}
	return "file-based (keyring unavailable)"
}

func storeFallbackToken(token string) error {
	path, err := getFallbackPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// owner read/write only
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write fallback token: %w", err)
	}
	return nil
}

func retrieveFallbackToken() (string, error) {
	path, err := getFallbackPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func deleteFallbackToken() error {
	path, err := getFallbackPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
