// Package token manages the shared secret that guards the local command API.
package token

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const (
	KeyringService = "quickcopy"
	KeyringAccount = "api-token"

	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"
	length   = 48
)

var ErrNoToken = errors.New("no API token available")

type Options struct {
	UseKeyring bool
	File       string
}

// Generate returns a fresh random token.
func Generate() (string, error) {
	tok, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("token: %w", err)
	}
	return tok, nil
}

// LoadOrCreate returns the API token, creating and persisting one if needed.
// The OS keyring is preferred; the token file is used when the keyring is
// disabled or unavailable (headless sessions without a secret service).
func LoadOrCreate(opts Options) (string, error) {
	if opts.UseKeyring {
		tok, err := keyring.Get(KeyringService, KeyringAccount)
		if err == nil && strings.TrimSpace(tok) != "" {
			return strings.TrimSpace(tok), nil
		}
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			logrus.WithError(err).Warn("keyring unavailable; using token file")
			return loadOrCreateFile(opts.File)
		}

		tok, err = Generate()
		if err != nil {
			return "", err
		}
		if err := keyring.Set(KeyringService, KeyringAccount, tok); err != nil {
			logrus.WithError(err).Warn("storing token in keyring failed; using token file")
			return loadOrCreateFile(opts.File)
		}
		logrus.WithField("service", KeyringService).Info("created API token in OS keyring")
		return tok, nil
	}
	return loadOrCreateFile(opts.File)
}

// Load returns an existing token without creating one. Clients use it.
func Load(opts Options) (string, error) {
	if opts.UseKeyring {
		if tok, err := keyring.Get(KeyringService, KeyringAccount); err == nil && strings.TrimSpace(tok) != "" {
			return strings.TrimSpace(tok), nil
		}
	}
	if opts.File == "" {
		return "", ErrNoToken
	}
	tok, err := ReadFile(opts.File)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", err
	}
	return tok, nil
}

func loadOrCreateFile(path string) (string, error) {
	if path == "" {
		return "", ErrNoToken
	}
	if err := InitFile(path); err != nil {
		return "", err
	}
	return ReadFile(path)
}

// InitFile creates the token file with a new token if it does not exist and
// checks its permissions on Unix.
func InitFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		if runtime.GOOS != "windows" {
			return ensureFileMode0600(path)
		}
		return nil
	}

	tok, err := Generate()
	if err != nil {
		return err
	}

	perm := os.FileMode(0600)
	if runtime.GOOS == "windows" {
		perm = 0644 // Windows ACLs differ; keep it readable to the user.
	}
	if err := os.WriteFile(path, []byte(tok+"\n"), perm); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}

	// Re-check perms on Unix to catch umask surprises.
	if runtime.GOOS != "windows" {
		return ensureFileMode0600(path)
	}
	return nil
}

// ReadFile reads a token file, trimming surrounding whitespace.
func ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", errors.New("empty token")
	}
	return tok, nil
}

func ensureFileMode0600(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := fi.Mode().Perm()
	if mode&0077 != 0 {
		return fmt.Errorf("token file has insecure permissions (must be 0600 or stricter): %s (got %04o)", path, mode)
	}
	return nil
}
