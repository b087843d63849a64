// Package client is the Go client for the AgriMarket chat API. It owns the
// pieces that must never reach the server: the local private key and the
// encrypt-before-send / decrypt-after-receive logic.
package client

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/webbiemuchy/agrimarket/internal/pgp"
)

// SecretStore is a scoped key-value store for key material. Implementations
// may back it with a file directory, an OS keychain, or anything else;
// Get returns an empty string for a missing name, not an error.
type SecretStore interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

const (
	privateKeyName = "privateKey"
	publicKeyName  = "publicKey"
)

// FileStore keeps secrets as files in a directory, one per name.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create secret dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Get(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileStore) Set(name, value string) error {
	return os.WriteFile(s.path(name), []byte(value), 0o600)
}

func (s *FileStore) Delete(name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Identity binds generated keys to the user's display name and email.
type Identity struct {
	Name  string
	Email string
}

// Keyring manages the user's local keypair on top of a SecretStore.
type Keyring struct {
	Store SecretStore
}

// LoadPrivateKey parses the stored private key. A corrupt stored value is
// deleted and (nil, nil) returned, so the next EnsureKeys call regenerates
// instead of every caller failing on the same bad bytes.
func (k *Keyring) LoadPrivateKey() (openpgp.EntityList, error) {
	armored, err := k.Store.Get(privateKeyName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(armored) == "" {
		return nil, nil
	}
	keyring, err := pgp.ReadKey(armored)
	if err != nil {
		log.Println("Invalid private key, clearing it for regeneration:", err)
		_ = k.Store.Delete(privateKeyName)
		return nil, nil
	}
	return keyring, nil
}

// PublicKey returns the stored armored public key, empty when none exists.
func (k *Keyring) PublicKey() (string, error) {
	return k.Store.Get(publicKeyName)
}

// EnsureKeys generates and stores a keypair if no usable private key is
// present, then uploads the public key through the given callback.
// Idempotent: with a valid stored key it does nothing. An upload failure
// is logged and swallowed so login keeps working in degraded mode.
func (k *Keyring) EnsureKeys(id Identity, upload func(publicKey string) error) error {
	existing, err := k.LoadPrivateKey()
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	pair, err := pgp.GenerateKeyPair(id.Name, id.Email)
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}
	if err := k.Store.Set(privateKeyName, pair.PrivateKey); err != nil {
		return err
	}
	if err := k.Store.Set(publicKeyName, pair.PublicKey); err != nil {
		return err
	}

	if upload != nil {
		if err := upload(pair.PublicKey); err != nil {
			log.Println("Failed to upload public key:", err)
		}
	}
	return nil
}

// Clear destroys the local key material. Called on logout.
func (k *Keyring) Clear() error {
	if err := k.Store.Delete(privateKeyName); err != nil {
		return err
	}
	return k.Store.Delete(publicKeyName)
}
