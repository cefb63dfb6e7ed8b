package secretstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/Kavex/Third3D-uploader/internal/serviceclient"
)

// CookiePair is what the OS secret store holds per username: the
// session cookie pair a successful login produced, per spec §6's
// "OS secret store entries keyed by (KeychainService, username) carrying
// the JSON {auth, twoFactor} cookie pair."
type CookiePair struct {
	Auth      string `json:"auth"`
	TwoFactor string `json:"twoFactor"`
}

// CredentialStore reads and writes CookiePairs keyed by username in the
// OS secret store.
type CredentialStore struct {
	service string
}

// NewCredentialStore builds a CredentialStore filing entries under the
// given keychain service name (config.Runtime.KeychainService).
func NewCredentialStore(service string) *CredentialStore {
	return &CredentialStore{service: service}
}

// Save writes cookies to the secret store under username, overwriting
// any prior entry. Per spec §4.6's session FSM, this is called once per
// successful authentication (direct login or after two-factor).
func (s *CredentialStore) Save(username string, cookies serviceclient.Cookies) error {
	pair := CookiePair{Auth: cookies.Auth, TwoFactor: cookies.TwoFactorAuth}
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal cookie pair: %w", err)
	}
	if err := keyring.Set(s.service, username, string(data)); err != nil {
		return fmt.Errorf("keyring set for %q: %w", username, err)
	}
	return nil
}

// Load reads the cookie pair stored for username. ok is false if no
// entry exists yet; it is not an error.
func (s *CredentialStore) Load(username string) (cookies serviceclient.Cookies, ok bool, err error) {
	raw, err := keyring.Get(s.service, username)
	if errors.Is(err, keyring.ErrNotFound) {
		return serviceclient.Cookies{}, false, nil
	}
	if err != nil {
		return serviceclient.Cookies{}, false, fmt.Errorf("keyring get for %q: %w", username, err)
	}

	var pair CookiePair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		return serviceclient.Cookies{}, false, fmt.Errorf("unmarshal cookie pair for %q: %w", username, err)
	}
	return serviceclient.Cookies{Auth: pair.Auth, TwoFactorAuth: pair.TwoFactor}, true, nil
}

// Clear removes username's stored cookie pair, used on explicit logout.
// A missing entry is not an error.
func (s *CredentialStore) Clear(username string) error {
	err := keyring.Delete(s.service, username)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete for %q: %w", username, err)
	}
	return nil
}
