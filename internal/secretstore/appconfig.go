package secretstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Kavex/Third3D-uploader/internal/filex"
)

// AppConfig is the contents of the small config.json the core keeps in
// the OS app-data directory, per spec §6.
type AppConfig struct {
	LastUsername string `json:"lastUsername"`
}

// AppConfigStore reads and writes config.json under an OS app-data
// subdirectory named after appName.
type AppConfigStore struct {
	appName string
}

// NewAppConfigStore builds an AppConfigStore for the given app-data
// subdirectory name (config.Runtime.KeychainService doubles as this
// name, since both identify the same installation).
func NewAppConfigStore(appName string) *AppConfigStore {
	return &AppConfigStore{appName: appName}
}

func (s *AppConfigStore) path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	dir, err := filex.EnsureDir(filepath.Join(base, s.appName))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads config.json, returning a zero-value AppConfig (not an
// error) if the file does not exist yet.
func (s *AppConfigStore) Load() (AppConfig, error) {
	path, err := s.path()
	if err != nil {
		return AppConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return AppConfig{}, nil
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

// Save overwrites config.json with cfg.
func (s *AppConfigStore) Save(cfg AppConfig) error {
	path, err := s.path()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal app config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SetLastUsername is a convenience wrapper used by the login flow: load,
// update the one field, save.
func (s *AppConfigStore) SetLastUsername(username string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	cfg.LastUsername = username
	return s.Save(cfg)
}
