package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/Kavex/Third3D-uploader/internal/flagx"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. After
// parsing, values are copied into the runtime Runtime.
type jsonConfig struct {
	BaseURL                    string `json:"base_url"`
	ControlPlaneTimeoutSeconds int    `json:"control_plane_timeout_seconds"`
	PartSizeBytes              int64  `json:"part_size_bytes"`
	KeychainService            string `json:"keychain_service"`
}

// parseJson overlays cfg with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Runtime) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc jsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.ControlPlaneTimeoutSeconds > 0 {
		cfg.ControlPlaneTimeout = time.Duration(jc.ControlPlaneTimeoutSeconds) * time.Second
	}
	if jc.PartSizeBytes > 0 {
		cfg.PartSize = jc.PartSizeBytes
	}
	if jc.KeychainService != "" {
		cfg.KeychainService = jc.KeychainService
	}
}
