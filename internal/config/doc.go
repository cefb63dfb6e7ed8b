// Package config loads runtime configuration for the Third Uploader core.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Runtime).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-base-url string     base URL of the Service's REST API
//	-timeout int         control-plane request timeout, in seconds
//
// # JSON schema
//
//	{
//	  "base_url": "https://api.vrchat.cloud/api/1",
//	  "control_plane_timeout_seconds": 60,
//	  "part_size_bytes": 10485760
//	}
//
// Primary API
//
//   - type Runtime                       — immutable-after-load process config
//   - func LoadConfig() *Runtime         — builds Runtime by applying defaults, JSON, then flags
//   - func (*Runtime) LoadDefaults()     — sets sensible defaults
//   - func (*Runtime) UserAgent() string — the User-Agent header value for every Service request
package config
