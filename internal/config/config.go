package config

import (
	"fmt"
	"time"
)

// Version and Contact are overridable at link time with
// -ldflags "-X .../internal/config.Version=1.2.3", following the
// original client's hard-coded "Third Uploader/0.1.0 <contact>" literal.
var (
	Version = "0.1.0"
	Contact = "third3dcom@gmail.com"
)

// Runtime holds process-wide settings for the Third Uploader core.
//
// A Runtime is populated once at startup by LoadConfig and is treated as
// immutable afterward — it is shared by reference across the service
// client, upload driver, and orchestrator.
type Runtime struct {
	// BaseURL is the root of the Service's REST API, e.g.
	// "https://api.vrchat.cloud/api/1".
	BaseURL string

	// ControlPlaneTimeout bounds non-upload HTTP calls (auth, file/avatar
	// CRUD). Body-streaming PUTs are not bounded by this timeout.
	ControlPlaneTimeout time.Duration

	// PartSize is the byte size of each multipart upload part.
	PartSize int64

	// KeychainService is the OS secret-store service name credentials are
	// filed under, paired with the username as the account key.
	KeychainService string
}

// LoadDefaults populates r with sensible defaults.
func (r *Runtime) LoadDefaults() {
	r.BaseURL = "https://api.vrchat.cloud/api/1"
	r.ControlPlaneTimeout = 60 * time.Second
	r.PartSize = 10 * 1024 * 1024
	r.KeychainService = "ThirdUploader"
}

// UserAgent returns the User-Agent header value every Service request
// must carry: "Third Uploader/<version> <contact>".
func (r *Runtime) UserAgent() string {
	return fmt.Sprintf("Third Uploader/%s %s", Version, Contact)
}

// LoadConfig constructs a Runtime, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Runtime {
	cfg := &Runtime{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
